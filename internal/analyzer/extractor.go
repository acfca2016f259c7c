package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fipe-market-price/internal/model"
)

var (
	dualYearRegex   = regexp.MustCompile(`\b(\d{4})\s*[/-]\s*(\d{4})\b`)
	singleYearRegex = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	yearTokenRegex  = regexp.MustCompile(`^\d{4}([/-]\d{4})?$`)
)

const (
	modelWindowSize = 5
	modelMaxWords   = 3
)

// Attributes holds the structured fields extracted from a listing. Missing
// fields stay empty and only lower the derived confidence; extraction never
// fails on malformed input.
type Attributes struct {
	Brand     string
	Model     string
	Year      string
	YearModel int
}

// AttributeExtractor pulls brand, model and year out of free listing text
// using the same brand tables the classifier runs on.
type AttributeExtractor struct {
	tables *Tables

	exclusiveBrandRe map[model.VehicleType]*regexp.Regexp
	ambiguousBrandRe *regexp.Regexp
	allExclusiveRe   *regexp.Regexp
	generalBrandRe   *regexp.Regexp
	fillers          map[string]bool
	titleCaser       cases.Caser
}

// NewAttributeExtractor compiles the brand precedence scanners.
func NewAttributeExtractor(tables *Tables) *AttributeExtractor {
	e := &AttributeExtractor{
		tables:           tables,
		exclusiveBrandRe: make(map[model.VehicleType]*regexp.Regexp),
		ambiguousBrandRe: wordListRegex(tables.AmbiguousBrands),
		generalBrandRe:   wordListRegex(tables.GeneralBrands),
		fillers:          make(map[string]bool, len(tables.FillerWords)),
		titleCaser:       cases.Title(language.BrazilianPortuguese),
	}

	var allExclusive []string
	for _, tipo := range exclusiveBrandOrder {
		brands := tables.ExclusiveBrands[tipo]
		if len(brands) > 0 {
			e.exclusiveBrandRe[tipo] = wordListRegex(brands)
		}
		allExclusive = append(allExclusive, brands...)
	}
	e.allExclusiveRe = wordListRegex(allExclusive)

	for _, w := range tables.FillerWords {
		e.fillers[w] = true
	}

	return e
}

// Extract pulls brand, model and year from text for a listing already
// classified as vehicleType. Any field may come back empty.
func (e *AttributeExtractor) Extract(text string, vehicleType model.VehicleType) Attributes {
	normalized := Normalize(text)

	attrs := Attributes{}
	attrs.Year, attrs.YearModel = e.extractYear(normalized)

	brand, brandEnd := e.findBrand(normalized, vehicleType)
	if brand == "" {
		return attrs
	}
	attrs.Brand = strings.ToUpper(brand)

	// Model is only attempted when a brand anchored the scan.
	attrs.Model = e.extractModel(normalized[brandEnd:])

	return attrs
}

// findBrand scans brand tables in fixed precedence: exclusive brands of the
// detected type, then ambiguous brands, then all exclusive brands across
// types, then the residual general list. First word-bounded hit wins.
func (e *AttributeExtractor) findBrand(text string, vehicleType model.VehicleType) (string, int) {
	scanners := []*regexp.Regexp{
		e.exclusiveBrandRe[vehicleType],
		e.ambiguousBrandRe,
		e.allExclusiveRe,
		e.generalBrandRe,
	}

	for _, re := range scanners {
		if re == nil {
			continue
		}
		if loc := re.FindStringIndex(text); loc != nil {
			return text[loc[0]:loc[1]], loc[1]
		}
	}

	return "", 0
}

// extractModel builds the model from the token window following the brand:
// up to 5 tokens, skipping generic fillers, stopping at a year token, keeping
// the first 3 survivors title-cased.
func (e *AttributeExtractor) extractModel(afterBrand string) string {
	tokens := strings.Fields(afterBrand)

	var kept []string
	for i, tok := range tokens {
		if i >= modelWindowSize || len(kept) >= modelMaxWords {
			break
		}
		if yearTokenRegex.MatchString(strings.Trim(tok, ",.;:()")) {
			break
		}
		if e.fillers[tok] || !hasAlnum(tok) {
			continue
		}
		kept = append(kept, tok)
	}

	if len(kept) == 0 {
		return ""
	}

	return e.titleCaser.String(strings.Join(kept, " "))
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// extractYear tries the manufacture/model dual-year pattern first; the
// second number is the authoritative model year. Falls back to a bare
// 4-digit token within 1900-2099.
func (e *AttributeExtractor) extractYear(text string) (string, int) {
	if m := dualYearRegex.FindStringSubmatch(text); m != nil {
		yearModel, err := strconv.Atoi(m[2])
		if err == nil && yearModel >= 1900 && yearModel <= 2099 {
			return fmt.Sprintf("%s/%s", m[1], m[2]), yearModel
		}
	}

	for _, m := range singleYearRegex.FindAllString(text, -1) {
		year, err := strconv.Atoi(m)
		if err == nil && year >= 1900 && year <= 2099 {
			return m, year
		}
	}

	return "", 0
}
