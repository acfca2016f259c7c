package analyzer

import (
	"regexp"
	"strings"

	"fipe-market-price/internal/model"
)

// exclusiveBrandOrder fixes the iteration order over the exclusive brand
// table so classification stays deterministic across calls.
var exclusiveBrandOrder = []model.VehicleType{
	model.TipoMotos,
	model.TipoCaminhoes,
	model.TipoOnibus,
	model.TipoImplementos,
}

// classificationRule is one stage of the priority cascade. Apply reports the
// category and whether the rule fired; the first firing rule wins.
type classificationRule struct {
	Name  string
	Apply func(text string) (model.VehicleType, bool)
}

// TypeClassifier maps raw listing text to one vehicle type using an explicit
// ordered rule cascade. The cascade front-loads signals with the lowest
// false-positive rates (exclusion terms, exclusive keywords, displacement,
// exclusive brands, exact models) and defers the weakest (bare brand with
// category overlap) to last. Pure function of its rule tables; safe for
// concurrent use.
type TypeClassifier struct {
	tables *Tables
	rules  []classificationRule

	exclusionRe       *regexp.Regexp
	strongKeywordRe   []*regexp.Regexp
	exclusiveBrandRe  map[model.VehicleType]*regexp.Regexp
	ambiguousBrandRe  *regexp.Regexp
	motoModelRe       *regexp.Regexp
	truckModelRe      *regexp.Regexp
	carModelRe        *regexp.Regexp
	categoryKeywordRe []*regexp.Regexp
}

// NewTypeClassifier compiles the rule tables into the ordered cascade.
func NewTypeClassifier(tables *Tables) *TypeClassifier {
	c := &TypeClassifier{
		tables:           tables,
		exclusionRe:      wordListRegex(tables.ExclusionTerms),
		ambiguousBrandRe: wordListRegex(tables.AmbiguousBrands),
		motoModelRe:      wordListRegex(tables.MotoModels),
		truckModelRe:     wordListRegex(tables.TruckModels),
		carModelRe:       wordListRegex(tables.CarModels),
		exclusiveBrandRe: make(map[model.VehicleType]*regexp.Regexp),
	}

	for _, kw := range tables.StrongKeywords {
		c.strongKeywordRe = append(c.strongKeywordRe, wordListRegex(kw.Terms))
	}
	for _, tipo := range exclusiveBrandOrder {
		if brands := tables.ExclusiveBrands[tipo]; len(brands) > 0 {
			c.exclusiveBrandRe[tipo] = wordListRegex(brands)
		}
	}
	for _, kw := range tables.CategoryKeywords {
		c.categoryKeywordRe = append(c.categoryKeywordRe, wordListRegex(kw.Terms))
	}

	c.rules = []classificationRule{
		{Name: "exclusion", Apply: c.matchExclusion},
		{Name: "strong_keyword", Apply: c.matchStrongKeyword},
		{Name: "displacement", Apply: c.matchDisplacement},
		{Name: "exclusive_brand", Apply: c.matchExclusiveBrand},
		{Name: "known_model", Apply: c.matchKnownModel},
		{Name: "category_keyword", Apply: c.matchCategoryKeyword},
		{Name: "ambiguous_brand", Apply: c.matchAmbiguousBrand},
	}

	return c
}

// Classify maps text to exactly one vehicle type. Total: any input,
// including the empty string, yields a category (default carros).
func (c *TypeClassifier) Classify(text string) model.VehicleType {
	tipo, _ := c.ClassifyWithRule(text)
	return tipo
}

// ClassifyWithRule classifies and reports which cascade stage decided,
// "default" when no rule fired.
func (c *TypeClassifier) ClassifyWithRule(text string) (model.VehicleType, string) {
	normalized := Normalize(text)

	for _, rule := range c.rules {
		if tipo, ok := rule.Apply(normalized); ok {
			return tipo, rule.Name
		}
	}

	return model.TipoCarros, "default"
}

func (c *TypeClassifier) matchExclusion(text string) (model.VehicleType, bool) {
	if c.exclusionRe != nil && c.exclusionRe.MatchString(text) {
		return model.TipoOutros, true
	}
	return "", false
}

func (c *TypeClassifier) matchStrongKeyword(text string) (model.VehicleType, bool) {
	for i, kw := range c.tables.StrongKeywords {
		if c.strongKeywordRe[i].MatchString(text) {
			return kw.Type, true
		}
	}
	return "", false
}

// matchDisplacement runs before brand and model checks: an engine
// displacement is a near-unambiguous motorcycle signal that an ambiguous
// car/truck brand elsewhere in the text would otherwise mask.
func (c *TypeClassifier) matchDisplacement(text string) (model.VehicleType, bool) {
	if displacementPattern.MatchString(text) {
		return model.TipoMotos, true
	}
	return "", false
}

func (c *TypeClassifier) matchExclusiveBrand(text string) (model.VehicleType, bool) {
	for _, tipo := range exclusiveBrandOrder {
		re := c.exclusiveBrandRe[tipo]
		if re != nil && re.MatchString(text) {
			return tipo, true
		}
	}
	return "", false
}

// matchKnownModel checks motorcycle models first: model names are the most
// specific disambiguator and several brands overlap between categories.
func (c *TypeClassifier) matchKnownModel(text string) (model.VehicleType, bool) {
	switch {
	case c.motoModelRe != nil && c.motoModelRe.MatchString(text):
		return model.TipoMotos, true
	case c.truckModelRe != nil && c.truckModelRe.MatchString(text):
		return model.TipoCaminhoes, true
	case c.carModelRe != nil && c.carModelRe.MatchString(text):
		return model.TipoCarros, true
	}
	return "", false
}

func (c *TypeClassifier) matchCategoryKeyword(text string) (model.VehicleType, bool) {
	for i, kw := range c.tables.CategoryKeywords {
		if c.categoryKeywordRe[i].MatchString(text) {
			return kw.Type, true
		}
	}
	return "", false
}

// matchAmbiguousBrand resolves brands that span multiple categories to the
// configured default (carros, the dominant category for these brands in the
// source market). This mirrors the documented source behavior even for
// truck-leaning brands; see DESIGN.md.
func (c *TypeClassifier) matchAmbiguousBrand(text string) (model.VehicleType, bool) {
	if c.ambiguousBrandRe != nil && c.ambiguousBrandRe.MatchString(text) {
		return c.tables.AmbiguousBrandDefault, true
	}
	return "", false
}

// wordListRegex compiles a term list into a single word-bounded,
// case-insensitive alternation. Returns nil for an empty list.
func wordListRegex(terms []string) *regexp.Regexp {
	if len(terms) == 0 {
		return nil
	}
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = regexp.QuoteMeta(strings.ToLower(term))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
