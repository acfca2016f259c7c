package analyzer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	punctRegex      = regexp.MustCompile(`[^\w\s]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Normalize normalizes a string for rule matching: lowercase, accents
// removed, whitespace collapsed.
func Normalize(s string) string {
	s = strings.ToLower(s)

	// Remove accents
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, _ = transform.String(t, s)

	s = strings.Join(strings.Fields(s), " ")

	return strings.TrimSpace(s)
}

// cleanForComparison prepares text for fuzzy comparison: uppercase, strip
// punctuation, collapse whitespace.
func cleanForComparison(s string) string {
	clean := punctRegex.ReplaceAllString(strings.ToUpper(s), "")
	clean = whitespaceRegex.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// NameNormalizer canonicalizes a (brand, model, year) triple into a sequence
// of decreasing-specificity display names for lookup against the FIPE
// catalog, whose naming is terser than listing marketing names.
type NameNormalizer struct {
	tables *Tables
}

// NewNameNormalizer creates a normalizer over the given rule tables.
func NewNameNormalizer(tables *Tables) *NameNormalizer {
	return &NameNormalizer{tables: tables}
}

// BuildVariants generates candidate display names, most specific first,
// deduplicated case-insensitively while preserving emission order.
func (n *NameNormalizer) BuildVariants(brand, modelName string, year int) []string {
	brandClean := n.NormalizeBrand(brand)

	var variants []string
	for _, mv := range n.ModelVariants(modelName) {
		variants = append(variants, join(brandClean, mv, year))
	}

	return dedupeFold(variants)
}

// ModelVariants generates model-only name candidates, most specific first:
// the normalized name, the version-stripped name, then progressive
// truncations toward the base model word.
func (n *NameNormalizer) ModelVariants(modelName string) []string {
	modelClean := n.NormalizeModel(modelName)

	variants := []string{modelClean}

	// Strip version/trim suffixes
	modelSimple := n.SimplifyVersion(modelClean)
	if modelSimple != modelClean {
		variants = append(variants, modelSimple)
	}

	// Progressively truncate toward the base model
	words := strings.Fields(modelSimple)
	if len(words) > 2 {
		variants = append(variants, strings.Join(words[:2], " "))
	}
	if len(words) > 1 {
		variants = append(variants, words[0])
	}

	return dedupeFold(variants)
}

// NormalizeBrand canonicalizes a brand via the alias table.
func (n *NameNormalizer) NormalizeBrand(brand string) string {
	brandUpper := strings.ToUpper(strings.TrimSpace(brand))
	if canonical, ok := n.tables.BrandAliases[brandUpper]; ok {
		return canonical
	}
	return brandUpper
}

// NormalizeModel applies known model-naming rewrites and capitalizes.
func (n *NameNormalizer) NormalizeModel(modelName string) string {
	modelClean := strings.ToUpper(strings.TrimSpace(modelName))

	for _, rw := range n.tables.ModelRewrites {
		modelClean = rw.Pattern.ReplaceAllString(modelClean, rw.Replacement)
	}

	return strings.TrimSpace(capitalizeModel(modelClean))
}

// SimplifyVersion strips trim/engine/transmission/drivetrain/fuel suffixes.
func (n *NameNormalizer) SimplifyVersion(modelName string) string {
	simplified := modelName

	for _, rw := range n.tables.TrimStrips {
		simplified = rw.Pattern.ReplaceAllString(simplified, rw.Replacement)
	}

	return strings.TrimSpace(simplified)
}

// capitalizeModel capitalizes a model name keeping numbers, short tokens and
// acronyms uppercase ("CB 300F" stays as is).
func capitalizeModel(modelName string) string {
	words := strings.Fields(modelName)
	for i, word := range words {
		if isDigits(word) || len(word) <= 3 || word == strings.ToUpper(word) {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func join(brand, modelName string, year int) string {
	parts := make([]string, 0, 3)
	if brand != "" {
		parts = append(parts, brand)
	}
	if modelName != "" {
		parts = append(parts, modelName)
	}
	if year > 0 {
		parts = append(parts, strconv.Itoa(year))
	}
	return strings.Join(parts, " ")
}

// dedupeFold removes case-insensitive duplicates preserving first-seen order.
func dedupeFold(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		key := strings.ToUpper(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
