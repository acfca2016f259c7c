package analyzer

import (
	"context"
	"strings"

	"fipe-market-price/internal/model"
)

// LookupFunc resolves a single textual variant against the reference
// catalog, typically exact-then-fuzzy. It returns nil when nothing matched;
// transient transport failures are the collaborator's problem and also
// surface as nil.
type LookupFunc func(ctx context.Context, variant string) (*model.PrecoFipe, error)

// Analyzer ties the classification, extraction and normalization stages
// together. It holds no mutable state beyond its read-only rule tables and
// is safe to share across workers.
type Analyzer struct {
	classifier *TypeClassifier
	extractor  *AttributeExtractor
	normalizer *NameNormalizer
	matcher    *FuzzyMatcher
}

// New builds an analyzer over the given rule tables.
func New(tables *Tables) *Analyzer {
	return &Analyzer{
		classifier: NewTypeClassifier(tables),
		extractor:  NewAttributeExtractor(tables),
		normalizer: NewNameNormalizer(tables),
		matcher:    NewFuzzyMatcher(DefaultMatchThreshold),
	}
}

// Classifier exposes the type classifier.
func (a *Analyzer) Classifier() *TypeClassifier { return a.classifier }

// Matcher exposes the fuzzy matcher for catalog-side lookups.
func (a *Analyzer) Matcher() *FuzzyMatcher { return a.matcher }

// Analyze classifies a listing and extracts its attributes. The input is
// never mutated; a fresh Analise is produced per call.
func (a *Analyzer) Analyze(veiculo model.Veiculo) model.Analise {
	return a.AnalyzeText(veiculo.Title, veiculo.NormalizedTitle, veiculo.Description)
}

// AnalyzeText is Analyze over raw listing fields.
func (a *Analyzer) AnalyzeText(title, normalizedTitle, description string) model.Analise {
	text := joinFields(title, normalizedTitle, description)

	tipo := a.classifier.Classify(text)
	attrs := a.extractor.Extract(text, tipo)

	return model.Analise{
		VehicleType: tipo,
		Brand:       attrs.Brand,
		Model:       attrs.Model,
		Year:        attrs.Year,
		YearModel:   attrs.YearModel,
		Confidence:  model.DeriveConfidence(attrs.Brand, attrs.Model, attrs.YearModel),
	}
}

// BuildVariants generates the lookup variants for an analyzed listing.
func (a *Analyzer) BuildVariants(brand, modelName string, year int) []string {
	return a.normalizer.BuildVariants(brand, modelName, year)
}

// ModelVariants generates model-only name variants, most specific first.
func (a *Analyzer) ModelVariants(modelName string) []string {
	return a.normalizer.ModelVariants(modelName)
}

// SearchWithFallback resolves (brand, model, year) against the catalog by
// trying each name variant in decreasing specificity and stopping at the
// first hit. Specificity first minimizes false positives; generality last
// maximizes recall. Returns nil when every variant misses.
func (a *Analyzer) SearchWithFallback(ctx context.Context, brand, modelName string, year int, lookup LookupFunc) (*model.PrecoFipe, error) {
	return a.SearchVariants(ctx, a.BuildVariants(brand, modelName, year), lookup)
}

// SearchVariants runs lookup over an explicit variant sequence, stopping at
// the first hit. Returns nil when every variant misses.
func (a *Analyzer) SearchVariants(ctx context.Context, variants []string, lookup LookupFunc) (*model.PrecoFipe, error) {
	for _, variant := range variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		preco, err := lookup(ctx, variant)
		if err != nil {
			// Lookup misses and transient failures both mean "try the
			// next variant"; only cancellation aborts.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if preco != nil {
			return preco, nil
		}
	}

	return nil, nil
}

func joinFields(fields ...string) string {
	var parts []string
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
