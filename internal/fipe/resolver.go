package fipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"fipe-market-price/internal/analyzer"
	"fipe-market-price/internal/model"
)

// ErrDadosInsuficientes marks a listing whose analysis lacks the minimum
// fields (brand and model) for a catalog search.
var ErrDadosInsuficientes = errors.New("dados insuficientes para busca")

// Catalog is the slice of the FIPE API the resolver consumes.
type Catalog interface {
	Marcas(ctx context.Context, codigoTipo int) ([]Option, error)
	Modelos(ctx context.Context, codigoTipo, codigoMarca int) ([]Option, error)
	AnosModelo(ctx context.Context, codigoTipo, codigoMarca, codigoModelo int) ([]Option, error)
	Preco(ctx context.Context, codigoTipo, codigoMarca, codigoModelo int, codigoAno string) (*model.PrecoFipe, error)
}

// Resolver resolves an analyzed listing to a priced catalog record in
// stages: brand, then model, then model-year, then price. Brand matching is
// exact-then-substring; model matching additionally tries token overlap and
// fuzzy similarity, walking the name variants from most to least specific.
type Resolver struct {
	api      Catalog
	analyzer *analyzer.Analyzer
	logger   *slog.Logger
}

// NewResolver creates a resolver over the given catalog.
func NewResolver(api Catalog, a *analyzer.Analyzer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{api: api, analyzer: a, logger: logger}
}

// FindMarca locates a brand option by name, exact first then substring.
// Returns ErrNadaEncontrado when the catalog has no plausible brand.
func (r *Resolver) FindMarca(ctx context.Context, codigoTipo int, marca string) (*Option, error) {
	opts, err := r.api.Marcas(ctx, codigoTipo)
	if err != nil {
		return nil, fmt.Errorf("consultar marcas: %w", err)
	}

	query := analyzer.Normalize(marca)
	if query == "" {
		return nil, ErrNadaEncontrado
	}

	for i := range opts {
		if analyzer.Normalize(opts[i].Label) == query {
			return &opts[i], nil
		}
	}
	for i := range opts {
		label := analyzer.Normalize(opts[i].Label)
		if strings.Contains(label, query) || strings.Contains(query, label) {
			return &opts[i], nil
		}
	}

	return nil, fmt.Errorf("marca %q: %w", marca, ErrNadaEncontrado)
}

// FindModelo locates a model option by trying each name variant in
// decreasing specificity against the brand's model list.
func (r *Resolver) FindModelo(ctx context.Context, codigoTipo, codigoMarca int, nomeModelo string) (*Option, error) {
	modelos, err := r.api.Modelos(ctx, codigoTipo, codigoMarca)
	if err != nil {
		return nil, fmt.Errorf("consultar modelos: %w", err)
	}

	for _, variant := range r.analyzer.ModelVariants(nomeModelo) {
		if variant == "" {
			continue
		}
		if opt := r.matchModelo(modelos, variant); opt != nil {
			return opt, nil
		}
	}

	return nil, fmt.Errorf("modelo %q: %w", nomeModelo, ErrNadaEncontrado)
}

// matchModelo matches one name variant against the model list: exact, then
// substring, then token overlap of at least two words, then fuzzy score.
func (r *Resolver) matchModelo(modelos []Option, variant string) *Option {
	query := analyzer.Normalize(variant)
	if query == "" {
		return nil
	}

	for i := range modelos {
		if analyzer.Normalize(modelos[i].Label) == query {
			return &modelos[i]
		}
	}

	for i := range modelos {
		label := analyzer.Normalize(modelos[i].Label)
		if strings.Contains(label, query) {
			return &modelos[i]
		}
	}

	queryWords := strings.Fields(query)
	bestOverlap := 0
	bestIdx := -1
	for i := range modelos {
		labelWords := map[string]bool{}
		for _, w := range strings.Fields(analyzer.Normalize(modelos[i].Label)) {
			labelWords[w] = true
		}
		overlap := 0
		for _, w := range queryWords {
			if labelWords[w] {
				overlap++
			}
		}
		if overlap > bestOverlap {
			bestOverlap = overlap
			bestIdx = i
		}
	}
	if bestOverlap >= 2 {
		return &modelos[bestIdx]
	}

	labels := make([]string, len(modelos))
	for i := range modelos {
		labels[i] = modelos[i].Label
	}
	if match, ok := r.analyzer.Matcher().BestMatch(variant, labels); ok {
		for i := range modelos {
			if modelos[i].Label == match.Candidate {
				return &modelos[i]
			}
		}
	}

	return nil
}

// FindAnoModelo locates the model-year option. With a known year the option
// value prefix ("2019-") decides; without one the newest listed year wins.
func (r *Resolver) FindAnoModelo(ctx context.Context, codigoTipo, codigoMarca, codigoModelo, ano int) (*Option, error) {
	anos, err := r.api.AnosModelo(ctx, codigoTipo, codigoMarca, codigoModelo)
	if err != nil {
		return nil, fmt.Errorf("consultar anos: %w", err)
	}
	if len(anos) == 0 {
		return nil, ErrNadaEncontrado
	}

	if ano <= 0 {
		return &anos[0], nil
	}

	prefix := strconv.Itoa(ano) + "-"
	for i := range anos {
		if strings.HasPrefix(anos[i].Value, prefix) {
			return &anos[i], nil
		}
	}
	for i := range anos {
		if strings.Contains(anos[i].Label, strconv.Itoa(ano)) {
			return &anos[i], nil
		}
	}

	return nil, fmt.Errorf("ano %d: %w", ano, ErrNadaEncontrado)
}

// SearchVehiclePrice resolves an analyzed listing end to end. A nil record
// with nil error means the catalog has no entry; categories without a FIPE
// table resolve the same way. ErrDadosInsuficientes flags listings whose
// analysis produced no brand or model.
func (r *Resolver) SearchVehiclePrice(ctx context.Context, analise model.Analise) (*model.PrecoFipe, error) {
	codigoTipo, ok := CodigoTipo(analise.VehicleType)
	if !ok {
		r.logger.Debug("tipo sem tabela fipe", "tipo", analise.VehicleType)
		return nil, nil
	}
	if analise.Brand == "" || analise.Model == "" {
		return nil, ErrDadosInsuficientes
	}

	marca, err := r.FindMarca(ctx, codigoTipo, analise.Brand)
	if err != nil {
		if errors.Is(err, ErrNadaEncontrado) {
			return nil, nil
		}
		return nil, err
	}
	codigoMarca, err := marca.Codigo()
	if err != nil {
		return nil, fmt.Errorf("codigo marca %q: %w", marca.Value, err)
	}

	modelos, err := r.api.Modelos(ctx, codigoTipo, codigoMarca)
	if err != nil {
		return nil, fmt.Errorf("consultar modelos: %w", err)
	}

	lookup := func(ctx context.Context, variant string) (*model.PrecoFipe, error) {
		opt := r.matchModelo(modelos, variant)
		if opt == nil {
			return nil, nil
		}
		codigoModelo, err := opt.Codigo()
		if err != nil {
			return nil, err
		}

		anoOpt, err := r.FindAnoModelo(ctx, codigoTipo, codigoMarca, codigoModelo, analise.YearModel)
		if err != nil {
			return nil, err
		}

		preco, err := r.api.Preco(ctx, codigoTipo, codigoMarca, codigoModelo, anoOpt.Value)
		if err != nil {
			return nil, err
		}

		r.logger.Debug("preco resolvido",
			"marca", marca.Label,
			"modelo", opt.Label,
			"ano", anoOpt.Value,
			"valor", preco.ValorTexto)
		return preco, nil
	}

	return r.analyzer.SearchVariants(ctx, r.analyzer.ModelVariants(analise.Model), lookup)
}
