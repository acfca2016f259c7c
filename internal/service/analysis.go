package service

import (
	"context"
	"log/slog"

	"fipe-market-price/internal/analyzer"
	"fipe-market-price/internal/fipe"
	"fipe-market-price/internal/model"
)

// AnalysisService exposes listing analysis and live price resolution to the
// HTTP layer.
type AnalysisService struct {
	analyzer *analyzer.Analyzer
	resolver *fipe.Resolver
	logger   *slog.Logger
}

func NewAnalysisService(a *analyzer.Analyzer, r *fipe.Resolver, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{analyzer: a, resolver: r, logger: logger}
}

// Analyze classifies a listing and reports the extracted attributes plus the
// lookup variants that a price search would try.
func (s *AnalysisService) Analyze(req model.AnalyzeRequest) *model.AnalyzeResponse {
	analise := s.analyzer.AnalyzeText(req.Title, req.NormalizedTitle, req.Description)

	var variants []string
	if analise.Brand != "" {
		variants = s.analyzer.BuildVariants(analise.Brand, analise.Model, analise.YearModel)
	}

	return &model.AnalyzeResponse{
		Analise:  analise,
		Variants: variants,
	}
}

// Price analyzes a listing and resolves it against the live price table.
// Returns fipe.ErrDadosInsuficientes when the text yields no searchable
// brand or model.
func (s *AnalysisService) Price(ctx context.Context, req model.AnalyzeRequest) (*model.PriceResponse, error) {
	analise := s.analyzer.AnalyzeText(req.Title, req.NormalizedTitle, req.Description)

	preco, err := s.resolver.SearchVehiclePrice(ctx, analise)
	if err != nil {
		return nil, err
	}

	s.logger.Info("busca de preco concluida",
		"tipo", analise.VehicleType,
		"marca", analise.Brand,
		"modelo", analise.Model,
		"encontrado", preco != nil)

	return &model.PriceResponse{
		Analise: analise,
		Preco:   preco,
		Found:   preco != nil,
	}, nil
}
