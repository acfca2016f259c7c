package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"fipe-market-price/internal/analyzer"
	"fipe-market-price/internal/fipe"
	"fipe-market-price/internal/model"
)

// Run modes. ModePrice resolves market prices; ModeRetype only rewrites the
// classified vehicle type of every active listing.
const (
	ModePrice  = "price"
	ModeRetype = "retype"
)

// ListingRepository defines the listing storage operations the batch needs
type ListingRepository interface {
	FetchWithoutPrice(ctx context.Context, limit, offset int) ([]model.Veiculo, error)
	FetchActive(ctx context.Context, limit, offset int) ([]model.Veiculo, error)
	CountWithoutPrice(ctx context.Context) (int, error)
	UpdateMarketPrice(ctx context.Context, id uuid.UUID, update model.MarketPriceUpdate) error
	UpdateVehicleType(ctx context.Context, id uuid.UUID, tipo model.VehicleType) error
}

// FailureRepository defines methods for tracking pricing failures
type FailureRepository interface {
	Upsert(ctx context.Context, veiculoID uuid.UUID, tipoErro, mensagemErro string) error
	MarkResolved(ctx context.Context, veiculoID uuid.UUID) error
	CountPending(ctx context.Context) (int, error)
}

// PriceSearcher resolves an analyzed listing to a priced record
type PriceSearcher interface {
	SearchVehiclePrice(ctx context.Context, analise model.Analise) (*model.PrecoFipe, error)
}

// Config holds configuration for a batch run
type Config struct {
	Mode             string
	Workers          int
	BatchSize        int
	CheckpointEvery  int
	CheckpointFile   string
	ResumeOffset     int
	DryRun           bool
	HTTPMonitorPort  int
	EnableMonitoring bool
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Mode:             ModePrice,
		Workers:          5,
		BatchSize:        200,
		CheckpointEvery:  100,
		CheckpointFile:   "pricing_checkpoint.json",
		ResumeOffset:     -1,
		DryRun:           false,
		HTTPMonitorPort:  9090,
		EnableMonitoring: true,
	}
}

// Service orchestrates a batch pricing run over the listing table
type Service struct {
	config     Config
	runID      uuid.UUID
	repo       ListingRepository
	falhaRepo  FailureRepository
	searcher   PriceSearcher
	analyzer   *analyzer.Analyzer
	checkpoint *CheckpointManager
	progress   *ProgressTracker
	monitor    *HTTPMonitor
	logger     *slog.Logger
}

// NewService creates a new batch pricing service
func NewService(
	config Config,
	repo ListingRepository,
	searcher PriceSearcher,
	a *analyzer.Analyzer,
	logger *slog.Logger,
) *Service {
	return &Service{
		config:     config,
		runID:      uuid.New(),
		repo:       repo,
		falhaRepo:  nil, // Optional, set via SetFailureRepo
		searcher:   searcher,
		analyzer:   a,
		checkpoint: NewCheckpointManager(config.CheckpointFile),
		logger:     logger,
	}
}

// SetFailureRepo sets the failure repository for tracking failed attempts
func (s *Service) SetFailureRepo(repo FailureRepository) {
	s.falhaRepo = repo
}

// Run executes the batch over every eligible listing
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("starting batch run",
		"run_id", s.runID,
		"mode", s.config.Mode,
		"workers", s.config.Workers,
		"batch_size", s.config.BatchSize,
		"dry_run", s.config.DryRun,
	)

	total, err := s.repo.CountWithoutPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to count listings: %w", err)
	}

	offset := s.resumeOffset()
	s.logger.Info("batch scope", "unpriced", total, "offset", offset)

	s.progress = NewProgressTracker(max(total-offset, 0))

	if s.config.EnableMonitoring {
		s.monitor = NewHTTPMonitor(s.config.HTTPMonitorPort, s.progress)
		if err := s.monitor.Start(); err != nil {
			s.logger.Warn("failed to start HTTP monitor", "error", err)
		} else {
			s.logger.Info("HTTP monitoring started", "port", s.config.HTTPMonitorPort)
			defer func() {
				s.monitor.Stop(context.Background())
			}()
		}
	}

	workQueue := make(chan model.Veiculo, s.config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go s.worker(ctx, i, workQueue, &wg)
	}

	// Feed the queue page by page
	fed := 0
	var lastID uuid.UUID

feed:
	for {
		listings, err := s.fetchBatch(ctx, offset)
		if err != nil {
			close(workQueue)
			wg.Wait()
			return fmt.Errorf("failed to fetch listings: %w", err)
		}
		if len(listings) == 0 {
			break
		}

		for _, veiculo := range listings {
			select {
			case <-ctx.Done():
				s.logger.Info("context cancelled, stopping...")
				break feed
			case workQueue <- veiculo:
				lastID = veiculo.ID
				fed++

				if fed%s.config.CheckpointEvery == 0 {
					if err := s.checkpoint.Save(s.runID, s.config.Mode, offset+fed, lastID, s.progress); err != nil {
						s.logger.Warn("failed to save checkpoint", "error", err)
					} else {
						s.logger.Info("checkpoint saved", "offset", offset+fed, "last_id", lastID)
					}
				}
			}
		}

		offset += len(listings)
	}

	close(workQueue)
	wg.Wait()

	if err := s.checkpoint.Save(s.runID, s.config.Mode, offset, lastID, s.progress); err != nil {
		s.logger.Warn("failed to save final checkpoint", "error", err)
	}

	s.printFinalStats()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}

// resumeOffset picks the starting offset: an explicit flag wins, then a
// checkpoint from a matching run mode, then zero.
func (s *Service) resumeOffset() int {
	if s.config.ResumeOffset >= 0 {
		return s.config.ResumeOffset
	}

	if !s.checkpoint.Exists() {
		return 0
	}

	checkpoint, err := s.checkpoint.Load()
	if err != nil || checkpoint == nil {
		s.logger.Warn("failed to load checkpoint, starting fresh", "error", err)
		return 0
	}
	if checkpoint.Mode != s.config.Mode {
		s.logger.Info("checkpoint from different mode, starting fresh", "mode", checkpoint.Mode)
		return 0
	}

	s.logger.Info("resuming from checkpoint",
		"run_id", checkpoint.RunID,
		"offset", checkpoint.Offset,
		"saved_at", checkpoint.SavedAt,
	)
	return checkpoint.Offset
}

func (s *Service) fetchBatch(ctx context.Context, offset int) ([]model.Veiculo, error) {
	if s.config.Mode == ModeRetype {
		return s.repo.FetchActive(ctx, s.config.BatchSize, offset)
	}
	return s.repo.FetchWithoutPrice(ctx, s.config.BatchSize, offset)
}

// worker processes listings from the work queue
func (s *Service) worker(ctx context.Context, id int, queue <-chan model.Veiculo, wg *sync.WaitGroup) {
	defer wg.Done()

	s.logger.Info("worker started", "worker_id", id)

	processedCount := 0
	for veiculo := range queue {
		s.processListing(ctx, veiculo)
		processedCount++

		if processedCount%100 == 0 {
			s.logger.Info("worker progress",
				"worker_id", id,
				"processed", processedCount,
			)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("worker stopping due to context cancellation", "worker_id", id)
			return
		default:
		}
	}

	s.logger.Info("worker finished", "worker_id", id, "total_processed", processedCount)
}

// processListing handles a single listing
func (s *Service) processListing(ctx context.Context, veiculo model.Veiculo) {
	s.progress.SetCurrentListing(veiculo.Title)
	s.progress.IncrementProcessed()

	analise := s.analyzer.Analyze(veiculo)

	if s.config.Mode == ModeRetype {
		s.retypeListing(ctx, veiculo, analise)
		return
	}

	// Categories without a price table only get their type persisted
	if _, ok := fipe.CodigoTipo(analise.VehicleType); !ok {
		s.logger.Debug("listing outside price tables",
			"id", veiculo.ID,
			"tipo", analise.VehicleType,
		)
		if !s.config.DryRun {
			if err := s.repo.UpdateVehicleType(ctx, veiculo.ID, analise.VehicleType); err != nil {
				s.logger.Warn("failed to update vehicle type", "id", veiculo.ID, "error", err)
			}
		}
		s.progress.IncrementSkipped()
		return
	}

	if s.config.DryRun {
		s.logger.Info("dry run - would search price table",
			"id", veiculo.ID,
			"tipo", analise.VehicleType,
			"marca", analise.Brand,
			"modelo", analise.Model,
			"ano", analise.YearModel,
		)
		s.progress.IncrementPriced(string(analise.Confidence))
		return
	}

	s.progress.IncrementRequests()
	preco, err := s.searcher.SearchVehiclePrice(ctx, analise)
	if err != nil {
		if errors.Is(err, fipe.ErrDadosInsuficientes) {
			s.logger.Debug("insufficient data for search",
				"id", veiculo.ID,
				"title", veiculo.Title,
			)
			s.progress.IncrementSkipped()
			s.saveFailure(ctx, veiculo.ID, err.Error())
			return
		}

		s.logger.Warn("price search failed",
			"id", veiculo.ID,
			"marca", analise.Brand,
			"modelo", analise.Model,
			"error", err,
		)
		s.progress.IncrementFailed(err.Error())
		s.saveFailure(ctx, veiculo.ID, err.Error())
		return
	}

	if preco == nil || preco.Valor == nil {
		s.logger.Debug("no match in price table",
			"id", veiculo.ID,
			"marca", analise.Brand,
			"modelo", analise.Model,
			"ano", analise.YearModel,
		)
		s.progress.IncrementNotFound()
		s.saveFailure(ctx, veiculo.ID, "veiculo nao encontrado na tabela de precos")
		return
	}

	update := model.MarketPriceUpdate{
		MarketPrice: *preco.Valor,
		Source:      "fipe",
		Confidence:  string(analise.Confidence),
		VehicleType: analise.VehicleType,
		Metadata: map[string]any{
			"fipe_codigo":         preco.CodigoFipe,
			"fipe_marca":          preco.Marca,
			"fipe_modelo":         preco.Modelo,
			"fipe_ano":            preco.Ano,
			"fipe_mes_referencia": preco.MesReferencia,
		},
	}

	if err := s.repo.UpdateMarketPrice(ctx, veiculo.ID, update); err != nil {
		s.logger.Warn("failed to save market price",
			"id", veiculo.ID,
			"error", err,
		)
		s.progress.IncrementFailed(err.Error())
		s.saveFailure(ctx, veiculo.ID, err.Error())
		return
	}

	s.logger.Info("listing priced",
		"id", veiculo.ID,
		"tipo", analise.VehicleType,
		"valor", preco.ValorTexto,
		"confianca", analise.Confidence,
	)
	s.markFailureResolved(ctx, veiculo.ID)
	s.progress.IncrementPriced(string(analise.Confidence))
}

// retypeListing rewrites only the classified vehicle type
func (s *Service) retypeListing(ctx context.Context, veiculo model.Veiculo, analise model.Analise) {
	if veiculo.VehicleType != nil && *veiculo.VehicleType == string(analise.VehicleType) {
		s.progress.IncrementSkipped()
		return
	}

	if s.config.DryRun {
		s.logger.Info("dry run - would retype",
			"id", veiculo.ID,
			"tipo", analise.VehicleType,
		)
		s.progress.IncrementPriced(string(analise.Confidence))
		return
	}

	if err := s.repo.UpdateVehicleType(ctx, veiculo.ID, analise.VehicleType); err != nil {
		s.logger.Warn("failed to update vehicle type", "id", veiculo.ID, "error", err)
		s.progress.IncrementFailed(err.Error())
		return
	}

	s.progress.IncrementPriced(string(analise.Confidence))
}

// printFinalStats prints final batch statistics
func (s *Service) printFinalStats() {
	snapshot := s.progress.GetSnapshot()

	s.logger.Info("batch run completed",
		"run_id", s.runID,
		"elapsed", snapshot.Elapsed.String(),
		"total", snapshot.TotalListings,
		"processed", snapshot.Processed,
		"priced", snapshot.Priced,
		"failed", snapshot.Failed,
		"skipped", snapshot.Skipped,
		"not_found", snapshot.NotFound,
		"confidence_high", snapshot.ConfidenceHigh,
		"confidence_medium", snapshot.ConfidenceMedium,
		"confidence_low", snapshot.ConfidenceLow,
		"total_requests", snapshot.TotalRequests,
		"req_per_sec", fmt.Sprintf("%.2f", snapshot.RequestsPerSec),
	)
}

// saveFailure records a failed pricing attempt to the database
func (s *Service) saveFailure(ctx context.Context, veiculoID uuid.UUID, errMsg string) {
	if s.falhaRepo == nil {
		return // No failure repository configured
	}

	tipoErro := model.ClassifyError(errMsg)
	if err := s.falhaRepo.Upsert(ctx, veiculoID, tipoErro, errMsg); err != nil {
		s.logger.Warn("failed to save failure record",
			"id", veiculoID,
			"error", err,
		)
	}
}

// markFailureResolved marks a previously failed listing as resolved
func (s *Service) markFailureResolved(ctx context.Context, veiculoID uuid.UUID) {
	if s.falhaRepo == nil {
		return // No failure repository configured
	}

	if err := s.falhaRepo.MarkResolved(ctx, veiculoID); err != nil {
		s.logger.Debug("failed to mark failure as resolved",
			"id", veiculoID,
			"error", err,
		)
	}
}
