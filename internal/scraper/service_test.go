package scraper

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fipe-market-price/internal/analyzer"
	"fipe-market-price/internal/fipe"
	"fipe-market-price/internal/model"
)

type fakeListingRepo struct {
	mu          sync.Mutex
	listings    []model.Veiculo
	priceCalls  map[uuid.UUID]model.MarketPriceUpdate
	typeCalls   map[uuid.UUID]model.VehicleType
	fetchActive bool
}

func newFakeListingRepo(listings ...model.Veiculo) *fakeListingRepo {
	return &fakeListingRepo{
		listings:   listings,
		priceCalls: make(map[uuid.UUID]model.MarketPriceUpdate),
		typeCalls:  make(map[uuid.UUID]model.VehicleType),
	}
}

func (f *fakeListingRepo) page(limit, offset int) []model.Veiculo {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.listings) {
		return nil
	}
	end := offset + limit
	if end > len(f.listings) {
		end = len(f.listings)
	}
	return f.listings[offset:end]
}

func (f *fakeListingRepo) FetchWithoutPrice(ctx context.Context, limit, offset int) ([]model.Veiculo, error) {
	return f.page(limit, offset), nil
}

func (f *fakeListingRepo) FetchActive(ctx context.Context, limit, offset int) ([]model.Veiculo, error) {
	f.mu.Lock()
	f.fetchActive = true
	f.mu.Unlock()
	return f.page(limit, offset), nil
}

func (f *fakeListingRepo) CountWithoutPrice(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listings), nil
}

func (f *fakeListingRepo) UpdateMarketPrice(ctx context.Context, id uuid.UUID, update model.MarketPriceUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls[id] = update
	return nil
}

func (f *fakeListingRepo) UpdateVehicleType(ctx context.Context, id uuid.UUID, tipo model.VehicleType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typeCalls[id] = tipo
	return nil
}

type fakeFailureRepo struct {
	mu       sync.Mutex
	upserts  map[uuid.UUID]string
	resolved map[uuid.UUID]bool
}

func newFakeFailureRepo() *fakeFailureRepo {
	return &fakeFailureRepo{
		upserts:  make(map[uuid.UUID]string),
		resolved: make(map[uuid.UUID]bool),
	}
}

func (f *fakeFailureRepo) Upsert(ctx context.Context, veiculoID uuid.UUID, tipoErro, mensagemErro string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts[veiculoID] = tipoErro
	return nil
}

func (f *fakeFailureRepo) MarkResolved(ctx context.Context, veiculoID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved[veiculoID] = true
	return nil
}

func (f *fakeFailureRepo) CountPending(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts), nil
}

type fakeSearcher struct {
	fn func(ctx context.Context, analise model.Analise) (*model.PrecoFipe, error)
}

func (f *fakeSearcher) SearchVehiclePrice(ctx context.Context, analise model.Analise) (*model.PrecoFipe, error) {
	return f.fn(ctx, analise)
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.BatchSize = 2
	cfg.CheckpointEvery = 2
	cfg.CheckpointFile = filepath.Join(t.TempDir(), "checkpoint.json")
	cfg.EnableMonitoring = false
	return cfg
}

func listing(title string) model.Veiculo {
	return model.Veiculo{ID: uuid.New(), Title: title, IsActive: true}
}

func TestRunPricesListings(t *testing.T) {
	priced := listing("Honda Biz 125 2020")
	miss := listing("Fiat Uno Mille 2005")
	unpriceable := listing("Barco de aluminio 6 metros")

	repo := newFakeListingRepo(priced, miss, unpriceable)
	falhas := newFakeFailureRepo()

	valor := 8500.0
	searcher := &fakeSearcher{fn: func(ctx context.Context, analise model.Analise) (*model.PrecoFipe, error) {
		if analise.Brand == "HONDA" {
			return &model.PrecoFipe{
				Valor:      &valor,
				ValorTexto: "R$ 8.500,00",
				Modelo:     "BIZ 125 ES",
				CodigoFipe: "811042-4",
			}, nil
		}
		return nil, nil
	}}

	svc := NewService(testConfig(t), repo, searcher, analyzer.New(analyzer.DefaultTables()), slog.Default())
	svc.SetFailureRepo(falhas)

	require.NoError(t, svc.Run(context.Background()))

	update, ok := repo.priceCalls[priced.ID]
	require.True(t, ok, "priced listing should be persisted")
	assert.Equal(t, 8500.0, update.MarketPrice)
	assert.Equal(t, "fipe", update.Source)
	assert.Equal(t, model.TipoMotos, update.VehicleType)
	assert.Equal(t, "811042-4", update.Metadata["fipe_codigo"])
	assert.True(t, falhas.resolved[priced.ID])

	// Catalog miss records a retryable failure, no price written
	_, ok = repo.priceCalls[miss.ID]
	assert.False(t, ok)
	assert.Equal(t, model.ErroTipoNaoEncontrado, falhas.upserts[miss.ID])

	// Boats have no price table: only the type is persisted
	assert.Equal(t, model.TipoEmbarcacoes, repo.typeCalls[unpriceable.ID])
	_, ok = falhas.upserts[unpriceable.ID]
	assert.False(t, ok)

	snapshot := svc.progress.GetSnapshot()
	assert.Equal(t, 3, snapshot.Processed)
	assert.Equal(t, 1, snapshot.Priced)
	assert.Equal(t, 1, snapshot.NotFound)
	assert.Equal(t, 1, snapshot.Skipped)
}

func TestRunInsufficientData(t *testing.T) {
	vago := listing("carro barato oportunidade")
	repo := newFakeListingRepo(vago)
	falhas := newFakeFailureRepo()

	searcher := &fakeSearcher{fn: func(ctx context.Context, analise model.Analise) (*model.PrecoFipe, error) {
		return nil, fipe.ErrDadosInsuficientes
	}}

	svc := NewService(testConfig(t), repo, searcher, analyzer.New(analyzer.DefaultTables()), slog.Default())
	svc.SetFailureRepo(falhas)

	require.NoError(t, svc.Run(context.Background()))

	assert.Empty(t, repo.priceCalls)
	assert.Equal(t, model.ErroTipoDadosInsuficiente, falhas.upserts[vago.ID])

	snapshot := svc.progress.GetSnapshot()
	assert.Equal(t, 1, snapshot.Skipped)
	assert.Equal(t, 0, snapshot.Failed)
}

func TestRunSearchError(t *testing.T) {
	v := listing("Honda CG 160 2021")
	repo := newFakeListingRepo(v)
	falhas := newFakeFailureRepo()

	searcher := &fakeSearcher{fn: func(ctx context.Context, analise model.Analise) (*model.PrecoFipe, error) {
		return nil, errors.New("request failed with status 503")
	}}

	svc := NewService(testConfig(t), repo, searcher, analyzer.New(analyzer.DefaultTables()), slog.Default())
	svc.SetFailureRepo(falhas)

	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, model.ErroTipoAPIFipe, falhas.upserts[v.ID])
	snapshot := svc.progress.GetSnapshot()
	assert.Equal(t, 1, snapshot.Failed)
}

func TestRunDryRun(t *testing.T) {
	repo := newFakeListingRepo(listing("Honda Biz 125 2020"), listing("Gol 1.6 2018"))

	searcher := &fakeSearcher{fn: func(ctx context.Context, analise model.Analise) (*model.PrecoFipe, error) {
		t.Fatal("dry run must not call the searcher")
		return nil, nil
	}}

	cfg := testConfig(t)
	cfg.DryRun = true
	svc := NewService(cfg, repo, searcher, analyzer.New(analyzer.DefaultTables()), slog.Default())

	require.NoError(t, svc.Run(context.Background()))

	assert.Empty(t, repo.priceCalls)
	assert.Empty(t, repo.typeCalls)
}

func TestRunRetypeMode(t *testing.T) {
	moto := listing("Honda Biz 125 2020")
	carro := listing("VW Gol 1.6 2018")
	tipoAtual := "carros"
	carro.VehicleType = &tipoAtual

	repo := newFakeListingRepo(moto, carro)

	searcher := &fakeSearcher{fn: func(ctx context.Context, analise model.Analise) (*model.PrecoFipe, error) {
		t.Fatal("retype mode must not call the searcher")
		return nil, nil
	}}

	cfg := testConfig(t)
	cfg.Mode = ModeRetype
	svc := NewService(cfg, repo, searcher, analyzer.New(analyzer.DefaultTables()), slog.Default())

	require.NoError(t, svc.Run(context.Background()))

	assert.True(t, repo.fetchActive, "retype mode pages the full active set")
	assert.Equal(t, model.TipoMotos, repo.typeCalls[moto.ID])

	// Already correctly typed, nothing to write
	_, ok := repo.typeCalls[carro.ID]
	assert.False(t, ok)
}

func TestResumeOffsetPrecedence(t *testing.T) {
	cfg := testConfig(t)
	repo := newFakeListingRepo()
	svc := NewService(cfg, repo, &fakeSearcher{}, analyzer.New(analyzer.DefaultTables()), slog.Default())

	t.Run("no checkpoint starts at zero", func(t *testing.T) {
		assert.Equal(t, 0, svc.resumeOffset())
	})

	t.Run("explicit flag wins", func(t *testing.T) {
		svc.config.ResumeOffset = 42
		assert.Equal(t, 42, svc.resumeOffset())
		svc.config.ResumeOffset = -1
	})

	t.Run("checkpoint from same mode resumes", func(t *testing.T) {
		progress := NewProgressTracker(100)
		require.NoError(t, svc.checkpoint.Save(svc.runID, ModePrice, 37, uuid.New(), progress))
		assert.Equal(t, 37, svc.resumeOffset())
	})

	t.Run("checkpoint from other mode ignored", func(t *testing.T) {
		progress := NewProgressTracker(100)
		require.NoError(t, svc.checkpoint.Save(svc.runID, ModeRetype, 37, uuid.New(), progress))
		assert.Equal(t, 0, svc.resumeOffset())
	})
}
