package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fipe-market-price/internal/model"
)

const veiculoColumns = `
	id, titulo, COALESCE(titulo_normalizado, ''), COALESCE(descricao, ''),
	metadados, tipo_veiculo, preco_mercado, ativo, criado_em
`

// VeiculoRepo handles database operations for vehicle listings
type VeiculoRepo struct {
	pool *pgxpool.Pool
}

// NewVeiculoRepo creates a new vehicle listing repository
func NewVeiculoRepo(pool *pgxpool.Pool) *VeiculoRepo {
	return &VeiculoRepo{pool: pool}
}

// Insert stores a new listing and returns its generated ID.
func (r *VeiculoRepo) Insert(ctx context.Context, v *model.Veiculo) error {
	metadados, err := marshalMetadata(v.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO veiculos (titulo, titulo_normalizado, descricao, metadados, tipo_veiculo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, ativo, criado_em
	`

	err = r.pool.QueryRow(ctx, query,
		v.Title, v.NormalizedTitle, v.Description, metadados, v.VehicleType,
	).Scan(&v.ID, &v.IsActive, &v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert veiculo: %w", err)
	}

	return nil
}

// GetByID fetches one listing. Returns nil when it does not exist.
func (r *VeiculoRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Veiculo, error) {
	query := `SELECT ` + veiculoColumns + ` FROM veiculos WHERE id = $1`

	v, err := scanVeiculo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get veiculo: %w", err)
	}
	return v, nil
}

// FetchWithoutPrice returns active listings that still lack a market price,
// oldest first.
func (r *VeiculoRepo) FetchWithoutPrice(ctx context.Context, limit, offset int) ([]model.Veiculo, error) {
	query := `
		SELECT ` + veiculoColumns + `
		FROM veiculos
		WHERE ativo AND preco_mercado IS NULL
		ORDER BY criado_em ASC
		LIMIT $1 OFFSET $2
	`
	return r.fetch(ctx, query, limit, offset)
}

// FetchActive returns active listings regardless of pricing state.
func (r *VeiculoRepo) FetchActive(ctx context.Context, limit, offset int) ([]model.Veiculo, error) {
	query := `
		SELECT ` + veiculoColumns + `
		FROM veiculos
		WHERE ativo
		ORDER BY criado_em ASC
		LIMIT $1 OFFSET $2
	`
	return r.fetch(ctx, query, limit, offset)
}

func (r *VeiculoRepo) fetch(ctx context.Context, query string, args ...any) ([]model.Veiculo, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query veiculos: %w", err)
	}
	defer rows.Close()

	var veiculos []model.Veiculo
	for rows.Next() {
		v, err := scanVeiculo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan veiculo row: %w", err)
		}
		veiculos = append(veiculos, *v)
	}

	return veiculos, rows.Err()
}

// CountWithoutPrice returns how many active listings still lack a price.
func (r *VeiculoRepo) CountWithoutPrice(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM veiculos WHERE ativo AND preco_mercado IS NULL
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unpriced veiculos: %w", err)
	}
	return count, nil
}

// UpdateMarketPrice writes a priced result back to a listing. The pricing
// metadata is merged into the existing metadados document.
func (r *VeiculoRepo) UpdateMarketPrice(ctx context.Context, id uuid.UUID, update model.MarketPriceUpdate) error {
	meta := map[string]any{
		"market_price_source":     update.Source,
		"market_price_confidence": update.Confidence,
		"market_price_updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range update.Metadata {
		meta[k] = v
	}
	metadados, err := marshalMetadata(meta)
	if err != nil {
		return err
	}

	query := `
		UPDATE veiculos
		SET preco_mercado = $2,
			tipo_veiculo = $3,
			metadados = metadados || $4::jsonb
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, update.MarketPrice, string(update.VehicleType), metadados)
	if err != nil {
		return fmt.Errorf("failed to update market price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("veiculo %s not found", id)
	}

	return nil
}

// UpdateVehicleType rewrites only the classified type of a listing.
func (r *VeiculoRepo) UpdateVehicleType(ctx context.Context, id uuid.UUID, tipo model.VehicleType) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE veiculos SET tipo_veiculo = $2 WHERE id = $1
	`, id, string(tipo))
	if err != nil {
		return fmt.Errorf("failed to update vehicle type: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("veiculo %s not found", id)
	}
	return nil
}

// Stats summarizes pricing coverage over active listings.
func (r *VeiculoRepo) Stats(ctx context.Context) (*model.TabelaStats, error) {
	var stats model.TabelaStats
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE preco_mercado IS NOT NULL)
		FROM veiculos
		WHERE ativo
	`).Scan(&stats.Total, &stats.WithMarketPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to query veiculo stats: %w", err)
	}

	stats.WithoutMarketPrice = stats.Total - stats.WithMarketPrice
	if stats.Total > 0 {
		stats.PercentageComplete = float64(stats.WithMarketPrice) / float64(stats.Total) * 100
	}
	return &stats, nil
}

// BatchUpdatePrices applies a set of price updates, counting outcomes.
func (r *VeiculoRepo) BatchUpdatePrices(ctx context.Context, updates map[uuid.UUID]model.MarketPriceUpdate) (*model.UpsertStats, error) {
	start := time.Now()
	stats := &model.UpsertStats{}

	for id, update := range updates {
		if err := r.UpdateMarketPrice(ctx, id, update); err != nil {
			stats.Errors++
			continue
		}
		stats.Updated++
	}

	stats.TimeMs = time.Since(start).Milliseconds()
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVeiculo(row rowScanner) (*model.Veiculo, error) {
	var v model.Veiculo
	var metadados []byte

	err := row.Scan(
		&v.ID, &v.Title, &v.NormalizedTitle, &v.Description, &metadados,
		&v.VehicleType, &v.MarketPrice, &v.IsActive, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadados) > 0 {
		if err := json.Unmarshal(metadados, &v.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadados: %w", err)
		}
	}
	return &v, nil
}

func marshalMetadata(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return []byte(`{}`), nil
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadados: %w", err)
	}
	return encoded, nil
}
