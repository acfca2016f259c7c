package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fipe-market-price/internal/model"
)

// ScrapeFailureRepo handles database operations for pricing failures
type ScrapeFailureRepo struct {
	pool *pgxpool.Pool
}

// NewScrapeFailureRepo creates a new pricing failure repository
func NewScrapeFailureRepo(pool *pgxpool.Pool) *ScrapeFailureRepo {
	return &ScrapeFailureRepo{pool: pool}
}

// Upsert inserts or updates a failure record
// If the listing already has a failure record, it increments the attempt counter
func (r *ScrapeFailureRepo) Upsert(ctx context.Context, veiculoID uuid.UUID, tipoErro, mensagemErro string) error {
	// Retry horizon depends on how transient the error type is
	var proximaTentativa *time.Time
	switch tipoErro {
	case model.ErroTipoRateLimit:
		t := time.Now().Add(1 * time.Minute)
		proximaTentativa = &t
	case model.ErroTipoRede:
		t := time.Now().Add(5 * time.Minute)
		proximaTentativa = &t
	case model.ErroTipoNaoEncontrado, model.ErroTipoDadosInsuficiente:
		// Likely permanent until the listing text changes: no auto-retry
		proximaTentativa = nil
	default:
		t := time.Now().Add(30 * time.Minute)
		proximaTentativa = &t
	}

	query := `
		INSERT INTO scrape_failures (
			veiculo_id, tipo_erro, mensagem_erro, tentativas,
			ultima_tentativa, proxima_tentativa
		) VALUES ($1, $2, $3, 1, NOW(), $4)
		ON CONFLICT (veiculo_id) DO UPDATE SET
			tipo_erro = EXCLUDED.tipo_erro,
			mensagem_erro = EXCLUDED.mensagem_erro,
			tentativas = scrape_failures.tentativas + 1,
			ultima_tentativa = NOW(),
			proxima_tentativa = EXCLUDED.proxima_tentativa,
			resolvido = FALSE,
			resolvido_em = NULL
	`

	_, err := r.pool.Exec(ctx, query, veiculoID, tipoErro, mensagemErro, proximaTentativa)
	if err != nil {
		return fmt.Errorf("failed to upsert scrape failure: %w", err)
	}

	return nil
}

// MarkResolved marks a failure as resolved (a price was successfully saved)
func (r *ScrapeFailureRepo) MarkResolved(ctx context.Context, veiculoID uuid.UUID) error {
	query := `
		UPDATE scrape_failures
		SET resolvido = TRUE, resolvido_em = NOW()
		WHERE veiculo_id = $1
	`

	_, err := r.pool.Exec(ctx, query, veiculoID)
	if err != nil {
		return fmt.Errorf("failed to mark failure as resolved: %w", err)
	}

	return nil
}

// GetPendingRetries returns failures that are ready for retry
func (r *ScrapeFailureRepo) GetPendingRetries(ctx context.Context, limit int) ([]model.ScrapeFailure, error) {
	query := `
		SELECT
			id, veiculo_id, tipo_erro, mensagem_erro,
			tentativas, ultima_tentativa, proxima_tentativa,
			resolvido, resolvido_em, criado_em
		FROM scrape_failures
		WHERE NOT resolvido
		AND proxima_tentativa IS NOT NULL
		AND proxima_tentativa <= NOW()
		ORDER BY proxima_tentativa ASC, tentativas ASC
		LIMIT $1
	`

	return r.query(ctx, query, limit)
}

// GetRetryableByType returns failures of a specific type ready for retry
func (r *ScrapeFailureRepo) GetRetryableByType(ctx context.Context, tipoErro string, limit int) ([]model.ScrapeFailure, error) {
	query := `
		SELECT
			id, veiculo_id, tipo_erro, mensagem_erro,
			tentativas, ultima_tentativa, proxima_tentativa,
			resolvido, resolvido_em, criado_em
		FROM scrape_failures
		WHERE NOT resolvido
		AND tipo_erro = $1
		ORDER BY tentativas ASC, ultima_tentativa ASC
		LIMIT $2
	`

	return r.query(ctx, query, tipoErro, limit)
}

func (r *ScrapeFailureRepo) query(ctx context.Context, query string, args ...any) ([]model.ScrapeFailure, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrape failures: %w", err)
	}
	defer rows.Close()

	var falhas []model.ScrapeFailure
	for rows.Next() {
		var f model.ScrapeFailure
		err := rows.Scan(
			&f.ID, &f.VeiculoID, &f.TipoErro, &f.MensagemErro,
			&f.Tentativas, &f.UltimaTentativa, &f.ProximaTentativa,
			&f.Resolvido, &f.ResolvidoEm, &f.CriadoEm,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan failure row: %w", err)
		}
		falhas = append(falhas, f)
	}

	return falhas, rows.Err()
}

// GetStats returns unresolved failure counts per error type
func (r *ScrapeFailureRepo) GetStats(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT tipo_erro, COUNT(*) AS count
		FROM scrape_failures
		WHERE NOT resolvido
		GROUP BY tipo_erro
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query failure stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var tipoErro string
		var count int
		if err := rows.Scan(&tipoErro, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats[tipoErro] = count
	}

	return stats, rows.Err()
}

// CountPending returns total count of unresolved failures
func (r *ScrapeFailureRepo) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM scrape_failures WHERE NOT resolvido
	`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending failures: %w", err)
	}
	return count, nil
}

// DeleteResolved removes resolved failure records older than specified duration
func (r *ScrapeFailureRepo) DeleteResolved(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := r.pool.Exec(ctx, `
		DELETE FROM scrape_failures
		WHERE resolvido AND resolvido_em < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete resolved failures: %w", err)
	}

	return result.RowsAffected(), nil
}
