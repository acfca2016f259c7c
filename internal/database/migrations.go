package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the veiculos and scrape_failures tables when missing.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS veiculos (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			titulo TEXT NOT NULL,
			titulo_normalizado TEXT,
			descricao TEXT,
			metadados JSONB NOT NULL DEFAULT '{}'::jsonb,
			tipo_veiculo VARCHAR(20),
			preco_mercado NUMERIC(12,2),
			ativo BOOLEAN NOT NULL DEFAULT TRUE,
			criado_em TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create veiculos table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_veiculos_sem_preco
		ON veiculos (criado_em)
		WHERE ativo AND preco_mercado IS NULL
	`)
	if err != nil {
		return fmt.Errorf("failed to create idx_veiculos_sem_preco: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_veiculos_tipo
		ON veiculos (tipo_veiculo)
	`)
	if err != nil {
		return fmt.Errorf("failed to create idx_veiculos_tipo: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scrape_failures (
			id SERIAL PRIMARY KEY,
			veiculo_id UUID NOT NULL UNIQUE
				REFERENCES veiculos (id) ON DELETE CASCADE,
			tipo_erro VARCHAR(40) NOT NULL,
			mensagem_erro TEXT,
			tentativas INTEGER NOT NULL DEFAULT 1,
			ultima_tentativa TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			proxima_tentativa TIMESTAMPTZ,
			resolvido BOOLEAN NOT NULL DEFAULT FALSE,
			resolvido_em TIMESTAMPTZ,
			criado_em TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scrape_failures table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_scrape_failures_retry
		ON scrape_failures (proxima_tentativa)
		WHERE NOT resolvido
	`)
	if err != nil {
		return fmt.Errorf("failed to create idx_scrape_failures_retry: %w", err)
	}

	return nil
}
