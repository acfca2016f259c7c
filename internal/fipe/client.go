package fipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"fipe-market-price/internal/model"
)

const (
	defaultBaseURL = "https://veiculos.fipe.org.br/api/veiculos"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	// The reference table changes once a month; cache it well below that.
	refTableTTL = 6 * time.Hour
)

// Client talks to the FIPE consultation API. All endpoints are POST with a
// JSON body; the server refuses requests without browser-looking headers.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *RateLimiter
	retryConfig RetryConfig

	refMu      sync.Mutex
	refCodigo  int
	refFetched time.Time
}

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// NewClient creates a FIPE API client paced at rateLimit requests/second.
func NewClient(rateLimit float64) *Client {
	return NewClientWithBaseURL(defaultBaseURL, rateLimit)
}

// NewClientWithBaseURL is NewClient against an alternate endpoint.
func NewClientWithBaseURL(baseURL string, rateLimit float64) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		rateLimiter: NewRateLimiter(rateLimit),
		retryConfig: RetryConfig{
			MaxRetries:     5,
			InitialBackoff: 1 * time.Second,
			MaxBackoff:     30 * time.Second,
			Multiplier:     2.0,
		},
	}
}

// postWithRetry performs a JSON POST with rate limiting and retry on 429 and
// server errors.
func (c *Client) postWithRetry(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	backoff := c.retryConfig.InitialBackoff

	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Referer", "https://veiculos.fipe.org.br/")
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.retryConfig.MaxRetries {
				if serr := sleep(ctx, backoff); serr != nil {
					return nil, serr
				}
				backoff = nextBackoff(backoff, c.retryConfig)
				continue
			}
			return nil, fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		// Retry on 429, 500, 502, 503
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if attempt < c.retryConfig.MaxRetries {
				if serr := sleep(ctx, backoff); serr != nil {
					return nil, serr
				}
				backoff = nextBackoff(backoff, c.retryConfig)
				continue
			}
		}

		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil, fmt.Errorf("max retries exceeded")
}

// CodigoTabelaReferencia returns the current month's reference table code,
// cached between calls.
func (c *Client) CodigoTabelaReferencia(ctx context.Context) (int, error) {
	c.refMu.Lock()
	defer c.refMu.Unlock()

	if c.refCodigo != 0 && time.Since(c.refFetched) < refTableTTL {
		return c.refCodigo, nil
	}

	body, err := c.postWithRetry(ctx, "/ConsultarTabelaDeReferencia", struct{}{})
	if err != nil {
		return 0, err
	}
	if err := apiFault(body); err != nil {
		return 0, err
	}

	var tabelas []ReferenciaTabela
	if err := json.Unmarshal(body, &tabelas); err != nil {
		return 0, fmt.Errorf("failed to parse reference tables: %w", err)
	}
	if len(tabelas) == 0 {
		return 0, fmt.Errorf("empty reference table list")
	}

	// Newest first
	c.refCodigo = tabelas[0].Codigo
	c.refFetched = time.Now()
	return c.refCodigo, nil
}

// Marcas fetches every brand in the given vehicle table.
func (c *Client) Marcas(ctx context.Context, codigoTipo int) ([]Option, error) {
	ref, err := c.CodigoTabelaReferencia(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"codigoTabelaReferencia": ref,
		"codigoTipoVeiculo":      codigoTipo,
	}

	body, err := c.postWithRetry(ctx, "/ConsultarMarcas", payload)
	if err != nil {
		return nil, err
	}
	if err := apiFault(body); err != nil {
		return nil, err
	}

	var marcas []Option
	if err := json.Unmarshal(body, &marcas); err != nil {
		return nil, fmt.Errorf("failed to parse brands response: %w", err)
	}
	return marcas, nil
}

// Modelos fetches every model of a brand.
func (c *Client) Modelos(ctx context.Context, codigoTipo, codigoMarca int) ([]Option, error) {
	ref, err := c.CodigoTabelaReferencia(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"codigoTabelaReferencia": ref,
		"codigoTipoVeiculo":      codigoTipo,
		"codigoMarca":            codigoMarca,
	}

	body, err := c.postWithRetry(ctx, "/ConsultarModelos", payload)
	if err != nil {
		return nil, err
	}
	if err := apiFault(body); err != nil {
		return nil, err
	}

	var resp modelosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}
	return resp.Modelos, nil
}

// AnosModelo fetches the model-year options of a model. Values look like
// "2019-1" (year dash fuel code).
func (c *Client) AnosModelo(ctx context.Context, codigoTipo, codigoMarca, codigoModelo int) ([]Option, error) {
	ref, err := c.CodigoTabelaReferencia(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"codigoTabelaReferencia": ref,
		"codigoTipoVeiculo":      codigoTipo,
		"codigoMarca":            codigoMarca,
		"codigoModelo":           codigoModelo,
	}

	body, err := c.postWithRetry(ctx, "/ConsultarAnoModelo", payload)
	if err != nil {
		return nil, err
	}
	if err := apiFault(body); err != nil {
		return nil, err
	}

	var anos []Option
	if err := json.Unmarshal(body, &anos); err != nil {
		return nil, fmt.Errorf("failed to parse model years response: %w", err)
	}
	return anos, nil
}

// Preco fetches the priced record for a fully resolved vehicle. codigoAno is
// the raw model-year value ("2019-1"). Returns ErrNadaEncontrado when the
// table has no entry for the combination.
func (c *Client) Preco(ctx context.Context, codigoTipo, codigoMarca, codigoModelo int, codigoAno string) (*model.PrecoFipe, error) {
	ref, err := c.CodigoTabelaReferencia(ctx)
	if err != nil {
		return nil, err
	}

	ano, combustivel, err := SplitCodigoAno(codigoAno)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"codigoTabelaReferencia": ref,
		"codigoTipoVeiculo":      codigoTipo,
		"codigoMarca":            codigoMarca,
		"codigoModelo":           codigoModelo,
		"anoModelo":              ano,
		"codigoTipoCombustivel":  combustivel,
		"tipoConsulta":           "tradicional",
		"modeloCodigoExterno":    "",
	}

	body, err := c.postWithRetry(ctx, "/ConsultarValorComTodosParametros", payload)
	if err != nil {
		return nil, err
	}
	if err := apiFault(body); err != nil {
		return nil, err
	}

	var resp valorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse price response: %w", err)
	}
	if resp.Valor == "" {
		return nil, ErrNadaEncontrado
	}

	preco := &model.PrecoFipe{
		ValorTexto:    resp.Valor,
		Marca:         resp.Marca,
		Modelo:        resp.Modelo,
		Ano:           resp.AnoModelo,
		Combustivel:   resp.Combustivel,
		CodigoFipe:    resp.CodigoFipe,
		MesReferencia: resp.MesReferencia,
	}
	if valor, ok := model.ParsePrecoReal(resp.Valor); ok {
		preco.Valor = &valor
	}
	return preco, nil
}

// Close releases the client's rate limiter.
func (c *Client) Close() {
	c.rateLimiter.Stop()
}

func nextBackoff(current time.Duration, cfg RetryConfig) time.Duration {
	next := time.Duration(float64(current) * cfg.Multiplier)
	if next > cfg.MaxBackoff {
		return cfg.MaxBackoff
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
