package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fipe-market-price/internal/analyzer"
	"fipe-market-price/internal/fipe"
	"fipe-market-price/internal/model"
	"fipe-market-price/internal/service"
)

type stubCatalog struct{}

func (stubCatalog) Marcas(ctx context.Context, codigoTipo int) ([]fipe.Option, error) {
	return []fipe.Option{{Label: "Honda", Value: "80"}}, nil
}

func (stubCatalog) Modelos(ctx context.Context, codigoTipo, codigoMarca int) ([]fipe.Option, error) {
	return []fipe.Option{{Label: "BIZ 125 ES", Value: "4050"}}, nil
}

func (stubCatalog) AnosModelo(ctx context.Context, codigoTipo, codigoMarca, codigoModelo int) ([]fipe.Option, error) {
	return []fipe.Option{{Label: "2020 Gasolina", Value: "2020-1"}}, nil
}

func (stubCatalog) Preco(ctx context.Context, codigoTipo, codigoMarca, codigoModelo int, codigoAno string) (*model.PrecoFipe, error) {
	valor := 8500.0
	return &model.PrecoFipe{Valor: &valor, ValorTexto: "R$ 8.500,00", Marca: "Honda", Modelo: "BIZ 125 ES", Ano: 2020}, nil
}

func newTestHandler() *AnalyzeHandler {
	a := analyzer.New(analyzer.DefaultTables())
	resolver := fipe.NewResolver(stubCatalog{}, a, nil)
	return NewAnalyzeHandler(service.NewAnalysisService(a, resolver, nil))
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(`{"title":"Honda Biz 125 2020"}`))
	rec := httptest.NewRecorder()
	h.Analyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"vehicle_type":"motos"`)
	assert.Contains(t, body, `"brand":"HONDA"`)
	assert.Contains(t, body, `"HONDA BIZ 125 2020"`)
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	h := newTestHandler()

	t.Run("missing title", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(`{"description":"sem titulo"}`))
		rec := httptest.NewRecorder()
		h.Analyze(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_request")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/analyze", strings.NewReader(`{not json`))
		rec := httptest.NewRecorder()
		h.Analyze(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPriceEndpoint(t *testing.T) {
	h := newTestHandler()

	t.Run("priced listing", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/price", strings.NewReader(`{"title":"Honda Biz 125 2020"}`))
		rec := httptest.NewRecorder()
		h.Price(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `"found":true`)
		assert.Contains(t, body, "R$ 8.500,00")
	})

	t.Run("listing without brand", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/price", strings.NewReader(`{"title":"carro barato oportunidade"}`))
		rec := httptest.NewRecorder()
		h.Price(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "dados_insuficientes")
	})
}
