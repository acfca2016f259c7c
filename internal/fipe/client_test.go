package fipe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClientWithBaseURL(srv.URL, 200)
	c.retryConfig.InitialBackoff = time.Millisecond
	c.retryConfig.MaxBackoff = 5 * time.Millisecond
	t.Cleanup(c.Close)
	return c
}

func referenceHandler(w http.ResponseWriter) {
	json.NewEncoder(w).Encode([]ReferenciaTabela{
		{Codigo: 321, Mes: "agosto/2026 "},
		{Codigo: 320, Mes: "julho/2026 "},
	})
}

func TestClientMarcas(t *testing.T) {
	var payload map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/ConsultarTabelaDeReferencia", func(w http.ResponseWriter, r *http.Request) {
		referenceHandler(w)
	})
	mux.HandleFunc("/ConsultarMarcas", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`[{"Label":"Honda","Value":"80"},{"Label":"Yamaha","Value":"77"}]`))
	})

	c := newTestClient(t, mux)

	marcas, err := c.Marcas(context.Background(), CodigoMotos)
	require.NoError(t, err)
	require.Len(t, marcas, 2)
	assert.Equal(t, "Honda", marcas[0].Label)
	assert.Equal(t, "80", marcas[0].Value)

	// Latest reference table and requested vehicle type go in the payload.
	assert.EqualValues(t, 321, payload["codigoTabelaReferencia"])
	assert.EqualValues(t, CodigoMotos, payload["codigoTipoVeiculo"])
}

func TestClientReferenceTableCached(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/ConsultarTabelaDeReferencia", func(w http.ResponseWriter, r *http.Request) {
		calls++
		referenceHandler(w)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		code, err := c.CodigoTabelaReferencia(ctx)
		require.NoError(t, err)
		assert.Equal(t, 321, code)
	}
	assert.Equal(t, 1, calls)
}

func TestClientRetriesOnThrottle(t *testing.T) {
	attempts := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/ConsultarTabelaDeReferencia", func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		referenceHandler(w)
	})

	c := newTestClient(t, mux)

	code, err := c.CodigoTabelaReferencia(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 321, code)
	assert.Equal(t, 3, attempts)
}

func TestClientPreco(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ConsultarTabelaDeReferencia", func(w http.ResponseWriter, r *http.Request) {
		referenceHandler(w)
	})
	mux.HandleFunc("/ConsultarValorComTodosParametros", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.EqualValues(t, 2020, payload["anoModelo"])
		assert.EqualValues(t, 1, payload["codigoTipoCombustivel"])
		assert.Equal(t, "tradicional", payload["tipoConsulta"])

		w.Write([]byte(`{"Valor":"R$ 8.500,00","Marca":"Honda","Modelo":"BIZ 125 ES","AnoModelo":2020,"Combustivel":"Gasolina","CodigoFipe":"811009-2","MesReferencia":"agosto de 2026 "}`))
	})

	c := newTestClient(t, mux)

	preco, err := c.Preco(context.Background(), CodigoMotos, 80, 4050, "2020-1")
	require.NoError(t, err)
	require.NotNil(t, preco.Valor)
	assert.InDelta(t, 8500.0, *preco.Valor, 1e-9)
	assert.Equal(t, "Honda", preco.Marca)
	assert.Equal(t, 2020, preco.Ano)
	assert.Equal(t, "811009-2", preco.CodigoFipe)
}

func TestClientNadaEncontrado(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ConsultarTabelaDeReferencia", func(w http.ResponseWriter, r *http.Request) {
		referenceHandler(w)
	})
	mux.HandleFunc("/ConsultarValorComTodosParametros", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"codigo":"0","erro":"nadaencontrado"}`))
	})

	c := newTestClient(t, mux)

	_, err := c.Preco(context.Background(), CodigoMotos, 80, 9999, "2020-1")
	assert.ErrorIs(t, err, ErrNadaEncontrado)
}

func TestOptionUnmarshalMixedValueTypes(t *testing.T) {
	var opts []Option
	require.NoError(t, json.Unmarshal([]byte(`[{"Label":"Honda","Value":"80"},{"Label":"BIZ 125","Value":4050}]`), &opts))

	assert.Equal(t, "80", opts[0].Value)
	assert.Equal(t, "4050", opts[1].Value)

	codigo, err := opts[1].Codigo()
	require.NoError(t, err)
	assert.Equal(t, 4050, codigo)
}
