package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pedrosazl/trust-reclaim-aid/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCNPJFixture(t *testing.T, handler http.HandlerFunc) (CNPJService, *infra.CircuitBreaker) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	svc := NewCNPJService(infra.NewBrasilAPIClient(srv.URL), cb)
	return svc, cb
}

func TestCNPJLookupNormalizesResponse(t *testing.T) {
	svc, _ := newCNPJFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cnpj/v1/12345678000195", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"cnpj": "12345678000195",
			"razao_social": "Laticínios Boa Vista LTDA",
			"nome_fantasia": "Boa Vista",
			"descricao_tipo_de_logradouro": "Rua",
			"logradouro": "das Flores",
			"numero": "100",
			"complemento": "",
			"bairro": "Centro",
			"municipio": "Uberaba",
			"uf": "MG",
			"cep": "38010000",
			"ddd_telefone_1": "3433221100"
		}`))
	})

	resp, err := svc.Lookup(context.Background(), "12.345.678/0001-95")
	require.NoError(t, err)

	assert.Equal(t, "12.345.678/0001-95", resp.CNPJ)
	assert.Equal(t, "Laticínios Boa Vista LTDA", resp.Nome, "razão social wins over nome fantasia")
	assert.Equal(t, "Rua, das Flores, 100, Centro, Uberaba, MG, 38010000", resp.Endereco,
		"empty address parts must be skipped")
	assert.Equal(t, "3433221100", resp.Telefone)
}

func TestCNPJLookupFallsBackToNomeFantasia(t *testing.T) {
	svc, _ := newCNPJFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"cnpj": "12345678000195", "nome_fantasia": "Boa Vista"}`))
	})

	resp, err := svc.Lookup(context.Background(), "12345678000195")
	require.NoError(t, err)
	assert.Equal(t, "Boa Vista", resp.Nome)
}

func TestCNPJLookupRejectsMalformedInput(t *testing.T) {
	svc, _ := newCNPJFixture(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("malformed input must never reach the upstream")
	})

	_, err := svc.Lookup(context.Background(), "12345")
	assert.ErrorIs(t, err, ErrInvalidCNPJ)
}

func TestCNPJLookupMissDoesNotTripBreaker(t *testing.T) {
	svc, cb := newCNPJFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	// Far more misses than the failure threshold.
	for i := 0; i < 10; i++ {
		_, err := svc.Lookup(context.Background(), "12345678000195")
		assert.ErrorIs(t, err, infra.ErrCNPJNotFound)
	}
	assert.Equal(t, infra.CBClosed, cb.State(), "a registry miss is an answer, not a failure")
}

func TestCNPJLookupUpstreamErrorsTripBreaker(t *testing.T) {
	svc, cb := newCNPJFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := svc.Lookup(context.Background(), "12345678000195")
		assert.ErrorIs(t, err, ErrLookupUnavailable)
	}
	assert.Equal(t, infra.CBOpen, cb.State())

	// While open the breaker fast-fails without touching the upstream.
	_, err := svc.Lookup(context.Background(), "12345678000195")
	assert.ErrorIs(t, err, ErrLookupUnavailable)
}
