package viacep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comexdesk/broker-portal/internal/provider"
)

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/01310100/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"logradouro": "Avenida Paulista",
			"bairro": "Bela Vista",
			"localidade": "Sao Paulo",
			"uf": "SP",
			"complemento": "de 612 a 1510 - lado par"
		}`))
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	hint, err := client.Lookup(context.Background(), "01310-100")
	require.NoError(t, err)
	require.Equal(t, "Avenida Paulista", hint.Street)
	require.Equal(t, "Bela Vista", hint.Neighborhood)
	require.Equal(t, "Sao Paulo", hint.City)
	require.Equal(t, "SP", hint.State)
}

func TestLookup_UnknownCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"erro": true}`))
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	_, err := client.Lookup(context.Background(), "99999999")
	require.ErrorIs(t, err, provider.ErrNotFound)
}

func TestLookup_MalformedCode(t *testing.T) {
	client := New("http://unreachable.invalid", time.Second)
	_, err := client.Lookup(context.Background(), "1234")
	require.ErrorIs(t, err, provider.ErrNotFound)
}
