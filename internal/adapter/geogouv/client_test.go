package geogouv

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-atlas/internal/domain"
)

func testClient(baseURL string, timeout time.Duration) *Client {
	return NewClient(baseURL, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Communes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/departements/2A/communes", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"nom":"Ajaccio","code":"2A004","population":73350},
			{"nom":"Albitreccia","code":"2A008"},
			{"nom":"Porto-Vecchio","code":"2A247","population":12045}
		]`)
	}))
	defer srv.Close()

	got, err := testClient(srv.URL+"/", 5*time.Second).Communes(context.Background(), "2A")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "Ajaccio", got[0].Name)
	assert.Equal(t, "2A004", got[0].Code)
	assert.Equal(t, 73350, got[0].PopulationOrZero())
	assert.Equal(t, "Porto-Vecchio", got[1].Name)
}

func TestClient_Communes_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":404,"message":"Département non trouvé"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second).Communes(context.Background(), "99")

	var svcErr *domain.ExternalServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
	assert.Contains(t, svcErr.Reason, "non trouvé")
}

func TestClient_Communes_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"not":"a list"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 5*time.Second).Communes(context.Background(), "38")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode communes of 38")
}

func TestClient_Communes_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 50*time.Millisecond).Communes(context.Background(), "38")
	require.Error(t, err)
}
