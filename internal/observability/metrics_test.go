package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveFetch(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("detail", OutcomeOK))
	ObserveFetch("detail", OutcomeOK, 150*time.Millisecond)
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("detail", OutcomeOK))

	assert.Equal(t, before+1, after)
}

func TestMetricsExposed(t *testing.T) {
	ItemsTotal.WithLabelValues(OutcomeEmitted).Inc()
	ErrorsTotal.WithLabelValues("validation").Inc()

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `alkoteka_items_total{outcome="emitted"}`)
	assert.Contains(t, string(body), `alkoteka_errors_total{type="validation"}`)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/metrics", "text/plain", nil)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestShutdownNil(t *testing.T) {
	assert.NotPanics(t, func() { Shutdown(nil) })
}
