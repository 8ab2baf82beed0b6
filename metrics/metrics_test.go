package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServer_ExposesOperations(t *testing.T) {
	srv, err := New("test_producer", "127.0.0.1:0")
	require.NoError(t, err)

	ObserveOperation("create", http.StatusOK, 20*time.Millisecond)
	ObserveOperation("create", http.StatusBadRequest, time.Millisecond)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `test_producer_producer_requests_total{code="200",operation="create"} 1`)
	assert.Contains(t, string(body), `test_producer_producer_requests_total{code="400",operation="create"} 1`)
	assert.Contains(t, string(body), "test_producer_producer_request_duration_seconds_bucket")
}
