package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/tome/internal/logging"
)

func newRouter(t *testing.T, buf *bytes.Buffer) (*gin.Engine, *PrometheusMiddleware, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	pm := NewPrometheusMiddleware("test", reg)

	r := gin.New()
	r.Use(NewRequestLogger(logging.NewWriterLogger("api", buf, logging.DEBUG)).Handler())
	r.Use(pm.Handler())
	RegisterMetricsEndpoint(r, reg)

	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/boom", func(c *gin.Context) { c.String(http.StatusInternalServerError, "boom") })
	return r, pm, reg
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	r, pm, _ := newRouter(t, &buf)

	for _, path := range []string{"/ok", "/boom", "/missing"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.reqErrors.WithLabelValues("GET", "/boom", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.reqErrors.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(pm.reqInflight))

	logs := buf.String()
	assert.Contains(t, logs, "GET /ok 200")
	assert.Contains(t, logs, "GET /boom 500")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_request_duration_seconds")
}
