package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, "service-wayfinding")
	redisErr := error(nil)
	h.AddChecker("redis", func(ctx context.Context) error { return redisErr })

	r := gin.New()
	h.RegisterRoutes(r)

	get := func(path string) (int, map[string]any) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return w.Code, body
	}

	code, body := get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "service-wayfinding", body["service"])

	code, body = get("/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	redisErr = errors.New("dial tcp: connection refused")
	code, body = get("/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, "dial tcp: connection refused", body["checks"].(map[string]any)["redis"])
}
