package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/auth"
	"storefront-service/internal/pricing"
)

func testAPI(t *testing.T, ginMode string) *gin.Engine {
	t.Helper()

	keys, err := auth.NewKeys("test-secret")
	require.NoError(t, err)
	engine := pricing.NewEngine(decimal.Zero, decimal.Zero, decimal.Zero, pricing.DefaultCoupons())

	r, err := API("/", ginMode, keys, nil, nil, nil, engine, nil)
	require.NoError(t, err)
	return r
}

func TestAPIModeComesFromArgument(t *testing.T) {
	testAPI(t, gin.ReleaseMode)
	assert.Equal(t, gin.ReleaseMode, gin.Mode())

	testAPI(t, "debug")
	assert.Equal(t, gin.DebugMode, gin.Mode())
}

func TestAPIHealthEndpoint(t *testing.T) {
	r := testAPI(t, gin.ReleaseMode)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestAPIOrdersRequireAuthentication(t *testing.T) {
	r := testAPI(t, gin.ReleaseMode)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/orders", nil),
		httptest.NewRequest(http.MethodPost, "/orders", nil),
		httptest.NewRequest(http.MethodGet, "/orders/some-id", nil),
		httptest.NewRequest(http.MethodPatch, "/orders/some-id/status", nil),
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", req.Method, req.URL.Path)
		assert.JSONEq(t, `{"error": "Unauthorized"}`, w.Body.String())
	}
}
