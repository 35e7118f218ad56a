package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/12", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	body := scrape(t, r)
	assert.Contains(t, body, `storefront_http_requests_total{method="GET",path="/products/:id",status="200"}`)
	assert.Contains(t, body, `storefront_http_requests_total{method="GET",path="unmatched",status="404"}`)
	assert.NotContains(t, body, `path="/products/12"`)
}

func TestObserveAuthAndOrders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())

	ObserveAuth("signin", nil)
	ObserveAuth("signin", errors.New("bad password"))
	IncOrdersCreated()

	body := scrape(t, r)
	assert.Contains(t, body, `storefront_auth_attempts_total{op="signin",result="success"}`)
	assert.Contains(t, body, `storefront_auth_attempts_total{op="signin",result="failure"}`)
	assert.Contains(t, body, "storefront_orders_created_total")
}
