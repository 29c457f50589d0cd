package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/work-orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/work-orders/:id", "204"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/work-orders/123", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/work-orders/:id", "204")))
}

func TestRecordTransition(t *testing.T) {
	RecordTransition("expense", "approved", "conflict")
	assert.GreaterOrEqual(t, testutil.ToFloat64(transitions.WithLabelValues("expense", "approved", "conflict")), 1.0)
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordEmailPublished(true)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "fms_notifications_email_published_total"))
}
