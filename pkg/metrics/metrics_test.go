package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGinMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/content/posts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/content/posts/:id", "200"))
	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/content/posts/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/content/posts/:id", "200"))
	assert.Equal(t, before+2, after)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

func TestRecordEventAndDelivery(t *testing.T) {
	RecordEvent(EventFollowed)
	assert.Equal(t, float64(1), testutil.ToFloat64(socialEvents.WithLabelValues(EventFollowed)))

	RecordDelivery(false)
	assert.Equal(t, float64(1), testutil.ToFloat64(notificationsDelivered.WithLabelValues("dropped")))
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordEvent(EventPostCreated)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "yaycha_social_events_total")
}
