package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kingstar-club/membership-api/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	ping    func() error
}

// NewMetricsHandler constructs a metrics handler. ping is invoked by the
// readiness probe and should reach the backing database.
func NewMetricsHandler(metrics *service.MetricsService, ping func() error) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, ping: ping}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports readiness, failing when the database is unreachable.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
