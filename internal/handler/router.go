package handler

import (
	"log/slog"
	"strconv"

	"github.com/UnknownOlympus/compass/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewEngine wires the maps API, health and metrics endpoints into a gin engine.
func NewEngine(
	maps *MapsHandler,
	db Pinger,
	reg *prometheus.Registry,
	appMetrics *metrics.Metrics,
	log *slog.Logger,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), countRequests(appMetrics))

	api := engine.Group("/api/maps")
	api.GET("/geocode", maps.Geocode)
	api.GET("/route", maps.Route)

	engine.GET("/healthz", Health(db, log))
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return engine
}

func countRequests(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
