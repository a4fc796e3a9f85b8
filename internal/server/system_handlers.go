package server

import (
	"context"
	"net/http"
	"time"

	"gymledger/internal/api"
	"gymledger/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthTimeout = 2 * time.Second

type check func(ctx context.Context) error

// Health godoc
// @Summary      Health check
// @Description  Pings Postgres and, when receipts are enabled, Redis.
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Failure      503 {object} api.HealthResponse
// @Router       /health [get]
func Health(database, redis check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		resp := api.HealthResponse{Status: "ok"}
		resp.Database = probe(ctx, "database", database, &resp)
		resp.Redis = probe(ctx, "redis", redis, &resp)

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

func probe(ctx context.Context, name string, fn check, resp *api.HealthResponse) string {
	if fn == nil {
		return ""
	}
	if err := fn(ctx); err != nil {
		logger.WithError(err).Warn("health check failed", "dependency", name)
		resp.Status = "degraded"
		return "unavailable"
	}
	return "ok"
}

type queueLengther interface {
	QueueLength(ctx context.Context) int64
}

// Metrics godoc
// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics(queue queueLengther) gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		// refresh the receipt backlog gauge on scrape
		if queue != nil {
			queue.QueueLength(c.Request.Context())
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}
