package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/customeros/dmarc-summaries/api/middleware"
	"github.com/customeros/dmarc-summaries/api/rest/handlers"
	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/logger"
)

const APIKeyHeader = "X-DMARC-SUMMARIES-API-KEY"

// RegisterRoutes sets up all API endpoints. The /v1 group is only served
// when an API key is configured.
func RegisterRoutes(r *gin.Engine, job interfaces.DmarcSummaryJob, apiKey string, log logger.Logger) {
	if job == nil {
		panic("Job cannot be nil")
	}

	r.Use(gin.Recovery())

	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if apiKey == "" {
		log.Warn("API_KEY not set, reconciliation endpoints are disabled")
		return
	}

	api := r.Group("/v1")
	api.Use(middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  APIKeyHeader,
		ValidAPIKey: apiKey,
	}))
	api.Use(middleware.TracingMiddleware())
	{
		api.POST("/reconcile", handlers.Reconcile(job))
		api.GET("/runs/last", handlers.LastRun(job))
	}
}
