package server

import (
	"context"

	"github.com/contractportal/portal/internal/config"
	"github.com/contractportal/portal/internal/contract"
	"github.com/contractportal/portal/internal/logger"
	"github.com/contractportal/portal/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Pinger is implemented by the backing stores for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config          config.Config
	DB              Pinger
	ObjectStore     Pinger
	ContractService *contract.Service
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	metrics.InitMetrics()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware())
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)

	metricsPath := deps.Config.Metrics.PrometheusPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	metrics.Register(router, metricsPath)

	api := router.Group("/api")
	if deps.ContractService != nil {
		contract.RegisterRoutes(api, deps.ContractService)
	}

	return router
}
