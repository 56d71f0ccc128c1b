package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/animathic/backend/internal/repository"
)

// HealthResponse reports each dependency's reachability.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthHandler checks the repositories the core depends on.
type HealthHandler struct {
	jobRepo repository.JobRepository
	assets  repository.AssetRepository
	logger  *zap.Logger
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(jobRepo repository.JobRepository, assets repository.AssetRepository, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{jobRepo: jobRepo, assets: assets, logger: logger}
}

// Check handles GET/HEAD /health.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if err := h.jobRepo.HealthCheck(ctx); err != nil {
		h.logger.Warn("dynamodb health check failed", zap.Error(err))
		checks["dynamodb"] = "unhealthy: " + err.Error()
		healthy = false
	} else {
		checks["dynamodb"] = "healthy"
	}

	if err := h.assets.HealthCheck(ctx); err != nil {
		h.logger.Warn("s3 health check failed", zap.Error(err))
		checks["s3"] = "unhealthy: " + err.Error()
		healthy = false
	} else {
		checks["s3"] = "healthy"
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Checks:    checks,
	})
}
