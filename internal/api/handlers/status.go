package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/animathic/backend/internal/auth"
	"github.com/animathic/backend/internal/domain"
	"github.com/animathic/backend/internal/repository"
	apierrors "github.com/animathic/backend/pkg/errors"
)

// StatusResponse is the body of GET /api/status/{job_id} (§6).
type StatusResponse struct {
	State   domain.State        `json:"state"`
	Attempt int                 `json:"attempt"`
	URL     string              `json:"url,omitempty"`
	Error   *apierrors.JobError `json:"error,omitempty"`
}

// StatusHandler serves job status lookups, scoped to the requesting user.
type StatusHandler struct {
	jobs   repository.JobRepository
	logger *zap.Logger
}

// NewStatusHandler constructs a StatusHandler.
func NewStatusHandler(jobs repository.JobRepository, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{jobs: jobs, logger: logger}
}

// GetStatus handles GET /api/status/{job_id}. A job owned by a different
// user collapses to the same not_found response as a missing job (§7, §8
// invariant 6): existence is never revealed to a non-owner.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	userID := auth.MustGetUserID(c)
	jobID := c.Param("job_id")

	job, err := h.jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, apierrors.ErrorResponse{Error: apierrors.ErrJobNotFound})
			return
		}
		h.logger.Error("get job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apierrors.ErrorResponse{Error: apierrors.ErrDatabaseError})
		return
	}

	if job.UserID != userID {
		c.JSON(http.StatusNotFound, apierrors.ErrorResponse{Error: apierrors.ErrJobNotFound})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		State:   job.State,
		Attempt: job.Attempt,
		URL:     job.ResultURL,
		Error:   job.Error,
	})
}
