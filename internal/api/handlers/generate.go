package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/animathic/backend/internal/auth"
	"github.com/animathic/backend/internal/concurrency"
	"github.com/animathic/backend/internal/domain"
	"github.com/animathic/backend/internal/repository"
	"github.com/animathic/backend/pkg/errors"
)

// Prompt length bounds enforced on submission (§3 "Prompt").
const (
	minPromptRunes = 1
	maxPromptRunes = 2000
)

// GenerateRequest is the body of POST /api/generate (§6).
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// GenerateResponse is the body returned on submission.
type GenerateResponse struct {
	JobID string `json:"job_id"`
}

// jobRunner is the subset of coordinator.Coordinator the generate handler
// dispatches to. Narrowed to an interface so tests can stub the pipeline
// without wiring a real orchestrator/sandbox/renderer.
type jobRunner interface {
	Run(ctx context.Context, job *domain.Job)
}

// GenerateHandler admits a generation request, creates its Video and Job
// rows, and dispatches the Job Coordinator. The semaphore is the worker
// pool's only admission point: a job queued beyond queue_max is refused
// at submission with busy, never buffered (§5 "Back-pressure").
type GenerateHandler struct {
	coordinator jobRunner
	jobs        repository.JobRepository
	videos      repository.VideoRepository
	sem         *concurrency.Semaphore
	jobDeadline time.Duration
	logger      *zap.Logger
}

// NewGenerateHandler constructs a GenerateHandler.
func NewGenerateHandler(
	coord jobRunner,
	jobs repository.JobRepository,
	videos repository.VideoRepository,
	sem *concurrency.Semaphore,
	jobDeadline time.Duration,
	logger *zap.Logger,
) *GenerateHandler {
	return &GenerateHandler{coordinator: coord, jobs: jobs, videos: videos, sem: sem, jobDeadline: jobDeadline, logger: logger}
}

// Generate handles POST /api/generate.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{
			Error: errors.FromKind(errors.KindInvalidPrompt, "prompt is required"),
		})
		return
	}
	if n := utf8.RuneCountInString(req.Prompt); n < minPromptRunes || n > maxPromptRunes {
		c.JSON(http.StatusBadRequest, errors.ErrorResponse{
			Error: errors.FromKind(errors.KindInvalidPrompt, fmt.Sprintf("prompt must be between %d and %d characters", minPromptRunes, maxPromptRunes)),
		})
		return
	}

	userID := auth.MustGetUserID(c)

	if !h.sem.TryAcquire() {
		h.logger.Warn("rejecting generation request: worker pool at capacity", zap.String("user_id", userID))
		c.JSON(http.StatusTooManyRequests, errors.ErrorResponse{Error: errors.ErrBusy})
		return
	}

	ctx := c.Request.Context()

	video, err := h.videos.CreateVideo(ctx, userID, req.Prompt)
	if err != nil {
		h.sem.Release()
		h.logger.Error("create video row", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errors.ErrorResponse{Error: errors.ErrDatabaseError})
		return
	}

	now := time.Now()
	job := &domain.Job{
		JobID:      uuid.New().String(),
		UserID:     userID,
		Prompt:     req.Prompt,
		State:      domain.StateQueued,
		VideoID:    video.VideoID,
		CreatedAt:  now.Unix(),
		UpdatedAt:  now.Unix(),
		DeadlineAt: now.Add(h.jobDeadline).Unix(),
	}
	if err := h.jobs.CreateJob(ctx, job); err != nil {
		h.sem.Release()
		h.logger.Error("create job row", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errors.ErrorResponse{Error: errors.ErrDatabaseError})
		return
	}

	go func() {
		defer h.sem.Release()
		runCtx, cancel := context.WithTimeout(context.Background(), h.jobDeadline)
		defer cancel()
		h.coordinator.Run(runCtx, job)
	}()

	c.JSON(http.StatusAccepted, GenerateResponse{JobID: job.JobID})
}
