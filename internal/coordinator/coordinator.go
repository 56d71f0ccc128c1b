// Package coordinator implements the Job Coordinator (C9): the single
// writer of a Job's state machine, driving it queued -> llm_generating ->
// synthesizing -> validating -> rendering -> uploading -> persisting ->
// completed, with failed reachable from any non-terminal state (§4.9).
package coordinator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/animathic/backend/internal/allowlist"
	"github.com/animathic/backend/internal/domain"
	"github.com/animathic/backend/internal/orchestrator"
	"github.com/animathic/backend/internal/renderer"
	"github.com/animathic/backend/internal/repository"
	"github.com/animathic/backend/internal/sandbox"
	"github.com/animathic/backend/internal/synth"
	"github.com/animathic/backend/pkg/errors"
)

const generatedSceneClass = "GeneratedScene"

// defaultAttemptBudget is the global cap on llm_generating->...->rendering
// cycles a single job may spend before failing with kind=exhausted (§4.9
// "global attempt counter bounds total LLM+render retries (default 3)").
const defaultAttemptBudget = 3

// Coordinator owns a Job for its entire lifetime. Exactly one goroutine
// runs Run for a given job at a time (§4.9 "single writer per job"); the
// caller (the worker pool admitted by internal/concurrency) guarantees
// that invariant.
type Coordinator struct {
	orchestrator  *orchestrator.Orchestrator
	sandbox       *sandbox.Sandbox
	renderer      *renderer.Adapter
	jobs          repository.JobRepository
	videos        repository.VideoRepository
	assets        repository.AssetRepository
	attemptBudget int
	logger        *zap.Logger
}

// New constructs a Coordinator wiring together every pipeline stage.
// attemptBudget <= 0 defaults to 3 (§6 "llm_attempt_budget=3"), shared with
// the LLM Orchestrator's own per-call budget.
func New(
	orch *orchestrator.Orchestrator,
	sb *sandbox.Sandbox,
	rd *renderer.Adapter,
	jobs repository.JobRepository,
	videos repository.VideoRepository,
	assets repository.AssetRepository,
	attemptBudget int,
	logger *zap.Logger,
) *Coordinator {
	if attemptBudget <= 0 {
		attemptBudget = defaultAttemptBudget
	}
	return &Coordinator{
		orchestrator: orch, sandbox: sb, renderer: rd,
		jobs: jobs, videos: videos, assets: assets,
		attemptBudget: attemptBudget, logger: logger,
	}
}

// Run drives job through the full pipeline to completion or failure. It
// has no return value: every failure is recorded on the job itself and
// logged, never propagated to the caller as a Go error (the worker pool
// only needs to know a slot has freed up).
//
// synthesis/validation/render failures do not fail the job outright: the
// diagnostic is fed back into the LLM Orchestrator as repair context and
// the pipeline re-enters at llm_generating, bounded by attemptBudget
// cycles (§4.9 transition table; §8 scenario 3 "job retries once, then
// fails with exhausted"). llm_generating's own llm_exhausted outcome, and
// any uploading failure, are terminal immediately — the cycle budget only
// governs the synthesize/validate/render round trip.
func (c *Coordinator) Run(ctx context.Context, job *domain.Job) {
	runCtx := ctx
	if job.DeadlineAt > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(ctx, time.Unix(job.DeadlineAt, 0))
		defer cancel()
	}

	log := c.logger.With(zap.String("job_id", job.JobID), zap.String("video_id", job.VideoID))

	var repairContext string

	for cycle := 1; cycle <= c.attemptBudget; cycle++ {
		spec, err := c.generateSpec(runCtx, job, repairContext, log)
		if err != nil {
			c.fail(ctx, job, err, log)
			return
		}

		if err := domain.ValidateSpec(spec); err != nil {
			job.Attempt++
			c.logAttempt(runCtx, job, domain.PhaseLLM, domain.OutcomeFailed, kindOf(err), err.Error(), "", "", job.Attempt)
			if cycle == c.attemptBudget {
				c.fail(ctx, job, errors.New(errors.KindExhausted, err.Error()), log)
				return
			}
			repairContext = err.Error()
			continue
		}

		source, err := c.synthesize(job, spec, log)
		if err == nil {
			err = c.validate(job, source, spec.SceneKind, log)
		}
		if err != nil {
			if cycle == c.attemptBudget {
				c.fail(ctx, job, errors.New(errors.KindExhausted, err.Error()), log)
				return
			}
			repairContext = err.Error()
			continue
		}

		artifactPath, err := c.render(runCtx, job, source, log)
		if err != nil {
			if cycle == c.attemptBudget {
				c.fail(ctx, job, errors.New(errors.KindExhausted, err.Error()), log)
				return
			}
			repairContext = err.Error()
			continue
		}

		objectKey, url, err := c.upload(runCtx, job, artifactPath, log)
		if err != nil {
			c.fail(ctx, job, err, log)
			return
		}

		c.persist(ctx, job, objectKey, url, log)
		return
	}
}

func (c *Coordinator) transition(ctx context.Context, job *domain.Job, state domain.State, log *zap.Logger) {
	job.State = state
	if err := c.jobs.UpdateJob(ctx, job); err != nil {
		log.Warn("failed to persist state transition", zap.String("state", string(state)), zap.Error(err))
	}
}

func (c *Coordinator) generateSpec(ctx context.Context, job *domain.Job, repairContext string, log *zap.Logger) (*domain.AnimationSpec, error) {
	c.transition(ctx, job, domain.StateLLMGenerating, log)

	spec, records, err := c.orchestrator.GenerateSpec(ctx, job.Prompt, repairContext)
	for i, rec := range records {
		c.logAttempt(ctx, job, domain.PhaseLLM, rec.Outcome, rec.ErrorKind, rec.ErrorMessage, "", "", job.Attempt+i+1)
	}
	job.Attempt += len(records)
	if err != nil {
		return nil, err
	}
	return spec, nil
}

func (c *Coordinator) synthesize(job *domain.Job, spec *domain.AnimationSpec, log *zap.Logger) (string, error) {
	c.transition(context.Background(), job, domain.StateSynthesizing, log)

	source, err := synth.Synthesize(spec)
	job.Attempt++
	if err != nil {
		c.logAttempt(context.Background(), job, domain.PhaseSynthesis, domain.OutcomeFailed, kindOf(err), err.Error(), "", "", job.Attempt)
		return "", err
	}
	c.logAttempt(context.Background(), job, domain.PhaseSynthesis, domain.OutcomeSourceOK, "", "", source, "", job.Attempt)
	return source, nil
}

func (c *Coordinator) validate(job *domain.Job, source string, sceneKind domain.SceneKind, log *zap.Logger) error {
	c.transition(context.Background(), job, domain.StateValidating, log)

	job.Attempt++
	if err := allowlist.Validate(source, sceneKind); err != nil {
		c.logAttempt(context.Background(), job, domain.PhaseValidation, domain.OutcomeFailed, kindOf(err), err.Error(), "", "", job.Attempt)
		return err
	}
	c.logAttempt(context.Background(), job, domain.PhaseValidation, domain.OutcomeValidated, "", "", "", "", job.Attempt)
	return nil
}

func (c *Coordinator) render(ctx context.Context, job *domain.Job, source string, log *zap.Logger) (string, error) {
	c.transition(ctx, job, domain.StateRendering, log)

	scope, err := c.sandbox.Acquire(job.JobID)
	if err != nil {
		return "", errors.New(errors.KindRenderFailed, err.Error())
	}
	defer scope.Release()

	sourceFile := filepath.Join(scope.Dir, "scene.py")
	if err := os.WriteFile(sourceFile, []byte(source), 0o644); err != nil {
		return "", errors.New(errors.KindRenderFailed, fmt.Sprintf("write source: %v", err))
	}

	job.Attempt++
	result, err := c.renderer.Render(ctx, scope, sourceFile, generatedSceneClass)
	if err != nil {
		c.logAttempt(ctx, job, domain.PhaseRender, domain.OutcomeFailed, kindOf(err), err.Error(), "", "", job.Attempt)
		return "", err
	}

	artifact := filepath.Join(scope.Dir, "artifact.mp4")
	if err := copyFile(result.ArtifactPath, artifact); err != nil {
		return "", errors.New(errors.KindNoOutputArtifact, err.Error())
	}
	c.logAttempt(ctx, job, domain.PhaseRender, domain.OutcomeRendered, "", "", "", "", job.Attempt)
	return artifact, nil
}

func (c *Coordinator) upload(ctx context.Context, job *domain.Job, artifactPath string, log *zap.Logger) (string, string, error) {
	c.transition(ctx, job, domain.StateUploading, log)

	objectKey, url, err := c.assets.Put(ctx, job.UserID, artifactPath, "video/mp4")
	if err != nil {
		return "", "", errors.New(errors.KindUploadFailed, err.Error())
	}
	return objectKey, url, nil
}

func (c *Coordinator) persist(ctx context.Context, job *domain.Job, objectKey, url string, log *zap.Logger) {
	c.transition(ctx, job, domain.StatePersisting, log)

	video, err := c.videos.GetVideo(ctx, job.UserID, job.VideoID)
	if err != nil {
		log.Error("failed to load video row for completion", zap.Error(err))
		c.fail(ctx, job, errors.New(errors.KindDBFailed, err.Error()), log)
		return
	}
	video.Status = domain.VideoCompleted
	video.ObjectKey = objectKey
	if err := c.videos.UpdateVideo(ctx, video); err != nil {
		log.Error("failed to persist completed video", zap.Error(err))
		c.fail(ctx, job, errors.New(errors.KindDBFailed, err.Error()), log)
		return
	}

	job.ResultURL = url
	c.transition(ctx, job, domain.StateCompleted, log)
	log.Info("job completed")
}

// fail records job as failed with the coarsened error (never raw stderr
// or raw model output, §7) and mirrors the failure onto the video row.
func (c *Coordinator) fail(ctx context.Context, job *domain.Job, err error, log *zap.Logger) {
	jerr, ok := err.(*errors.JobError)
	if !ok {
		jerr = errors.New(errors.KindRenderFailed, err.Error())
	}
	job.Error = jerr
	job.State = domain.StateFailed
	if updErr := c.jobs.UpdateJob(ctx, job); updErr != nil {
		log.Error("failed to persist failed job", zap.Error(updErr))
	}

	if video, vErr := c.videos.GetVideo(ctx, job.UserID, job.VideoID); vErr == nil {
		video.Status = domain.VideoFailed
		_ = c.videos.UpdateVideo(ctx, video)
	}

	log.Warn("job failed", zap.String("kind", string(jerr.Kind)), zap.String("message", jerr.Message))
}

func (c *Coordinator) logAttempt(ctx context.Context, job *domain.Job, phase domain.Phase, outcome domain.AttemptOutcome, kind errors.Kind, message, source, backend string, attemptNo int) {
	attempt := &domain.GenerationAttempt{
		VideoID:         job.VideoID,
		AttemptNo:       attemptNo,
		Backend:         backend,
		Phase:           phase,
		Outcome:         outcome,
		ErrorKind:       kind,
		ErrorMessage:    message,
		GeneratedSource: source,
		StartedAt:       time.Now().Unix(),
		EndedAt:         time.Now().Unix(),
	}
	if err := c.videos.LogAttempt(ctx, attempt); err != nil {
		c.logger.Warn("failed to log generation attempt", zap.String("job_id", job.JobID), zap.Error(err))
	}
}

func kindOf(err error) errors.Kind {
	if jerr, ok := err.(*errors.JobError); ok {
		return jerr.Kind
	}
	return errors.KindRenderFailed
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
