package domain

import (
	"time"

	"github.com/animathic/backend/pkg/errors"
)

// State is one value of the job state machine (§4.9). Terminal states are
// Completed and Failed; every other state is reachable from queued via a
// strictly forward-or-retry transition driven exclusively by the Job
// Coordinator.
type State string

const (
	StateQueued        State = "queued"
	StateLLMGenerating State = "llm_generating"
	StateSynthesizing  State = "synthesizing"
	StateValidating    State = "validating"
	StateRendering     State = "rendering"
	StateUploading     State = "uploading"
	StatePersisting    State = "persisting"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

// IsTerminal reports whether s is an absorbing state.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Job is the single-writer record the Job Coordinator owns for the
// lifetime of a generation request (§3 "Job").
type Job struct {
	JobID  string `dynamodbav:"job_id" json:"job_id"`
	UserID string `dynamodbav:"user_id" json:"user_id"`
	Prompt string `dynamodbav:"prompt" json:"prompt"`

	State   State           `dynamodbav:"state" json:"state"`
	Attempt int             `dynamodbav:"attempt" json:"attempt"`
	Error   *errors.JobError `dynamodbav:"error,omitempty" json:"error,omitempty"`

	VideoID   string `dynamodbav:"video_id" json:"video_id"`
	ResultURL string `dynamodbav:"result_url,omitempty" json:"result_url,omitempty"`

	CreatedAt int64 `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt int64 `dynamodbav:"updated_at" json:"updated_at"`
	DeadlineAt int64 `dynamodbav:"deadline_at" json:"deadline_at"`
}

// Expired reports whether the job's end-to-end deadline (§5, default 5
// minutes) has passed as of now.
func (j *Job) Expired(now time.Time) bool {
	return j.DeadlineAt > 0 && now.Unix() > j.DeadlineAt
}

// AttemptOutcome is the terminal classification of one GenerationAttempt.
type AttemptOutcome string

const (
	OutcomeSpecOK    AttemptOutcome = "spec_ok"
	OutcomeMalformed AttemptOutcome = "malformed"
	OutcomeSourceOK  AttemptOutcome = "source_ok"
	OutcomeValidated AttemptOutcome = "validated"
	OutcomeRendered  AttemptOutcome = "rendered"
	OutcomeFailed    AttemptOutcome = "failed"
)

// Phase identifies which stage of the pipeline produced an attempt record.
type Phase string

const (
	PhaseLLM        Phase = "llm"
	PhaseSynthesis  Phase = "synthesis"
	PhaseValidation Phase = "validation"
	PhaseRender     Phase = "render"
)

// GenerationAttempt is one append-only row per pipeline stage run: each
// LLM call, spec check, synthesis, validation and render (§3). Attempts
// are persisted regardless of outcome and never mutated after creation.
type GenerationAttempt struct {
	VideoID   string `dynamodbav:"video_id" json:"video_id"`
	AttemptNo int    `dynamodbav:"attempt_no" json:"attempt_no"`

	Backend string         `dynamodbav:"backend,omitempty" json:"backend,omitempty"`
	Phase   Phase          `dynamodbav:"phase" json:"phase"`
	Outcome AttemptOutcome `dynamodbav:"outcome" json:"outcome"`

	ErrorKind    errors.Kind `dynamodbav:"error_kind,omitempty" json:"error_kind,omitempty"`
	ErrorMessage string      `dynamodbav:"error_message,omitempty" json:"error_message,omitempty"`

	GeneratedSource string `dynamodbav:"generated_source,omitempty" json:"generated_source,omitempty"`
	SpecHash        string `dynamodbav:"spec_hash,omitempty" json:"spec_hash,omitempty"`

	StartedAt int64 `dynamodbav:"started_at" json:"started_at"`
	EndedAt   int64 `dynamodbav:"ended_at,omitempty" json:"ended_at,omitempty"`
}
