// Package orchestrator implements the LLM Orchestrator (C6): the policy
// layer across SpecBackend variants — primary/fallback selection, bounded
// repair retries, and the global attempt budget.
package orchestrator

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/animathic/backend/internal/adapters"
	"github.com/animathic/backend/internal/domain"
	"github.com/animathic/backend/pkg/errors"
)

const defaultAttemptBudget = 3
const maxRepairAttempts = 2

// Orchestrator drives primary/fallback selection and repair across calls to
// SpecBackend (§4.6).
type Orchestrator struct {
	primary       adapters.SpecBackend
	fallback      adapters.SpecBackend
	attemptBudget int
	logger        *zap.Logger
}

// New constructs an Orchestrator. attemptBudget <= 0 defaults to 3 (§4.6,
// §6 "llm_attempt_budget=3").
func New(primary, fallback adapters.SpecBackend, attemptBudget int, logger *zap.Logger) *Orchestrator {
	if attemptBudget <= 0 {
		attemptBudget = defaultAttemptBudget
	}
	return &Orchestrator{primary: primary, fallback: fallback, attemptBudget: attemptBudget, logger: logger}
}

// CallRecord is one backend call's outcome, suitable for persisting as a
// GenerationAttempt row (§4.9: "Log attempt with backend and spec hash").
type CallRecord struct {
	Backend      string
	Outcome      domain.AttemptOutcome
	ErrorKind    errors.Kind
	ErrorMessage string
}

// GenerateSpec runs the primary/fallback/repair policy against prompt and
// returns the first valid AnimationSpec along with every call made, or a
// *errors.JobError describing the terminal failure. externalRepairContext
// carries a diagnostic from a prior synthesis/validation/render failure in
// the same job (§4.9 "feed validator diagnostics back into C6 as repair
// context"); pass "" on a job's first call.
func (o *Orchestrator) GenerateSpec(ctx context.Context, prompt, externalRepairContext string) (*domain.AnimationSpec, []CallRecord, error) {
	backend := o.primary
	repairContext := externalRepairContext
	repairsUsed := 0
	var records []CallRecord
	var lastMessage string

	for attempt := 1; attempt <= o.attemptBudget; attempt++ {
		spec, err := backend.GenerateSpec(ctx, adapters.Request{Prompt: prompt, RepairContext: repairContext})
		if err == nil {
			records = append(records, CallRecord{Backend: backend.Name(), Outcome: domain.OutcomeSpecOK})
			return spec, records, nil
		}

		berr, ok := err.(*adapters.BackendError)
		if !ok {
			berr = &adapters.BackendError{Kind: adapters.Unavailable, Message: err.Error()}
		}
		redacted := RedactSecrets(berr.Message)
		lastMessage = redacted

		switch berr.Kind {
		case adapters.Refused:
			records = append(records, CallRecord{
				Backend: backend.Name(), Outcome: domain.OutcomeFailed,
				ErrorKind: errors.KindLLMRefused, ErrorMessage: redacted,
			})
			// §4.6 step 3: surface immediately, never launder a refusal by
			// switching backends.
			return nil, records, errors.New(errors.KindLLMRefused, redacted)

		case adapters.Malformed:
			records = append(records, CallRecord{
				Backend: backend.Name(), Outcome: domain.OutcomeMalformed,
				ErrorKind: errors.KindLLMMalformed, ErrorMessage: redacted,
			})
			if repairsUsed >= maxRepairAttempts {
				// Repair budget exhausted on this backend; fall through to
				// the attempt-budget loop (no further repair, no fallback
				// switch implied by malformed output alone).
				continue
			}
			repairsUsed++
			repairContext = berr.Message

		case adapters.Unavailable, adapters.Timeout, adapters.RateLimited:
			records = append(records, CallRecord{
				Backend: backend.Name(), Outcome: domain.OutcomeFailed,
				ErrorKind: errors.KindLLMUnavailable, ErrorMessage: redacted,
			})
			if backend == o.primary && o.fallback != nil {
				backend = o.fallback
				repairContext = ""
				repairsUsed = 0
			}

		default:
			records = append(records, CallRecord{
				Backend: backend.Name(), Outcome: domain.OutcomeFailed,
				ErrorKind: errors.KindLLMUnavailable, ErrorMessage: redacted,
			})
		}
	}

	return nil, records, errors.New(errors.KindLLMExhausted, lastMessage)
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`[Bb]earer\s+[A-Za-z0-9._-]+`),
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password)\s*[:=]\s*\S+`),
}

// RedactSecrets scrubs secret-looking tokens from text before it is logged
// or persisted (§4.6: "responsible for redacting prompts/logs of any
// secret-looking tokens before persistence"). GenerateSpec applies it to
// every backend error message it records in a CallRecord or returns in a
// JobError; the prompt and repair context sent to backends are not redacted.
func RedactSecrets(text string) string {
	out := text
	for _, pattern := range secretPatterns {
		out = pattern.ReplaceAllString(out, "[redacted]")
	}
	return out
}
