// Package adapters implements the LLM Backend Abstraction (C5): a
// polymorphic SpecBackend over hosted and local/secondary structured-output
// models, grounded on this codebase's Replicate-backed script generators
// (GPT4oAdapter, LlamaAdapter) reshaped to produce AnimationSpec JSON
// instead of ad-script JSON.
package adapters

import (
	"context"
	"fmt"

	"github.com/animathic/backend/internal/domain"
)

// BackendErrorKind is the typed failure taxonomy a SpecBackend surfaces
// (§4.5) — distinct from the job-level error kinds in pkg/errors: the
// orchestrator (C6) consumes this to decide fallback/repair policy before
// ever coarsening to a persisted error_kind.
type BackendErrorKind string

const (
	Unavailable BackendErrorKind = "unavailable"
	Timeout     BackendErrorKind = "timeout"
	Malformed   BackendErrorKind = "malformed_output"
	Refused     BackendErrorKind = "refused"
	RateLimited BackendErrorKind = "rate_limited"
)

// BackendError is the typed error every SpecBackend returns on failure.
type BackendError struct {
	Kind    BackendErrorKind
	Message string
}

func (e *BackendError) Error() string { return string(e.Kind) + ": " + e.Message }

func newBackendError(kind BackendErrorKind, format string, args ...interface{}) *BackendError {
	return &BackendError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Request carries the generation call's inputs. RepairContext, when
// non-empty, is a diagnostic appended to the same prompt: either the prior
// synthesis/validation/render failure the coordinator passes in, or the
// malformed-output error message of the previous call on a bounded repair
// re-issue (§4.6 step 2).
type Request struct {
	Prompt        string
	RepairContext string
}

// SpecBackend is the capability set {generate_spec, health} every model
// backend implements identically, so the orchestrator can swap backends
// without type assertions (§4.5).
type SpecBackend interface {
	Name() string
	GenerateSpec(ctx context.Context, req Request) (*domain.AnimationSpec, error)
	Health(ctx context.Context) (ok bool, latencyMS int64)
}
