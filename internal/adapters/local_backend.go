package adapters

import (
	"go.uber.org/zap"
)

// LocalBackend is the fallback SpecBackend: a secondary hosted model with
// the same request/poll contract as ReplicateBackend but a different model
// identity, grounded on this codebase's LlamaAdapter (a second,
// cheaper/local Replicate-hosted model used as an alternate to GPT-4o).
// It is a thin specialization of ReplicateBackend rather than a separate
// transport, since §4.5 only requires "the same contract", not a distinct
// wire protocol.
type LocalBackend struct {
	*ReplicateBackend
}

// NewLocalBackend constructs the fallback backend against modelVersion.
func NewLocalBackend(apiToken, modelVersion string, logger *zap.Logger) *LocalBackend {
	return &LocalBackend{ReplicateBackend: NewReplicateBackend("local", apiToken, modelVersion, logger)}
}
