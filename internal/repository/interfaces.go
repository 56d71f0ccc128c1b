package repository

import (
	"context"
	"time"

	"github.com/animathic/backend/internal/domain"
)

// JobRepository persists Job rows, the Job Coordinator's single-writer
// state (§4.8, §4.9).
type JobRepository interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	UpdateJob(ctx context.Context, job *domain.Job) error
	DeleteJob(ctx context.Context, jobID string) error
	HealthCheck(ctx context.Context) error
}

// VideoRepository persists Video rows and append-only GenerationAttempt
// logs (§4.8). Every method is scoped by user_id; row-level isolation is
// enforced here, not merely at the HTTP layer (§4.8, §8 invariant 6).
type VideoRepository interface {
	CreateVideo(ctx context.Context, userID, prompt string) (*domain.Video, error)
	UpdateVideo(ctx context.Context, video *domain.Video) error
	GetVideo(ctx context.Context, userID, videoID string) (*domain.Video, error)
	ListVideos(ctx context.Context, userID string) ([]domain.Video, error)
	DeleteVideo(ctx context.Context, userID, videoID string) error
	LogAttempt(ctx context.Context, attempt *domain.GenerationAttempt) error
	HealthCheck(ctx context.Context) error
}

// AssetRepository is the Storage Adapter contract (§4.7): server-assigned
// keys, user-scoped authorization by key prefix.
type AssetRepository interface {
	Put(ctx context.Context, userID, localPath, contentType string) (objectKey, url string, err error)
	Delete(ctx context.Context, userID, objectKey string) error
	PresignedURL(ctx context.Context, userID, objectKey string, duration time.Duration) (string, error)
	HealthCheck(ctx context.Context) error
}

// ErrForbidden is returned by AssetRepository.Delete/PresignedURL when
// objectKey's prefix does not match userID (§4.7: "authorization is
// enforced by key prefix").
var ErrForbidden = newRepoError("forbidden: object key does not belong to user")

type repoError string

func (e repoError) Error() string { return string(e) }

func newRepoError(msg string) error { return repoError(msg) }

// ErrJobNotFound and ErrVideoNotFound are returned when the row does not
// exist, or (for row-scoped lookups) does not belong to the requesting user
// — the two collapse to the same not_found surface per §7.
var (
	ErrJobNotFound   = newRepoError("job not found")
	ErrVideoNotFound = newRepoError("video not found")
)
