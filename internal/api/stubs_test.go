package api

import (
	"context"
	"time"

	"github.com/animathic/backend/internal/domain"
)

type stubJobRepo struct{}

func (s *stubJobRepo) CreateJob(ctx context.Context, job *domain.Job) error { return nil }
func (s *stubJobRepo) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return &domain.Job{JobID: jobID}, nil
}
func (s *stubJobRepo) UpdateJob(ctx context.Context, job *domain.Job) error { return nil }
func (s *stubJobRepo) DeleteJob(ctx context.Context, jobID string) error   { return nil }
func (s *stubJobRepo) HealthCheck(ctx context.Context) error               { return nil }

type stubVideoRepo struct{}

func (s *stubVideoRepo) CreateVideo(ctx context.Context, userID, prompt string) (*domain.Video, error) {
	return &domain.Video{VideoID: "video-1", UserID: userID, Prompt: prompt}, nil
}
func (s *stubVideoRepo) UpdateVideo(ctx context.Context, video *domain.Video) error { return nil }
func (s *stubVideoRepo) GetVideo(ctx context.Context, userID, videoID string) (*domain.Video, error) {
	return &domain.Video{VideoID: videoID, UserID: userID}, nil
}
func (s *stubVideoRepo) ListVideos(ctx context.Context, userID string) ([]domain.Video, error) {
	return nil, nil
}
func (s *stubVideoRepo) DeleteVideo(ctx context.Context, userID, videoID string) error { return nil }
func (s *stubVideoRepo) LogAttempt(ctx context.Context, attempt *domain.GenerationAttempt) error {
	return nil
}
func (s *stubVideoRepo) HealthCheck(ctx context.Context) error { return nil }

type stubAssetRepo struct{}

func (s *stubAssetRepo) Put(ctx context.Context, userID, localPath, contentType string) (string, string, error) {
	return "", "", nil
}
func (s *stubAssetRepo) Delete(ctx context.Context, userID, objectKey string) error { return nil }
func (s *stubAssetRepo) PresignedURL(ctx context.Context, userID, objectKey string, duration time.Duration) (string, error) {
	return "https://example.com/" + objectKey, nil
}
func (s *stubAssetRepo) HealthCheck(ctx context.Context) error { return nil }
