package handlers

import (
	"context"
	"time"

	"github.com/animathic/backend/internal/domain"
	"github.com/animathic/backend/internal/repository"
)

type fakeJobRepo struct {
	jobs      map[string]*domain.Job
	createErr error
	getErr    error
	healthErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*domain.Job)}
}

func (f *fakeJobRepo) CreateJob(ctx context.Context, job *domain.Job) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.jobs[job.JobID] = job
	return nil
}

func (f *fakeJobRepo) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeJobRepo) UpdateJob(ctx context.Context, job *domain.Job) error {
	f.jobs[job.JobID] = job
	return nil
}

func (f *fakeJobRepo) DeleteJob(ctx context.Context, jobID string) error {
	delete(f.jobs, jobID)
	return nil
}

func (f *fakeJobRepo) HealthCheck(ctx context.Context) error { return f.healthErr }

type fakeVideoRepo struct {
	videos    map[string]*domain.Video
	createErr error
	deleteErr error
	nextSeq   int
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: make(map[string]*domain.Video)}
}

func (f *fakeVideoRepo) CreateVideo(ctx context.Context, userID, prompt string) (*domain.Video, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextSeq++
	now := time.Now().Unix()
	v := &domain.Video{
		VideoID:   "video-" + string(rune('a'+f.nextSeq)),
		UserID:    userID,
		Prompt:    prompt,
		Status:    domain.VideoProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.videos[v.VideoID] = v
	return v, nil
}

func (f *fakeVideoRepo) UpdateVideo(ctx context.Context, video *domain.Video) error {
	f.videos[video.VideoID] = video
	return nil
}

func (f *fakeVideoRepo) GetVideo(ctx context.Context, userID, videoID string) (*domain.Video, error) {
	v, ok := f.videos[videoID]
	if !ok || v.UserID != userID {
		return nil, repository.ErrVideoNotFound
	}
	return v, nil
}

func (f *fakeVideoRepo) ListVideos(ctx context.Context, userID string) ([]domain.Video, error) {
	var out []domain.Video
	for _, v := range f.videos {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVideoRepo) DeleteVideo(ctx context.Context, userID, videoID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	v, ok := f.videos[videoID]
	if !ok || v.UserID != userID {
		return repository.ErrVideoNotFound
	}
	delete(f.videos, videoID)
	return nil
}

func (f *fakeVideoRepo) LogAttempt(ctx context.Context, attempt *domain.GenerationAttempt) error {
	return nil
}

func (f *fakeVideoRepo) HealthCheck(ctx context.Context) error { return nil }

type fakeAssetRepo struct {
	deleteErr     error
	presignErr    error
	presignedURLs map[string]string
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{presignedURLs: make(map[string]string)}
}

func (f *fakeAssetRepo) Put(ctx context.Context, userID, localPath, contentType string) (string, string, error) {
	return "", "", nil
}

func (f *fakeAssetRepo) Delete(ctx context.Context, userID, objectKey string) error {
	return f.deleteErr
}

func (f *fakeAssetRepo) PresignedURL(ctx context.Context, userID, objectKey string, duration time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	if url, ok := f.presignedURLs[objectKey]; ok {
		return url, nil
	}
	return "https://assets.example.com/" + objectKey, nil
}

func (f *fakeAssetRepo) HealthCheck(ctx context.Context) error { return nil }
