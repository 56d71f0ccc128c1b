package coordinator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/animathic/backend/internal/adapters"
	"github.com/animathic/backend/internal/domain"
	"github.com/animathic/backend/internal/orchestrator"
	"github.com/animathic/backend/internal/renderer"
	"github.com/animathic/backend/internal/sandbox"
	"github.com/animathic/backend/pkg/errors"
)

type fakeBackend struct {
	spec *domain.AnimationSpec
	err  *adapters.BackendError
}

func (f *fakeBackend) Name() string { return "fake" }
func (f *fakeBackend) GenerateSpec(ctx context.Context, req adapters.Request) (*domain.AnimationSpec, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.spec, nil
}
func (f *fakeBackend) Health(ctx context.Context) (bool, int64) { return true, 0 }

type fakeJobRepo struct{ jobs map[string]*domain.Job }

func newFakeJobRepo() *fakeJobRepo { return &fakeJobRepo{jobs: map[string]*domain.Job{}} }
func (r *fakeJobRepo) CreateJob(ctx context.Context, job *domain.Job) error {
	r.jobs[job.JobID] = job
	return nil
}
func (r *fakeJobRepo) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return r.jobs[jobID], nil
}
func (r *fakeJobRepo) UpdateJob(ctx context.Context, job *domain.Job) error {
	r.jobs[job.JobID] = job
	return nil
}
func (r *fakeJobRepo) DeleteJob(ctx context.Context, jobID string) error {
	delete(r.jobs, jobID)
	return nil
}
func (r *fakeJobRepo) HealthCheck(ctx context.Context) error { return nil }

type fakeVideoRepo struct {
	videos   map[string]*domain.Video
	attempts []*domain.GenerationAttempt
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: map[string]*domain.Video{}}
}
func (r *fakeVideoRepo) CreateVideo(ctx context.Context, userID, prompt string) (*domain.Video, error) {
	v := &domain.Video{VideoID: "v1", UserID: userID, Prompt: prompt, Status: domain.VideoProcessing}
	r.videos[v.VideoID] = v
	return v, nil
}
func (r *fakeVideoRepo) UpdateVideo(ctx context.Context, video *domain.Video) error {
	r.videos[video.VideoID] = video
	return nil
}
func (r *fakeVideoRepo) GetVideo(ctx context.Context, userID, videoID string) (*domain.Video, error) {
	v, ok := r.videos[videoID]
	if !ok || v.UserID != userID {
		return nil, ErrNotFoundForTest
	}
	return v, nil
}
func (r *fakeVideoRepo) ListVideos(ctx context.Context, userID string) ([]domain.Video, error) {
	return nil, nil
}
func (r *fakeVideoRepo) DeleteVideo(ctx context.Context, userID, videoID string) error {
	delete(r.videos, videoID)
	return nil
}
func (r *fakeVideoRepo) LogAttempt(ctx context.Context, attempt *domain.GenerationAttempt) error {
	r.attempts = append(r.attempts, attempt)
	return nil
}
func (r *fakeVideoRepo) HealthCheck(ctx context.Context) error { return nil }

// ErrNotFoundForTest stands in for repository.ErrVideoNotFound without
// importing the repository package's sentinel (avoids an import cycle in
// this fake).
var ErrNotFoundForTest = &testErr{"video not found"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }

type fakeAssetRepo struct{ putErr error }

func (a *fakeAssetRepo) Put(ctx context.Context, userID, localPath, contentType string) (string, string, error) {
	if a.putErr != nil {
		return "", "", a.putErr
	}
	return userID + "/fake.mp4", "https://example.com/" + userID + "/fake.mp4", nil
}
func (a *fakeAssetRepo) Delete(ctx context.Context, userID, objectKey string) error { return nil }
func (a *fakeAssetRepo) PresignedURL(ctx context.Context, userID, objectKey string, d time.Duration) (string, error) {
	return "", nil
}
func (a *fakeAssetRepo) HealthCheck(ctx context.Context) error { return nil }

func fakeRenderTool(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "faketool.sh")
	script := "#!/bin/sh\noutdir=\"$4\"\nmkdir -p \"$outdir\"\ntouch \"$outdir/out.mp4\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func sampleSpec() *domain.AnimationSpec {
	return &domain.AnimationSpec{SceneKind: domain.SceneKind2D}
}

func newTestCoordinator(t *testing.T, backend adapters.SpecBackend) (*Coordinator, *fakeJobRepo, *fakeVideoRepo) {
	cfg := sandbox.DefaultConfig()
	cfg.BaseDir = t.TempDir()
	cfg.DisableLimits = true
	sb := sandbox.New(cfg, zap.NewNop())
	rd := renderer.New(fakeRenderTool(t), sb, zap.NewNop())
	orch := orchestrator.New(backend, nil, 3, zap.NewNop())
	jobs := newFakeJobRepo()
	videos := newFakeVideoRepo()
	assets := &fakeAssetRepo{}
	c := New(orch, sb, rd, jobs, videos, assets, 3, zap.NewNop())
	return c, jobs, videos
}

func TestRun_HappyPathReachesCompleted(t *testing.T) {
	backend := &fakeBackend{spec: sampleSpec()}
	c, jobs, videos := newTestCoordinator(t, backend)

	videos.videos["v1"] = &domain.Video{VideoID: "v1", UserID: "u1", Status: domain.VideoProcessing}
	job := &domain.Job{JobID: "j1", UserID: "u1", VideoID: "v1", Prompt: "a circle", State: domain.StateQueued}
	jobs.CreateJob(context.Background(), job)

	c.Run(context.Background(), job)

	require.Equal(t, domain.StateCompleted, job.State)
	require.NotEmpty(t, job.ResultURL)
	require.Equal(t, domain.VideoCompleted, videos.videos["v1"].Status)
	require.NotEmpty(t, videos.attempts)
}

func TestRun_LLMFailureMarksJobAndVideoFailed(t *testing.T) {
	backend := &fakeBackend{err: &adapters.BackendError{Kind: adapters.Refused, Message: "unsafe"}}
	c, jobs, videos := newTestCoordinator(t, backend)

	videos.videos["v1"] = &domain.Video{VideoID: "v1", UserID: "u1", Status: domain.VideoProcessing}
	job := &domain.Job{JobID: "j1", UserID: "u1", VideoID: "v1", Prompt: "a circle", State: domain.StateQueued}
	jobs.CreateJob(context.Background(), job)

	c.Run(context.Background(), job)

	require.Equal(t, domain.StateFailed, job.State)
	require.NotNil(t, job.Error)
	require.Equal(t, domain.VideoFailed, videos.videos["v1"].Status)
}

// TestRun_UnknownVocabularyFromSynthesisRetriesThenExhausts exercises §8
// scenario 3: a spec with an unknown vocabulary token refuses at synthesis;
// since the fake backend keeps returning the same bad spec regardless of
// repair context, the job retries through the full attempt budget and
// fails with kind=exhausted, not the raw synthesis error.
func TestRun_UnknownVocabularyFromSynthesisRetriesThenExhausts(t *testing.T) {
	badSpec := &domain.AnimationSpec{SceneKind: domain.SceneKind("nonsense")}
	backend := &fakeBackend{spec: badSpec}
	c, jobs, videos := newTestCoordinator(t, backend)

	videos.videos["v1"] = &domain.Video{VideoID: "v1", UserID: "u1", Status: domain.VideoProcessing}
	job := &domain.Job{JobID: "j1", UserID: "u1", VideoID: "v1", Prompt: "a circle", State: domain.StateQueued}
	jobs.CreateJob(context.Background(), job)

	c.Run(context.Background(), job)

	require.Equal(t, domain.StateFailed, job.State)
	require.Equal(t, errors.KindExhausted, job.Error.Kind)
	require.Equal(t, domain.VideoFailed, videos.videos["v1"].Status)

	var synthesisFailures int
	for _, a := range videos.attempts {
		if a.Phase == domain.PhaseSynthesis && a.Outcome == domain.OutcomeFailed {
			synthesisFailures++
		}
	}
	require.Equal(t, 3, synthesisFailures)
}

// TestRun_SchemaViolationRetriesThenExhausts covers the other boundary
// the spec names explicitly: a spec breaching a structural invariant (here,
// too many objects) is rejected with schema at the llm_generating ->
// synthesizing transition and retried through the budget before failing.
func TestRun_SchemaViolationRetriesThenExhausts(t *testing.T) {
	objects := make([]domain.ObjectDecl, domain.MaxObjects+1)
	for i := range objects {
		objects[i] = domain.ObjectDecl{ID: fmt.Sprintf("o%d", i), Kind: "Circle"}
	}
	oversizedSpec := &domain.AnimationSpec{SceneKind: domain.SceneKind2D, Objects: objects}
	backend := &fakeBackend{spec: oversizedSpec}
	c, jobs, videos := newTestCoordinator(t, backend)

	videos.videos["v1"] = &domain.Video{VideoID: "v1", UserID: "u1", Status: domain.VideoProcessing}
	job := &domain.Job{JobID: "j1", UserID: "u1", VideoID: "v1", Prompt: "a circle", State: domain.StateQueued}
	jobs.CreateJob(context.Background(), job)

	c.Run(context.Background(), job)

	require.Equal(t, domain.StateFailed, job.State)
	require.Equal(t, errors.KindExhausted, job.Error.Kind)
}

// TestRun_ValidationFailureRecoversOnRepair exercises the recovery path:
// the first spec fails the spec check (its step targets an undeclared
// object), and a second cycle's spec synthesizes to valid source, reaching
// completed within the attempt budget.
func TestRun_ValidationFailureRecoversOnRepair(t *testing.T) {
	badSpec := &domain.AnimationSpec{
		SceneKind: domain.SceneKind2D,
		Objects:   []domain.ObjectDecl{{ID: "c", Kind: "Circle"}},
		Steps:     []domain.StepDecl{{Action: "FadeIn", TargetIDs: []string{"missing"}, RunTime: 1.0}},
	}
	backend := &sequencedBackend{specs: []*domain.AnimationSpec{badSpec, sampleSpec()}}
	c, jobs, videos := newTestCoordinator(t, backend)

	videos.videos["v1"] = &domain.Video{VideoID: "v1", UserID: "u1", Status: domain.VideoProcessing}
	job := &domain.Job{JobID: "j1", UserID: "u1", VideoID: "v1", Prompt: "a circle", State: domain.StateQueued}
	jobs.CreateJob(context.Background(), job)

	c.Run(context.Background(), job)

	require.Equal(t, domain.StateCompleted, job.State)
	require.NotEmpty(t, videos.attempts)
}

// sequencedBackend returns one spec per call in order, letting a test
// simulate the LLM producing a repaired spec on a later retry cycle.
type sequencedBackend struct {
	specs []*domain.AnimationSpec
	calls int
}

func (f *sequencedBackend) Name() string { return "fake-sequenced" }
func (f *sequencedBackend) GenerateSpec(ctx context.Context, req adapters.Request) (*domain.AnimationSpec, error) {
	spec := f.specs[f.calls]
	if f.calls < len(f.specs)-1 {
		f.calls++
	}
	return spec, nil
}
func (f *sequencedBackend) Health(ctx context.Context) (bool, int64) { return true, 0 }
