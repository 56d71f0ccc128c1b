package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/animathic/backend/internal/domain"
)

func TestGetStatus_ReturnsJobState(t *testing.T) {
	jobs := newFakeJobRepo()
	job := &domain.Job{JobID: "job-1", UserID: "user-1", State: domain.StateRendering, Attempt: 2}
	jobs.jobs[job.JobID] = job

	h := NewStatusHandler(jobs, zap.NewNop())

	w, c := newTestContext(http.MethodGet, "/api/status/job-1", nil, "user-1")
	c.Params = append(c.Params, gin.Param{Key: "job_id", Value: "job-1"})
	h.GetStatus(c)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetStatus_MissingJobReturnsNotFound(t *testing.T) {
	jobs := newFakeJobRepo()
	h := NewStatusHandler(jobs, zap.NewNop())

	w, c := newTestContext(http.MethodGet, "/api/status/missing", nil, "user-1")
	c.Params = append(c.Params, gin.Param{Key: "job_id", Value: "missing"})
	h.GetStatus(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStatus_OtherUsersJobReturnsNotFound(t *testing.T) {
	jobs := newFakeJobRepo()
	job := &domain.Job{JobID: "job-1", UserID: "user-1", State: domain.StateCompleted}
	jobs.jobs[job.JobID] = job

	h := NewStatusHandler(jobs, zap.NewNop())

	w, c := newTestContext(http.MethodGet, "/api/status/job-1", nil, "user-2")
	c.Params = append(c.Params, gin.Param{Key: "job_id", Value: "job-1"})
	h.GetStatus(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
