package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	env := map[string]string{
		"AWS_REGION":        "us-east-1",
		"STORAGE_BUCKET":    "animathic-videos",
		"JOB_TABLE":         "animathic-jobs",
		"VIDEO_TABLE":       "animathic-videos",
		"GENERATION_LOGS_TABLE": "animathic-generation-logs",
		"JWT_ISSUER":        "https://issuer.example.com",
		"LLM_MODEL_VERSION": "owner/model:abcdef",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 3, cfg.LLMAttemptBudget)
	require.Equal(t, 300, cfg.JobDeadlineS)
	require.Equal(t, 1024, cfg.SandboxMemoryMiB)
	require.Equal(t, 4, cfg.WorkerConcurrency)
	require.Equal(t, 16, cfg.QueueMax)
	require.NotEmpty(t, cfg.SandboxBaseDir)
}

func TestLoad_OverridesFromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_ATTEMPT_BUDGET", "5")
	t.Setenv("SANDBOX_DISABLE_LIMITS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.LLMAttemptBudget)
	require.True(t, cfg.SandboxDisableLimits)
}

func TestLoad_MissingRequiredFieldErrors(t *testing.T) {
	os.Clearenv()
	_, err := Load()
	require.Error(t, err)
}
