package sandbox

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSandbox(t *testing.T, cfg Config) *Sandbox {
	t.Helper()
	if cfg.BaseDir == "" {
		cfg.BaseDir = t.TempDir()
	}
	return New(cfg, zap.NewNop())
}

func TestAcquireRelease_CreatesAndRemovesDir(t *testing.T) {
	s := testSandbox(t, DefaultConfig())
	scope, err := s.Acquire("job-1")
	require.NoError(t, err)
	require.DirExists(t, scope.Dir)

	scope.Release()
	require.NoDirExists(t, scope.Dir)
}

func TestRelease_IsIdempotent(t *testing.T) {
	s := testSandbox(t, DefaultConfig())
	scope, err := s.Acquire("job-2")
	require.NoError(t, err)
	scope.Release()
	require.NotPanics(t, func() { scope.Release() })
}

func TestRun_DisableLimitsBypassesUlimitWrapper(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableLimits = true
	s := testSandbox(t, cfg)
	scope, err := s.Acquire("job-3")
	require.NoError(t, err)
	defer scope.Release()

	var stdout bytes.Buffer
	_, err = s.Run(context.Background(), scope, "echo", []string{"hello"}, &stdout)
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "hello")
}

func TestRun_WallClockTimeoutKillsSubprocess(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisableLimits = true
	cfg.WallTimeoutS = 1
	s := testSandbox(t, cfg)
	scope, err := s.Acquire("job-4")
	require.NoError(t, err)
	defer scope.Release()

	var stdout bytes.Buffer
	start := time.Now()
	result, err := s.Run(context.Background(), scope, "sleep", []string{"30"}, &stdout)
	elapsed := time.Since(start)

	require.Error(t, err)
	require.True(t, result.TimedOut)
	require.Less(t, elapsed, 10*time.Second)
}

func TestRun_EmitsWarningMarkerNeverLeaksIntoStderrTail(t *testing.T) {
	stderr := limitWarnMemMarker + "\nreal error output\n" + limitWarnCPUMarker
	rest, warnedMem, warnedCPU := extractLimitWarnings(stderr)
	require.True(t, warnedMem)
	require.True(t, warnedCPU)
	require.Contains(t, rest, "real error output")
	require.NotContains(t, rest, limitWarnMemMarker)
}
