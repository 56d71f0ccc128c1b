// Package sandbox implements the Resource Sandbox (C2): scoped acquisition
// of an isolated working directory and OS-level resource caps on a
// subprocess, with guaranteed release on every exit path. The process-group
// signal/kill pattern is grounded on this codebase's own subprocess runner
// (internal/infra/external/subprocess); OS rlimits have no precedent
// elsewhere in this codebase and are a deliberate syscall/os-exec-only
// addition (see DESIGN.md).
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Config carries the §4.2 recognized sandbox options.
type Config struct {
	BaseDir       string
	MemoryMiB     int
	WallTimeoutS  int
	CPUTimeoutS   int
	DisableLimits bool
}

// DefaultConfig matches the §4.2 defaults.
func DefaultConfig() Config {
	return Config{
		BaseDir:       os.TempDir(),
		MemoryMiB:     1024,
		WallTimeoutS:  120,
		CPUTimeoutS:   90,
		DisableLimits: false,
	}
}

// Sandbox grants per-job working directories under a fixed base.
type Sandbox struct {
	cfg    Config
	logger *zap.Logger
}

// New constructs a Sandbox bound to cfg.
func New(cfg Config, logger *zap.Logger) *Sandbox {
	return &Sandbox{cfg: cfg, logger: logger}
}

// Scope is the per-job working directory. Release MUST be called on every
// exit path; it is safe to call more than once.
type Scope struct {
	Dir     string
	sandbox *Sandbox
	jobID   string
}

// Acquire creates a fresh working directory for jobID under the sandbox's
// base directory. Callers must `defer scope.Release()` immediately.
func (s *Sandbox) Acquire(jobID string) (*Scope, error) {
	if err := os.MkdirAll(s.cfg.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: create base dir: %w", err)
	}
	dir, err := os.MkdirTemp(s.cfg.BaseDir, "job-"+sanitizeDirComponent(jobID)+"-")
	if err != nil {
		return nil, fmt.Errorf("sandbox: create working dir: %w", err)
	}
	return &Scope{Dir: dir, sandbox: s, jobID: jobID}, nil
}

// Release recursively removes the scope's working directory. Safe to call
// multiple times; errors are logged, never returned, since release happens
// on every exit path including forced termination.
func (sc *Scope) Release() {
	if sc == nil || sc.Dir == "" {
		return
	}
	if err := os.RemoveAll(sc.Dir); err != nil && sc.sandbox.logger != nil {
		sc.sandbox.logger.Warn("sandbox: failed to remove working directory",
			zap.String("job_id", sc.jobID), zap.String("dir", sc.Dir), zap.Error(err))
	}
	sc.Dir = ""
}

// RunResult carries a bounded capture of a sandboxed subprocess run.
type RunResult struct {
	StderrTail string
	TimedOut   bool
}

const stderrTailBytes = 4 * 1024

var ansiRe = regexp.MustCompile("\x1b\\[[0-9;]*[a-zA-Z]")

// limitWarnMemMarker and limitWarnCPUMarker are emitted on stderr by the
// ulimit wrapper when the host refuses a requested cap (§4.2: "the sandbox
// logs a warning and proceeds without that cap rather than failing the
// job"); they are stripped from the returned stderr tail.
const (
	limitWarnMemMarker = "__SANDBOX_LIMIT_WARN_MEM__"
	limitWarnCPUMarker = "__SANDBOX_LIMIT_WARN_CPU__"
)

// Run executes name with args inside scope's working directory, bounded by
// the sandbox's wall-clock deadline (an independent context.WithTimeout
// layered under ctx, per §5 "defense in depth") and, unless DisableLimits,
// OS address-space and CPU-time caps applied via a ulimit(1) wrapper — Go's
// os/exec has no direct hook to set rlimits in the child before exec.
func (s *Sandbox) Run(ctx context.Context, scope *Scope, name string, args []string, stdout *bytes.Buffer) (*RunResult, error) {
	wallTimeout := time.Duration(s.cfg.WallTimeoutS) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, wallTimeout)
	defer cancel()

	cmd := s.buildCommand(runCtx, scope.Dir, name, args)

	var stderrBuf bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderrBuf
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("sandbox: start subprocess: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-done:
	case <-runCtx.Done():
		timedOut = true
		s.killGroup(cmd)
		select {
		case waitErr = <-done:
		case <-time.After(5 * time.Second):
			s.killGroup(cmd)
			waitErr = <-done
		}
	}

	tail, warnedMem, warnedCPU := extractLimitWarnings(stderrBuf.String())
	if warnedMem {
		s.logger.Warn("sandbox: host refused memory cap, proceeding without it",
			zap.Int("memory_mib", s.cfg.MemoryMiB))
	}
	if warnedCPU {
		s.logger.Warn("sandbox: host refused CPU cap, proceeding without it",
			zap.Int("cpu_timeout_s", s.cfg.CPUTimeoutS))
	}

	result := &RunResult{StderrTail: tailN(stripANSI(tail), stderrTailBytes), TimedOut: timedOut}
	if timedOut {
		return result, context.DeadlineExceeded
	}
	return result, waitErr
}

func (s *Sandbox) killGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		pgid = cmd.Process.Pid
	}
	_ = syscall.Kill(-pgid, syscall.SIGTERM)
	time.AfterFunc(2*time.Second, func() {
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	})
}

func (s *Sandbox) buildCommand(ctx context.Context, dir, name string, args []string) *exec.Cmd {
	if s.cfg.DisableLimits {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Dir = dir
		return cmd
	}

	script := buildUlimitScript(s.cfg.MemoryMiB, s.cfg.CPUTimeoutS, name, args)
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Dir = dir
	return cmd
}

// buildUlimitScript wraps the target command in a subshell that applies
// soft address-space and CPU-time limits via ulimit(1), scoped to the
// subshell and its descendants only, and emits a marker on stderr when a
// cap is rejected by the host rather than aborting.
func buildUlimitScript(memoryMiB, cpuTimeoutS int, name string, args []string) string {
	memKB := memoryMiB * 1024
	var b strings.Builder
	fmt.Fprintf(&b, "ulimit -v %d 2>/dev/null || echo %s 1>&2; ", memKB, limitWarnMemMarker)
	fmt.Fprintf(&b, "ulimit -t %d 2>/dev/null || echo %s 1>&2; ", cpuTimeoutS, limitWarnCPUMarker)
	b.WriteString("exec ")
	b.WriteString(shQuote(name))
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(shQuote(a))
	}
	return b.String()
}

func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func extractLimitWarnings(stderr string) (rest string, warnedMem, warnedCPU bool) {
	lines := strings.Split(stderr, "\n")
	kept := lines[:0]
	for _, line := range lines {
		switch strings.TrimSpace(line) {
		case limitWarnMemMarker:
			warnedMem = true
		case limitWarnCPUMarker:
			warnedCPU = true
		default:
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), warnedMem, warnedCPU
}

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func tailN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

var unsafeDirComponent = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func sanitizeDirComponent(s string) string {
	s = unsafeDirComponent.ReplaceAllString(s, "_")
	if len(s) > 40 {
		s = s[:40]
	}
	if s == "" {
		s = strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return s
}
