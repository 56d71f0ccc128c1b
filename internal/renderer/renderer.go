// Package renderer implements the Renderer Adapter (C3): it invokes the
// external animation tool as a sandboxed subprocess with the fixed §6
// argument shape and scans its output subtree for the newest artifact.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/animathic/backend/internal/sandbox"
	"github.com/animathic/backend/pkg/errors"
)

const (
	outputFormat     = "mp4"
	outputResolution = "1280,720"
	outputQuality    = "medium"
)

// Adapter invokes the external rendering tool inside a Sandbox scope.
type Adapter struct {
	toolPath string
	sandbox  *sandbox.Sandbox
	logger   *zap.Logger
}

// New constructs an Adapter. toolPath is the executable's absolute path or
// a name resolvable via PATH (checked at startup with exec.LookPath,
// following the teacher's ffmpeg dependency check).
func New(toolPath string, sb *sandbox.Sandbox, logger *zap.Logger) *Adapter {
	return &Adapter{toolPath: toolPath, sandbox: sb, logger: logger}
}

// Result carries the located output artifact.
type Result struct {
	ArtifactPath string
}

// Render runs the tool against sourceFile inside scope, producing
// sceneClassName, and returns the path to the newest rendered artifact.
func (a *Adapter) Render(ctx context.Context, scope *sandbox.Scope, sourceFile, sceneClassName string) (*Result, error) {
	outputDir := filepath.Join(scope.Dir, "output")

	args := []string{
		sourceFile,
		sceneClassName,
		"-o", outputDir,
		"--format", outputFormat,
		"--resolution", outputResolution,
		"--quality", outputQuality,
		"--disable_caching",
	}

	var stdout bytes.Buffer
	runResult, err := a.sandbox.Run(ctx, scope, a.toolPath, args, &stdout)
	if err != nil {
		return nil, classifyRunError(err, runResult)
	}

	artifact, err := newestArtifact(outputDir)
	if err != nil {
		return nil, errors.New(errors.KindNoOutputArtifact, err.Error())
	}
	return &Result{ArtifactPath: artifact}, nil
}

func classifyRunError(err error, result *sandbox.RunResult) error {
	tail := ""
	if result != nil {
		tail = result.StderrTail
	}
	if result != nil && result.TimedOut {
		return errors.New(errors.KindRenderTimeout, fmt.Sprintf("renderer exceeded wall-clock timeout; stderr tail: %s", tail))
	}
	var exitErr *exec.ExitError
	if asExitError(err, &exitErr) {
		return errors.New(errors.KindRenderFailed, fmt.Sprintf("renderer exited %d: %s", exitErr.ExitCode(), tail))
	}
	return errors.New(errors.KindRenderFailed, fmt.Sprintf("renderer failed: %v; stderr tail: %s", err, tail))
}

func asExitError(err error, target **exec.ExitError) bool {
	exitErr, ok := err.(*exec.ExitError)
	if ok {
		*target = exitErr
	}
	return ok
}

// newestArtifact walks dir for the most recently modified file with the
// output extension (§6: "<output_dir>/videos/<scene>/<quality>/*.mp4").
func newestArtifact(dir string) (string, error) {
	var (
		newestPath string
		newestMod  time.Time
	)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != "."+outputFormat {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		if info.ModTime().After(newestMod) {
			newestMod = info.ModTime()
			newestPath = path
		}
		return nil
	})
	if err != nil || newestPath == "" {
		return "", fmt.Errorf("no .%s artifact found under %s", outputFormat, dir)
	}
	return newestPath, nil
}
