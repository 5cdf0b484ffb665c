package nativedeps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStepDryRunSkipsExecution(t *testing.T) {
	bctx := testBuildContext(t)
	bctx.DryRun = true

	step := &NativeBuildStep{Command: "definitely-not-an-installed-tool"}
	if err := step.Run(bctx); err != nil {
		t.Errorf("Run() in dry-run mode: %v", err)
	}
}

func TestStepCapturesExitCode(t *testing.T) {
	bctx := testBuildContext(t)

	step := &NativeBuildStep{
		Command: "sh",
		Args:    []string{"-c", "echo compiling; echo oops >&2; exit 7"},
		Dir:     t.TempDir(),
	}
	err := step.Run(bctx)
	var toolErr *BuildToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Run() error = %v, want BuildToolError", err)
	}
	if toolErr.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", toolErr.ExitCode)
	}
	if !containsFlag(toolErr.Output, "oops") {
		t.Errorf("Output = %v, want captured stderr", toolErr.Output)
	}
}

func TestStepEnvReachesTool(t *testing.T) {
	bctx := testBuildContext(t)
	marker := filepath.Join(t.TempDir(), "saw-env")

	step := &NativeBuildStep{
		Command: "sh",
		Args:    []string{"-c", `test "$CC" = my-cc && touch "$MARKER"`},
		Env:     []string{"CC=my-cc", "MARKER=" + marker},
	}
	if err := step.Run(bctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Error("tool did not see the step environment")
	}
}

func TestStepMissingExpectedOutput(t *testing.T) {
	bctx := testBuildContext(t)
	dir := t.TempDir()

	step := &NativeBuildStep{
		Command:         "true",
		Dir:             dir,
		ExpectedOutputs: []string{filepath.Join(dir, "never-produced.a")},
	}
	err := step.Run(bctx)
	var toolErr *BuildToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Run() error = %v, want BuildToolError for missing output", err)
	}
}

func TestStepExpectedOutputPresent(t *testing.T) {
	bctx := testBuildContext(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "lib.a")

	step := &NativeBuildStep{
		Command:         "sh",
		Args:            []string{"-c", "touch " + out},
		Dir:             dir,
		ExpectedOutputs: []string{out},
	}
	if err := step.Run(bctx); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestRunAllStopsAtFirstFailure(t *testing.T) {
	bctx := testBuildContext(t)
	marker := filepath.Join(t.TempDir(), "must-not-exist")

	err := RunAll(bctx,
		&NativeBuildStep{Command: "sh", Args: []string{"-c", "exit 3"}},
		&NativeBuildStep{Command: "touch", Args: []string{marker}},
	)
	var toolErr *BuildToolError
	if !errors.As(err, &toolErr) || toolErr.ExitCode != 3 {
		t.Fatalf("RunAll() error = %v, want exit 3", err)
	}
	if _, statErr := os.Stat(marker); statErr == nil {
		t.Error("second step ran after the first failed")
	}
}
