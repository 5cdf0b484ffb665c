package nativedeps

import (
	"os"
	"os/exec"
	"strings"
)

// NativeBuildStep is one invocation of a delegated build tool. Every shell
// out in the package goes through Run so logging, dry-run handling and
// output validation behave identically for autotools, gyp, ninja and the
// archive tools.
type NativeBuildStep struct {
	Command string
	Args    []string
	Dir     string

	// Env entries are appended to the inherited environment. Toolchain
	// configuration arrives here, never via the orchestrator's own
	// process environment.
	Env []string

	// ExpectedOutputs are paths that must exist after a successful run.
	// A tool that exits zero without producing them is still a failure.
	ExpectedOutputs []string
}

// Run executes the step, streaming nothing and capturing combined output.
// On a non-zero exit it returns a BuildToolError carrying the tool's exit
// code and the output tail; the caller must not run any install step after
// that.
func (s *NativeBuildStep) Run(bctx *BuildContext) error {
	logger := bctx.Logger.With().
		Str("tool", s.Command).
		Str("dir", s.Dir).
		Logger()

	if bctx.DryRun {
		logger.Info().Strs("args", s.Args).Msg("dry-run: skipping")
		return nil
	}
	logger.Debug().Strs("args", s.Args).Msg("exec")

	cmd := exec.Command(s.Command, s.Args...)
	cmd.Dir = s.Dir
	cmd.Env = append(os.Environ(), s.Env...)

	output, err := cmd.CombinedOutput()
	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")
	if err != nil {
		exitCode := 1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		logger.Error().Int("exit", exitCode).Msg("build tool failed")
		return &BuildToolError{
			Tool:     s.Command,
			ExitCode: exitCode,
			Output:   outputTail(lines, 50),
			Err:      err,
		}
	}

	for _, expected := range s.ExpectedOutputs {
		if _, err := os.Stat(expected); err != nil {
			logger.Error().Str("missing", expected).Msg("expected output not produced")
			return &BuildToolError{
				Tool:     s.Command,
				ExitCode: 1,
				Output:   append(outputTail(lines, 20), "missing expected output: "+expected),
			}
		}
	}
	return nil
}

// RunAll runs steps in order, stopping at the first failure.
func RunAll(bctx *BuildContext, steps ...*NativeBuildStep) error {
	for _, step := range steps {
		if err := step.Run(bctx); err != nil {
			return err
		}
	}
	return nil
}
