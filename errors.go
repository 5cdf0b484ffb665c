package nativedeps

import (
	"fmt"
	"strings"
)

// Exit codes used by the CLI. Anything else is an exit code propagated
// unchanged from a delegated native build tool.
const (
	ExitOK        = 0
	ExitUsage     = 1
	ExitIntegrity = 2
)

// ConfigurationError reports an unsupported target or a missing host
// requirement (no NDK, no SDK, missing cross toolchain). It is fatal and
// requires an environment fix; there is no fallback target and no retry.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedTargetError reports a (platform, arch) pair that is not in the
// target catalog.
type UnsupportedTargetError struct {
	Platform Platform
	Arch     Arch
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported target: %s/%s", e.Platform, e.Arch)
}

// IntegrityError reports a SHA-256 mismatch on a fetched source tarball.
// The fetch layer returns it before extraction, so a corrupted or tampered
// download can never reach a build step. Maps to exit code 2.
type IntegrityError struct {
	Library  string
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s (%s): expected %s, got %s",
		e.Library, e.Path, e.Expected, e.Actual)
}

// CyclicDependencyError reports an unresolvable or cyclic edge in the
// library dependency graph. Detected while planning, before any build
// starts.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Cycle) == 0 {
		return "cyclic library dependency"
	}
	return fmt.Sprintf("cyclic library dependency: %s", strings.Join(e.Cycle, " -> "))
}

// BuildToolError reports a non-zero exit from a delegated native build
// tool. The orchestrator treats it as fatal for the (library, target) pair:
// no retry, and the install step must never run after one, since a partial
// dist directory would corrupt the cache's existence signal.
type BuildToolError struct {
	Tool     string
	ExitCode int
	Output   []string
	Err      error
}

func (e *BuildToolError) Error() string {
	prefix := fmt.Sprintf("%s failed (exit %d)", e.Tool, e.ExitCode)
	if e.Err != nil {
		prefix = fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	out := strings.TrimSpace(strings.Join(e.Output, "\n"))
	if out != "" {
		return fmt.Sprintf("%s\n\nBuild output:\n%s", prefix, out)
	}
	return prefix
}

func (e *BuildToolError) Unwrap() error { return e.Err }
