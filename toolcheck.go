package nativedeps

import (
	"fmt"
	"os/exec"
	"strings"
)

// ToolRequirement describes a host tool a builder shells out to.
//
// A requirement is satisfied by its primary name or by any of its
// alternatives (gmake for make, and so on). Optional tools are checked but
// never fail the build.
type ToolRequirement struct {
	// Name is the primary tool binary name (e.g. "make", "ninja").
	Name string

	// Alternatives are other binary names that satisfy this requirement.
	Alternatives []string

	// Optional marks tools that improve the build but are not required.
	Optional bool

	// Purpose is a human-readable reason, used in error messages.
	Purpose string
}

// ToolChecker is implemented by builders that shell out to external tools,
// so the orchestrator can fail fast with a ConfigurationError before any
// source is extracted.
type ToolChecker interface {
	// RequiredTools returns the tools this builder needs on PATH.
	RequiredTools() []ToolRequirement

	// CheckTools verifies that all required tools are available.
	CheckTools() error
}

// CheckToolAvailable checks if a tool is available in the system PATH.
func CheckToolAvailable(tool string) error {
	if _, err := exec.LookPath(tool); err != nil {
		return configErrorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies a list of requirements and reports every
// missing required tool in one error.
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missing []string

	for _, req := range requirements {
		found := CheckToolAvailable(req.Name) == nil
		if !found {
			for _, alt := range req.Alternatives {
				if CheckToolAvailable(alt) == nil {
					found = true
					break
				}
			}
		}
		if !found && !req.Optional {
			if req.Purpose != "" {
				missing = append(missing, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
			} else {
				missing = append(missing, req.Name)
			}
		}
	}

	if len(missing) == 0 {
		return nil
	}
	if len(missing) == 1 {
		return configErrorf("%s not found in PATH", missing[0])
	}
	return configErrorf("missing required tools: %s", strings.Join(missing, ", "))
}
