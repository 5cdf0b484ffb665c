package nativedeps

import (
	"fmt"
	"os"
	"path/filepath"
)

// BuildSpec is everything one builder invocation needs for one target:
// the pinned library, the resolved toolchain, the extracted source tree
// and the dist directories of the library's already-built dependencies.
type BuildSpec struct {
	Library   *Library
	Target    Target
	Toolchain *ToolchainConfig

	// SourceDir is this pair's private extracted source tree.
	SourceDir string

	// DistDir is the canonical output directory. The builder never writes
	// it directly; the install step populates it all at once on success.
	DistDir string

	// DepDists maps dependency library names to their dist directories
	// for the same target.
	DepDists map[string]string
}

// BuildResult reports one builder invocation.
type BuildResult struct {
	Success bool
	// Output holds captured build tool output lines, for error context.
	Output []string
	// Artifacts are the installed files, relative to DistDir.
	Artifacts []string
	Error     error
}

// Builder drives one library's own build system for one target.
//
// # Lifecycle
//
//  1. Clean prior build state for this (library, target)
//  2. Configure and compile with the resolved toolchain
//  3. Install an explicit allowlist of outputs into the dist layout
//
// The install step must never run after a failed compile: the dist
// directory's existence is the cache's completion signal, so a partial
// install would make a broken build look finished.
//
// Builders are stateless; the same instance serves every target.
type Builder interface {
	// Name returns the human-readable builder name for logs and errors.
	Name() string

	// Library returns the registry name this builder handles.
	Library() string

	// Build runs the full lifecycle for one target.
	Build(bctx *BuildContext, spec *BuildSpec) (*BuildResult, error)
}

// buildSteps is the shared three-phase shape the concrete builders fill
// in: prepare build state, drive the native tool, name the outputs.
type buildSteps struct {
	// Configure prepares the library's build system (runs configure,
	// generates ninja files). May be nil for tools that need no
	// configure phase.
	Configure func(bctx *BuildContext, spec *BuildSpec) error

	// Compile runs the native build.
	Compile func(bctx *BuildContext, spec *BuildSpec) error

	// Outputs returns the allowlisted build outputs relative to
	// SourceDir, split by destination.
	Outputs func(spec *BuildSpec) (libs []string, headerGlobs []string)
}

// runBuild executes the shared lifecycle around a builder's steps.
func runBuild(bctx *BuildContext, spec *BuildSpec, name string, steps buildSteps) (*BuildResult, error) {
	result := &BuildResult{}

	if err := spec.Toolchain.Validate(); err != nil {
		result.Error = err
		return result, err
	}

	// A stale dist directory from an older pin must not survive a
	// rebuild of the same pair within this invocation.
	if err := os.RemoveAll(spec.DistDir); err != nil {
		result.Error = err
		return result, err
	}

	if steps.Configure != nil {
		if err := steps.Configure(bctx, spec); err != nil {
			return failResult(result, name, err)
		}
	}
	if err := steps.Compile(bctx, spec); err != nil {
		return failResult(result, name, err)
	}

	if bctx.DryRun {
		result.Success = true
		return result, nil
	}

	libs, headerGlobs := steps.Outputs(spec)
	installed, err := installArtifacts(spec, libs, headerGlobs)
	if err != nil {
		return failResult(result, name, err)
	}

	result.Artifacts = installed
	result.Success = true
	return result, nil
}

func failResult(result *BuildResult, name string, err error) (*BuildResult, error) {
	if bte, ok := err.(*BuildToolError); ok {
		result.Output = bte.Output
	}
	result.Error = fmt.Errorf("%s: %w", name, err)
	return result, result.Error
}

// installArtifacts performs the all-or-nothing copy into the dist layout:
// allowlisted archives into lib/, header globs into include/, completion
// marker last. Any failure removes the partial dist directory so the
// cache's existence signal stays truthful.
func installArtifacts(spec *BuildSpec, libs []string, headerGlobs []string) ([]string, error) {
	libDir := filepath.Join(spec.DistDir, "lib")
	includeDir := filepath.Join(spec.DistDir, "include")

	install := func() ([]string, error) {
		if err := os.MkdirAll(libDir, 0o755); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(includeDir, 0o755); err != nil {
			return nil, err
		}
		var installed []string
		for _, rel := range libs {
			src := filepath.Join(spec.SourceDir, rel)
			dest := filepath.Join(libDir, filepath.Base(rel))
			if err := copyFile(src, dest); err != nil {
				return nil, fmt.Errorf("installing %s: %w", rel, err)
			}
			installed = append(installed, filepath.Join("lib", filepath.Base(rel)))
		}
		for _, glob := range headerGlobs {
			if err := copyGlob(spec.SourceDir, glob, includeDir); err != nil {
				return nil, fmt.Errorf("installing headers %s: %w", glob, err)
			}
		}
		if err := writeCompletionMarker(spec.DistDir); err != nil {
			return nil, err
		}
		return installed, nil
	}

	installed, err := install()
	if err != nil {
		os.RemoveAll(spec.DistDir)
		return nil, err
	}
	return installed, nil
}

// BuilderFactory maps library names to builders.
type BuilderFactory struct {
	builders []Builder
}

// NewBuilderFactory registers the builder for every library in the
// registry.
func NewBuilderFactory() *BuilderFactory {
	f := &BuilderFactory{}
	f.Register(&NSSBuilder{})
	f.Register(&OpenSSLBuilder{})
	f.Register(&SQLCipherBuilder{})
	f.Register(&JanssonBuilder{})
	f.Register(&CJoseBuilder{})
	return f
}

// Register adds a builder. Not safe for concurrent use; register
// everything before building.
func (f *BuilderFactory) Register(b Builder) {
	f.builders = append(f.builders, b)
}

// BuilderFor returns the builder registered for a library name.
func (f *BuilderFactory) BuilderFor(library string) (Builder, error) {
	for _, b := range f.builders {
		if b.Library() == library {
			return b, nil
		}
	}
	return nil, configErrorf("no builder registered for library %q", library)
}

// CheckTools runs every registered builder's tool check.
func (f *BuilderFactory) CheckTools(libraries map[string]bool) error {
	for _, b := range f.builders {
		if !libraries[b.Library()] {
			continue
		}
		if checker, ok := b.(ToolChecker); ok {
			if err := checker.CheckTools(); err != nil {
				return fmt.Errorf("%s: %w", b.Name(), err)
			}
		}
	}
	return nil
}
