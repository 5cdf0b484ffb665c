package nativedeps

import (
	"fmt"
	"path/filepath"
	"strings"
)

// JanssonBuilder drives jansson's CMake build into an out-of-tree build
// directory, then installs the static archive and the generated headers.
type JanssonBuilder struct{}

func (b *JanssonBuilder) Name() string    { return "Jansson" }
func (b *JanssonBuilder) Library() string { return LibJansson }

func (b *JanssonBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: "cmake", Purpose: "jansson build configuration"},
		{Name: "make", Alternatives: []string{"gmake", "ninja"}, Purpose: "cmake build executor"},
	}
}

func (b *JanssonBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

func (b *JanssonBuilder) Build(bctx *BuildContext, spec *BuildSpec) (*BuildResult, error) {
	return runBuild(bctx, spec, b.Name(), buildSteps{
		Configure: b.runCMake,
		Compile:   b.runCMakeBuild,
		Outputs: func(*BuildSpec) ([]string, []string) {
			return []string{filepath.Join("build", "lib", "libjansson.a")},
				[]string{filepath.Join("build", "include", "*.h")}
		},
	})
}

func (b *JanssonBuilder) runCMake(bctx *BuildContext, spec *BuildSpec) error {
	cc, ccFlags := splitCommand(spec.Toolchain.CC)

	args := []string{
		"-S", ".", "-B", "build",
		"-DCMAKE_BUILD_TYPE=Release",
		"-DCMAKE_C_COMPILER=" + cc,
		"-DCMAKE_AR=" + spec.Toolchain.AR,
		"-DCMAKE_RANLIB=" + spec.Toolchain.Ranlib,
		"-DCMAKE_SYSROOT=" + spec.Toolchain.Sysroot,
	}
	cflags := append(append([]string{}, ccFlags...), spec.Toolchain.CFlags...)
	args = append(args, "-DCMAKE_C_FLAGS="+strings.Join(cflags, " "))
	args = append(args, spec.Library.ConfigureFlags...)

	step := &NativeBuildStep{
		Command:         "cmake",
		Args:            args,
		Dir:             spec.SourceDir,
		ExpectedOutputs: []string{filepath.Join(spec.SourceDir, "build", "CMakeCache.txt")},
	}
	return step.Run(bctx)
}

func (b *JanssonBuilder) runCMakeBuild(bctx *BuildContext, spec *BuildSpec) error {
	step := &NativeBuildStep{
		Command: "cmake",
		Args:    []string{"--build", "build", "--parallel", fmt.Sprintf("%d", bctx.Jobs())},
		Dir:     spec.SourceDir,
		ExpectedOutputs: []string{
			filepath.Join(spec.SourceDir, "build", "lib", "libjansson.a"),
		},
	}
	return step.Run(bctx)
}
