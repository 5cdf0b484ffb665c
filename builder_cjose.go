package nativedeps

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CJoseBuilder drives cjose's autotools build against the jansson and
// crypto artifacts already in the dist tree for the same target.
type CJoseBuilder struct{}

func (b *CJoseBuilder) Name() string    { return "CJose" }
func (b *CJoseBuilder) Library() string { return LibCJose }

func (b *CJoseBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: "make", Alternatives: []string{"gmake"}, Purpose: "autotools build driver"},
	}
}

func (b *CJoseBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

func (b *CJoseBuilder) Build(bctx *BuildContext, spec *BuildSpec) (*BuildResult, error) {
	return runBuild(bctx, spec, b.Name(), buildSteps{
		Configure: b.configure,
		Compile:   b.compile,
		Outputs: func(*BuildSpec) ([]string, []string) {
			return []string{filepath.Join("src", ".libs", "libcjose.a")},
				[]string{filepath.Join("include", "cjose", "*.h")}
		},
	})
}

func (b *CJoseBuilder) configure(bctx *BuildContext, spec *BuildSpec) error {
	janssonDist, ok := spec.DepDists[LibJansson]
	if !ok {
		return configErrorf("cjose needs the jansson dist directory")
	}
	cryptoDist, cryptoName, err := cryptoDep(spec)
	if err != nil {
		return err
	}

	args := append([]string{}, spec.Library.ConfigureFlags...)
	args = append(args, "--with-jansson="+janssonDist)

	cflags := append([]string{}, spec.Toolchain.CFlags...)
	ldflags := append([]string{}, spec.Toolchain.LDFlags...)

	switch cryptoName {
	case LibOpenSSL:
		args = append(args, "--with-openssl="+cryptoDist)
	case LibNSS:
		// The NSS port has no --with flag; it picks the backend up from
		// the compile and link lines.
		cflags = append(cflags, "-DCJOSE_CRYPTO_NSS", "-I"+filepath.Join(cryptoDist, "include"))
		ldflags = append(ldflags, "-L"+filepath.Join(cryptoDist, "lib"))
		ldflags = append(ldflags, nssLinkLine()...)
	}
	if spec.Target.Platform != PlatformDesktop || spec.Target.OS != hostDesktopOS(bctx.HostOS) {
		args = append(args, "--host="+spec.Target.HostTriple)
	}

	env := append(spec.Toolchain.Env(),
		"CFLAGS="+strings.Join(cflags, " "),
		"LDFLAGS="+strings.Join(ldflags, " "),
	)

	step := &NativeBuildStep{
		Command:         "./configure",
		Args:            args,
		Dir:             spec.SourceDir,
		Env:             env,
		ExpectedOutputs: []string{filepath.Join(spec.SourceDir, "Makefile")},
	}
	return step.Run(bctx)
}

func (b *CJoseBuilder) compile(bctx *BuildContext, spec *BuildSpec) error {
	step := &NativeBuildStep{
		Command: "make",
		Args:    []string{fmt.Sprintf("-j%d", bctx.Jobs()), "-C", "src", "libcjose.la"},
		Dir:     spec.SourceDir,
		ExpectedOutputs: []string{
			filepath.Join(spec.SourceDir, "src", ".libs", "libcjose.a"),
		},
	}
	return step.Run(bctx)
}
