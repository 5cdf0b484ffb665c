package nativedeps

import (
	"fmt"
	"path/filepath"
)

// OpenSSLBuilder drives OpenSSL's perl Configure + make build. OpenSSL
// names its own targets instead of consuming host triples, so the builder
// carries a mapping from catalog targets to Configure target names.
type OpenSSLBuilder struct{}

func (b *OpenSSLBuilder) Name() string    { return "OpenSSL" }
func (b *OpenSSLBuilder) Library() string { return LibOpenSSL }

func (b *OpenSSLBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: "perl", Purpose: "OpenSSL Configure"},
		{Name: "make", Alternatives: []string{"gmake"}, Purpose: "OpenSSL build driver"},
	}
}

func (b *OpenSSLBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

func (b *OpenSSLBuilder) Build(bctx *BuildContext, spec *BuildSpec) (*BuildResult, error) {
	return runBuild(bctx, spec, b.Name(), buildSteps{
		Configure: b.configure,
		Compile:   b.compile,
		Outputs: func(*BuildSpec) ([]string, []string) {
			return []string{"libcrypto.a", "libssl.a"},
				[]string{filepath.Join("include", "openssl", "*.h")}
		},
	})
}

// opensslTarget maps a catalog target to OpenSSL's Configure target name.
func opensslTarget(target Target) (string, error) {
	switch target.Platform {
	case PlatformAndroid:
		switch target.Arch {
		case ArchArm:
			return "android-arm", nil
		case ArchArm64:
			return "android-arm64", nil
		case ArchX86:
			return "android-x86", nil
		case ArchX8664:
			return "android-x86_64", nil
		}
	case PlatformIOS:
		switch target.SDK {
		case SDKIPhoneOS:
			return "ios64-xcrun", nil
		case SDKIPhoneSimulator:
			return "iossimulator-xcrun", nil
		}
	case PlatformDesktop:
		switch target.OS {
		case DesktopLinux:
			return "linux-x86_64", nil
		case DesktopDarwin:
			return "darwin64-x86_64-cc", nil
		case DesktopWindows:
			return "mingw64", nil
		}
	}
	return "", &UnsupportedTargetError{Platform: target.Platform, Arch: target.Arch}
}

func (b *OpenSSLBuilder) configure(bctx *BuildContext, spec *BuildSpec) error {
	osslTarget, err := opensslTarget(spec.Target)
	if err != nil {
		return err
	}

	args := []string{"Configure", osslTarget}
	args = append(args, spec.Library.ConfigureFlags...)

	env := spec.Toolchain.Env()
	if spec.Target.Platform == PlatformAndroid {
		args = append(args, fmt.Sprintf("-D__ANDROID_API__=%d", spec.Target.APILevel))
		// OpenSSL's android targets locate clang through ANDROID_NDK_ROOT
		// rather than CC.
		env = append(env, "ANDROID_NDK_ROOT="+bctx.NDKRoot)
	}

	step := &NativeBuildStep{
		Command:         "perl",
		Args:            args,
		Dir:             spec.SourceDir,
		Env:             env,
		ExpectedOutputs: []string{filepath.Join(spec.SourceDir, "Makefile")},
	}
	return step.Run(bctx)
}

func (b *OpenSSLBuilder) compile(bctx *BuildContext, spec *BuildSpec) error {
	return RunAll(bctx,
		&NativeBuildStep{
			Command: "make",
			Args:    []string{fmt.Sprintf("-j%d", bctx.Jobs()), "build_libs"},
			Dir:     spec.SourceDir,
			ExpectedOutputs: []string{
				filepath.Join(spec.SourceDir, "libcrypto.a"),
				filepath.Join(spec.SourceDir, "libssl.a"),
			},
		},
	)
}
