package nativedeps

import (
	"path/filepath"
)

// NSSBuilder drives NSS's gyp + ninja build through the build.sh driver
// the source ships, then installs the static archive allowlist.
//
// NSS produces a couple dozen archives; only the subset downstream FFI
// links against is installed, plus the architecture-specific hardware
// acceleration archive where one exists. Wildcarding the dist tree would
// drag in test and tool archives that must not ship.
type NSSBuilder struct{}

func (b *NSSBuilder) Name() string    { return "NSS" }
func (b *NSSBuilder) Library() string { return LibNSS }

func (b *NSSBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: "gyp", Purpose: "NSS build file generator"},
		{Name: "ninja", Purpose: "NSS build executor"},
		{Name: "python3", Alternatives: []string{"python"}, Purpose: "build.sh driver"},
	}
}

func (b *NSSBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

func (b *NSSBuilder) Build(bctx *BuildContext, spec *BuildSpec) (*BuildResult, error) {
	return runBuild(bctx, spec, b.Name(), buildSteps{
		Compile: b.compile,
		Outputs: b.outputs,
	})
}

func (b *NSSBuilder) compile(bctx *BuildContext, spec *BuildSpec) error {
	args := []string{"-v", "--opt", "--static", "--disable-tests", "-Ddisable_dbm=1", "-Ddisable_libpkix=1"}

	env := spec.Toolchain.Env()
	switch spec.Target.Platform {
	case PlatformAndroid:
		args = append(args, "--target=android")
		env = append(env,
			"ANDROID_TRIPLE="+spec.Target.HostTriple,
			"SYSROOT="+spec.Toolchain.Sysroot,
		)
	case PlatformIOS:
		args = append(args, "--target=ios")
		env = append(env, "SYSROOT="+spec.Toolchain.Sysroot)
	}

	// build.sh wraps gyp + ninja; nss/ is the driver's working directory
	// and the dist tree lands beside it.
	step := &NativeBuildStep{
		Command: "./build.sh",
		Args:    args,
		Dir:     filepath.Join(spec.SourceDir, "nss"),
		Env:     env,
		ExpectedOutputs: []string{
			filepath.Join(spec.SourceDir, "dist", "Release", "lib", "libnss_static.a"),
		},
	}
	return step.Run(bctx)
}

func (b *NSSBuilder) outputs(spec *BuildSpec) ([]string, []string) {
	names := []string{
		"libcertdb.a",
		"libcerthi.a",
		"libcryptohi.a",
		"libfreebl_static.a",
		"libnss_static.a",
		"libnssb.a",
		"libnssdev.a",
		"libnsspki.a",
		"libnssutil.a",
		"libpk11wrap_static.a",
		"libpkcs12.a",
		"libpkcs7.a",
		"libsmime.a",
		"libsoftokn_static.a",
		"libssl.a",
		"libplc4.a",
		"libplds4.a",
		"libnspr4.a",
	}
	switch spec.Target.Arch {
	case ArchX86, ArchX8664, ArchI386:
		names = append(names, "libgcm-aes-x86_c_lib.a", "libsha-x86_c_lib.a")
	case ArchArm64, ArchArm64Sim:
		names = append(names, "libarmv8_c_lib.a", "libgcm-aes-aarch64_c_lib.a")
	case ArchArm, ArchArmV7:
		names = append(names, "libarmv8_c_lib.a")
	}

	libs := make([]string, 0, len(names))
	for _, name := range names {
		libs = append(libs, filepath.Join("dist", "Release", "lib", name))
	}
	headerGlobs := []string{
		filepath.Join("dist", "public", "nss", "*.h"),
		filepath.Join("dist", "Release", "include", "nspr", "*.h"),
	}
	return libs, headerGlobs
}
