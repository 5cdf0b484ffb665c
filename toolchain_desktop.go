package nativedeps

import (
	"os"
	"path/filepath"
)

// resolveDesktop dispatches on the desktop target OS. Linux and same-host
// macOS builds use the host compilers; the darwin target on a Linux host
// substitutes the bundled cross toolchain; the windows target always cross
// compiles with MinGW.
func (r *ToolchainResolver) resolveDesktop(target Target) (*ToolchainConfig, error) {
	switch target.OS {
	case DesktopLinux:
		return r.resolveDesktopLinux(target)
	case DesktopDarwin:
		if r.bctx.HostOS == "darwin" {
			return r.resolveDesktopDarwinNative(target)
		}
		return r.resolveDesktopDarwinCross(target)
	case DesktopWindows:
		return r.resolveDesktopWindows(target)
	default:
		return nil, &UnsupportedTargetError{Platform: target.Platform, Arch: target.Arch}
	}
}

func (r *ToolchainResolver) resolveDesktopLinux(target Target) (*ToolchainConfig, error) {
	if r.bctx.HostOS != "linux" {
		return nil, configErrorf("desktop linux target requires a linux host, have %s", r.bctx.HostOS)
	}
	return &ToolchainConfig{
		CC:      "gcc",
		CXX:     "g++",
		AR:      "ar",
		Ranlib:  "ranlib",
		LD:      "ld",
		Strip:   "strip",
		Sysroot: "/",
		CFlags:  []string{"-O2", "-fPIC"},
		LDFlags: []string{},
	}, nil
}

func (r *ToolchainResolver) resolveDesktopDarwinNative(target Target) (*ToolchainConfig, error) {
	return &ToolchainConfig{
		CC:      "clang",
		CXX:     "clang++",
		AR:      "ar",
		Ranlib:  "ranlib",
		LD:      "ld",
		Strip:   "strip",
		Sysroot: "/",
		CFlags:  []string{"-O2", "-mmacosx-version-min=" + target.MinOSVersion},
		LDFlags: []string{},
	}, nil
}

// resolveDesktopDarwinCross substitutes the bundled clang plus a ported
// cctools binutils set for the entire toolchain. The -target triple has to
// appear in LDFLAGS as well as CFLAGS: sqlcipher's libtool wrapper rebuilds
// the link-time driver invocation from LDFLAGS and drops flags it does not
// recognize from the compiler line, so a -target carried only in CFLAGS
// never reaches the final link.
func (r *ToolchainResolver) resolveDesktopDarwinCross(target Target) (*ToolchainConfig, error) {
	root := r.bctx.MacCrossRoot
	if root == "" {
		return nil, configErrorf("cross-compiling the darwin target needs %s", EnvMacCrossRoot)
	}
	clang := filepath.Join(root, "clang", "bin", "clang")
	cctoolsBin := filepath.Join(root, "cctools", "bin")
	if _, err := os.Stat(clang); err != nil {
		return nil, configErrorf("cross clang not found at %s", clang)
	}
	if _, err := os.Stat(cctoolsBin); err != nil {
		return nil, configErrorf("cctools binutils not found at %s", cctoolsBin)
	}

	sysroot := filepath.Join(root, "MacOSX.sdk")
	targetFlag := "-target " + target.HostTriple

	prefixed := func(tool string) string {
		return filepath.Join(cctoolsBin, target.HostTriple+"-"+tool)
	}
	return &ToolchainConfig{
		CC:      clang + " " + targetFlag,
		CXX:     filepath.Join(root, "clang", "bin", "clang++") + " " + targetFlag,
		AR:      prefixed("ar"),
		Ranlib:  prefixed("ranlib"),
		LD:      prefixed("ld"),
		Strip:   prefixed("strip"),
		Sysroot: sysroot,
		CFlags: []string{
			"-target", target.HostTriple,
			"-isysroot", sysroot,
			"-mmacosx-version-min=" + target.MinOSVersion,
			"-O2",
			"-B", cctoolsBin,
		},
		LDFlags: []string{
			// Re-injected here deliberately; see the function comment.
			"-target", target.HostTriple,
			"-isysroot", sysroot,
			"-B", cctoolsBin,
		},
	}, nil
}

func (r *ToolchainResolver) resolveDesktopWindows(target Target) (*ToolchainConfig, error) {
	prefix := target.HostTriple + "-"
	if err := CheckToolAvailable(prefix + "gcc"); err != nil {
		return nil, configErrorf("MinGW cross compiler %sgcc not found in PATH", prefix)
	}
	return &ToolchainConfig{
		CC:      prefix + "gcc",
		CXX:     prefix + "g++",
		AR:      prefix + "ar",
		Ranlib:  prefix + "ranlib",
		LD:      prefix + "ld",
		Strip:   prefix + "strip",
		Sysroot: "/usr/" + target.HostTriple,
		CFlags:  []string{"-O2"},
		LDFlags: []string{},
	}, nil
}
