package nativedeps

import (
	"fmt"
	"os"
	"path/filepath"
)

// resolveAndroid builds a toolchain from the NDK's prebuilt llvm tree.
//
// NDK r19+ ships one clang per (triple, API level), named
// "<triple><api>-clang". The 32-bit ARM ABI is the exception: configure
// scripts take the plain arm-linux-androideabi triple but the NDK names
// the binary "armv7a-linux-androideabi<api>-clang". See the NDK "other
// build systems" guide.
func (r *ToolchainResolver) resolveAndroid(target Target) (*ToolchainConfig, error) {
	bctx := r.bctx
	if bctx.NDKRoot == "" {
		return nil, configErrorf("no Android NDK found: set %s", EnvNDKRoot)
	}
	binDir := filepath.Join(bctx.NDKRoot, "toolchains", "llvm", "prebuilt", ndkHostTag(bctx.HostOS), "bin")
	if _, err := os.Stat(binDir); err != nil {
		return nil, configErrorf("NDK toolchain directory missing: %s", binDir)
	}

	api := target.APILevel
	if api == 0 {
		api = bctx.APILevel
	}

	// The 32-bit ARM clang binary carries the "armv7a" linker triple even
	// though configure scripts are handed the plain "arm" triple.
	clangTriple := target.HostTriple
	if target.Arch == ArchArm {
		clangTriple = "armv7a-linux-androideabi"
	}

	clangPrefix := fmt.Sprintf("%s%d", clangTriple, api)
	tc := &ToolchainConfig{
		CC:      filepath.Join(binDir, clangPrefix+"-clang"),
		CXX:     filepath.Join(binDir, clangPrefix+"-clang++"),
		AR:      filepath.Join(binDir, "llvm-ar"),
		Ranlib:  filepath.Join(binDir, "llvm-ranlib"),
		LD:      filepath.Join(binDir, "ld"),
		Strip:   filepath.Join(binDir, "llvm-strip"),
		Sysroot: filepath.Join(bctx.NDKRoot, "toolchains", "llvm", "prebuilt", ndkHostTag(bctx.HostOS), "sysroot"),
		CFlags: []string{
			fmt.Sprintf("-D__ANDROID_API__=%d", api),
			"-O2",
			"-fPIC",
		},
		LDFlags: []string{},
	}

	if target.Arch == ArchArm {
		// Thumb + VFP defaults match the platform ABI docs.
		tc.CFlags = append(tc.CFlags, "-march=armv7-a", "-mthumb", "-mfpu=vfpv3-d16")
	}
	return tc, nil
}

// ndkHostTag is the NDK's name for the host prebuilt directory. The NDK
// only ships 64-bit host toolchains.
func ndkHostTag(hostOS string) string {
	switch hostOS {
	case "darwin":
		return "darwin-x86_64"
	case "windows":
		return "windows-x86_64"
	default:
		return "linux-x86_64"
	}
}
