package nativedeps

import "fmt"

// resolveIOS builds a clang toolchain against the device or simulator SDK.
// The architecture alone decides which SDK and which version-min flag a
// slice gets; the arm64 simulator slice additionally needs an explicit
// -target triple, since "-arch arm64" against the simulator SDK is
// otherwise taken for a device build.
func (r *ToolchainResolver) resolveIOS(target Target) (*ToolchainConfig, error) {
	bctx := r.bctx
	if bctx.HostOS != "darwin" {
		return nil, configErrorf("iOS targets require a macOS host, have %s", bctx.HostOS)
	}

	sysroot, err := bctx.SDKPath(target.SDK)
	if err != nil {
		return nil, err
	}

	archFlag := string(target.Arch)
	if target.Arch == ArchArm64Sim {
		archFlag = "arm64"
	}

	cflags := []string{
		"-arch", archFlag,
		"-isysroot", sysroot,
		"-O2",
	}
	switch target.SDK {
	case SDKIPhoneOS:
		cflags = append(cflags, fmt.Sprintf("-miphoneos-version-min=%s", bctx.IOSMinVersion))
	case SDKIPhoneSimulator:
		cflags = append(cflags, fmt.Sprintf("-mios-simulator-version-min=%s", bctx.IOSMinVersion))
	}
	if target.Arch == ArchArm64Sim {
		cflags = append(cflags, "-target", target.HostTriple)
	}

	ldflags := []string{"-arch", archFlag, "-isysroot", sysroot}

	return &ToolchainConfig{
		CC:      "xcrun --sdk " + string(target.SDK) + " clang",
		CXX:     "xcrun --sdk " + string(target.SDK) + " clang++",
		AR:      "ar",
		Ranlib:  "ranlib",
		LD:      "ld",
		Strip:   "strip",
		Sysroot: sysroot,
		CFlags:  cflags,
		LDFlags: ldflags,
	}, nil
}
