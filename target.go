package nativedeps

import "fmt"

// Platform is the closed set of platform families the catalog knows about.
type Platform int

const (
	PlatformDesktop Platform = iota
	PlatformAndroid
	PlatformIOS
)

// String returns the platform name used in CLI arguments and dist paths.
func (p Platform) String() string {
	switch p {
	case PlatformDesktop:
		return "desktop"
	case PlatformAndroid:
		return "android"
	case PlatformIOS:
		return "ios"
	default:
		return fmt.Sprintf("platform(%d)", int(p))
	}
}

// ParsePlatform maps a CLI platform name to a Platform.
func ParsePlatform(name string) (Platform, error) {
	switch name {
	case "desktop":
		return PlatformDesktop, nil
	case "android":
		return PlatformAndroid, nil
	case "ios":
		return PlatformIOS, nil
	default:
		return 0, configErrorf("unknown platform %q (want desktop, android or ios)", name)
	}
}

// Arch is a canonical architecture identifier. Downstream consumers often
// use a different spelling; that lives in Target.DistAlias, and both are
// carried everywhere a target travels.
type Arch string

const (
	ArchX86      Arch = "x86"
	ArchX8664    Arch = "x86_64"
	ArchI386     Arch = "i386"
	ArchArm      Arch = "arm"
	ArchArmV7    Arch = "armv7"
	ArchArm64    Arch = "arm64"
	ArchArm64Sim Arch = "arm64-simulator"
)

// DesktopOS distinguishes the desktop targets, which share an architecture
// but need entirely different toolchains.
type DesktopOS string

const (
	DesktopLinux   DesktopOS = "linux"
	DesktopDarwin  DesktopOS = "darwin"
	DesktopWindows DesktopOS = "windows"
)

// AppleSDK selects which SDK an iOS target builds against. Architecture
// determines the SDK: Intel archs and the arm64 simulator slice use the
// simulator SDK, device archs use the device SDK.
type AppleSDK string

const (
	SDKIPhoneOS        AppleSDK = "iphoneos"
	SDKIPhoneSimulator AppleSDK = "iphonesimulator"
)

// Target is one (platform, architecture) combination requiring its own
// toolchain and producing its own artifact set.
type Target struct {
	Platform Platform
	Arch     Arch

	// DistAlias is the architecture spelling used in dist paths and by
	// downstream consumers (e.g. "x86-64" where the canonical id is
	// "x86_64", or the Android ABI name "arm64-v8a" for "arm64").
	DistAlias string

	// HostTriple is the GNU-style triple threaded into configure scripts
	// and, for Android, into the NDK compiler binary name.
	HostTriple string

	// APILevel is the Android API level. Zero for other platforms.
	APILevel int

	// MinOSVersion is the minimum OS version flag value for Apple and
	// desktop-darwin targets. Empty where not applicable.
	MinOSVersion string

	// OS is set for desktop targets only.
	OS DesktopOS

	// SDK is set for iOS targets only.
	SDK AppleSDK

	// Mergeable marks iOS slices that participate in the universal
	// archive. The arm64 simulator slice cannot coexist with the arm64
	// device slice inside one fat archive, so it stays unmerged and is
	// consumed directly by simulator build configurations.
	Mergeable bool
}

// Name returns a stable human-readable identifier, e.g. "android/arm64".
func (t Target) Name() string {
	if t.Platform == PlatformDesktop {
		return fmt.Sprintf("desktop/%s-%s", t.OS, t.Arch)
	}
	return fmt.Sprintf("%s/%s", t.Platform, t.Arch)
}

// TargetCatalog enumerates every supported target per platform. The tables
// are fixed at compile time; an architecture missing here is an
// UnsupportedTargetError everywhere else.
type TargetCatalog struct {
	byPlatform map[Platform][]Target
}

// NewTargetCatalog returns the catalog of all supported targets.
//
// Desktop defaults to the host OS targets registered for the build machine;
// catalog entries exist for all three desktop OSes and the android/ios
// matrices regardless of host, since cross builds select them explicitly.
func NewTargetCatalog(defaultAPILevel int, iosMinVersion string) *TargetCatalog {
	android := func(arch Arch, alias, triple string) Target {
		return Target{
			Platform:   PlatformAndroid,
			Arch:       arch,
			DistAlias:  alias,
			HostTriple: triple,
			APILevel:   defaultAPILevel,
		}
	}
	ios := func(arch Arch, alias, triple string, sdk AppleSDK, mergeable bool) Target {
		return Target{
			Platform:     PlatformIOS,
			Arch:         arch,
			DistAlias:    alias,
			HostTriple:   triple,
			MinOSVersion: iosMinVersion,
			SDK:          sdk,
			Mergeable:    mergeable,
		}
	}

	return &TargetCatalog{byPlatform: map[Platform][]Target{
		PlatformDesktop: {
			{
				Platform:   PlatformDesktop,
				Arch:       ArchX8664,
				DistAlias:  "linux-x86-64",
				HostTriple: "x86_64-unknown-linux-gnu",
				OS:         DesktopLinux,
			},
			{
				Platform:     PlatformDesktop,
				Arch:         ArchX8664,
				DistAlias:    "darwin",
				HostTriple:   "x86_64-apple-darwin",
				MinOSVersion: "10.12",
				OS:           DesktopDarwin,
			},
			{
				Platform:   PlatformDesktop,
				Arch:       ArchX8664,
				DistAlias:  "win32-x86-64",
				HostTriple: "x86_64-w64-mingw32",
				OS:         DesktopWindows,
			},
		},
		PlatformAndroid: {
			android(ArchArm, "armeabi-v7a", "arm-linux-androideabi"),
			android(ArchArm64, "arm64-v8a", "aarch64-linux-android"),
			android(ArchX86, "x86", "i686-linux-android"),
			android(ArchX8664, "x86-64", "x86_64-linux-android"),
		},
		PlatformIOS: {
			ios(ArchI386, "i386", "i386-apple-ios", SDKIPhoneSimulator, true),
			ios(ArchX8664, "x86-64", "x86_64-apple-ios", SDKIPhoneSimulator, true),
			ios(ArchArmV7, "armv7", "armv7-apple-ios", SDKIPhoneOS, true),
			ios(ArchArm64, "arm64", "aarch64-apple-ios", SDKIPhoneOS, true),
			ios(ArchArm64Sim, "arm64-simulator", "arm64-apple-ios-simulator", SDKIPhoneSimulator, false),
		},
	}}
}

// Targets returns every target registered for a platform, in build order.
func (c *TargetCatalog) Targets(platform Platform) []Target {
	return append([]Target{}, c.byPlatform[platform]...)
}

// Lookup finds the catalog entry for a (platform, arch) pair.
func (c *TargetCatalog) Lookup(platform Platform, arch Arch) (Target, error) {
	for _, t := range c.byPlatform[platform] {
		if t.Arch == arch {
			return t, nil
		}
	}
	return Target{}, &UnsupportedTargetError{Platform: platform, Arch: arch}
}

// LookupDesktop finds the desktop entry for a specific OS, since desktop
// targets share the x86_64 architecture.
func (c *TargetCatalog) LookupDesktop(os DesktopOS) (Target, error) {
	for _, t := range c.byPlatform[PlatformDesktop] {
		if t.OS == os {
			return t, nil
		}
	}
	return Target{}, &UnsupportedTargetError{Platform: PlatformDesktop, Arch: Arch(os)}
}
