package nativedeps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Environment variables read once at startup. Toolchain configuration is
// never threaded through ambient process environment after that point;
// everything travels on the BuildContext.
const (
	EnvNDKRoot       = "ANDROID_NDK_ROOT"
	EnvNDKHome       = "ANDROID_NDK_HOME" // legacy spelling, same meaning
	EnvNDKAPILevel   = "ANDROID_NDK_API_VERSION"
	EnvIOSMinVersion = "IOS_MIN_SDK_VERSION"
	EnvIOSDeviceSDK  = "IPHONEOS_SDK_PATH"
	EnvIOSSimSDK     = "IPHONESIMULATOR_SDK_PATH"
	EnvMacCrossRoot  = "MACOS_CROSS_TOOLCHAIN_ROOT"
	EnvPrefetchDir   = "NATIVEDEPS_PREFETCH_DIR"
)

const defaultAndroidAPILevel = 21

const defaultIOSMinVersion = "10.0"

// BuildContext carries everything a build step needs: directory layout,
// host configuration captured from the environment, the logger, and
// execution knobs. It is created once per invocation and passed explicitly
// through the call graph.
type BuildContext struct {
	// RootDir is the working root: sources are extracted and built under
	// <RootDir>/work, downloads cached under <RootDir>/downloads.
	RootDir string

	// DistRoot is where finished artifacts are laid out.
	DistRoot string

	Logger zerolog.Logger

	// HostOS is runtime.GOOS unless overridden in tests.
	HostOS string

	// NDKRoot is the Android NDK install root. Empty when no NDK is
	// available; resolving any Android target then fails.
	NDKRoot string

	// APILevel is the Android API level threaded into both the compiler
	// binary name and -D__ANDROID_API__.
	APILevel int

	// IOSMinVersion is the minimum iOS version for device and simulator
	// version-min flags.
	IOSMinVersion string

	// MacCrossRoot is the root of the bundled clang + cctools toolchain
	// used to cross-compile the darwin desktop target from Linux.
	MacCrossRoot string

	// PrefetchDir, when set, is checked for tarballs before downloading.
	// Checksums are verified either way.
	PrefetchDir string

	// SDKPath resolves an Apple SDK name to its sysroot path. Defaults to
	// xcrun; tests and the SDK-path env overrides replace it.
	SDKPath func(sdk AppleSDK) (string, error)

	// DryRun logs native build commands instead of executing them.
	DryRun bool

	// Parallel is passed to the delegated build tool (make -jN, ninja).
	// Zero means runtime.NumCPU.
	Parallel int

	// Ticker receives step progress for the CLI. May be nil.
	Ticker *StepTicker
}

// NewBuildContext builds a context rooted at rootDir, capturing host
// configuration from the process environment.
func NewBuildContext(rootDir string, logger zerolog.Logger) (*BuildContext, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}

	bctx := &BuildContext{
		RootDir:       abs,
		DistRoot:      filepath.Join(abs, "dist"),
		Logger:        logger,
		HostOS:        runtime.GOOS,
		APILevel:      defaultAndroidAPILevel,
		IOSMinVersion: defaultIOSMinVersion,
		NDKRoot:       firstEnv(EnvNDKRoot, EnvNDKHome),
		MacCrossRoot:  os.Getenv(EnvMacCrossRoot),
		PrefetchDir:   os.Getenv(EnvPrefetchDir),
		Parallel:      runtime.NumCPU(),
	}

	if v := os.Getenv(EnvNDKAPILevel); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil || level <= 0 {
			return nil, configErrorf("%s must be a positive integer, got %q", EnvNDKAPILevel, v)
		}
		bctx.APILevel = level
	}
	if v := os.Getenv(EnvIOSMinVersion); v != "" {
		bctx.IOSMinVersion = v
	}

	deviceSDK := os.Getenv(EnvIOSDeviceSDK)
	simSDK := os.Getenv(EnvIOSSimSDK)
	bctx.SDKPath = func(sdk AppleSDK) (string, error) {
		switch {
		case sdk == SDKIPhoneOS && deviceSDK != "":
			return deviceSDK, nil
		case sdk == SDKIPhoneSimulator && simSDK != "":
			return simSDK, nil
		}
		return xcrunSDKPath(sdk)
	}

	return bctx, nil
}

// WorkDir is the root for temporary extraction and build trees. A failed
// build leaves its tree here for inspection.
func (bctx *BuildContext) WorkDir() string {
	return filepath.Join(bctx.RootDir, "work")
}

// DownloadDir holds fetched source tarballs.
func (bctx *BuildContext) DownloadDir() string {
	return filepath.Join(bctx.RootDir, "downloads")
}

// Jobs returns the parallelism handed to delegated build tools.
func (bctx *BuildContext) Jobs() int {
	if bctx.Parallel > 0 {
		return bctx.Parallel
	}
	return runtime.NumCPU()
}

func xcrunSDKPath(sdk AppleSDK) (string, error) {
	out, err := exec.Command("xcrun", "--sdk", string(sdk), "--show-sdk-path").Output()
	if err != nil {
		return "", configErrorf("cannot locate %s SDK: xcrun failed: %v", sdk, err)
	}
	path := strings.TrimSpace(string(out))
	if path == "" {
		return "", configErrorf("xcrun returned an empty path for SDK %s", sdk)
	}
	return path, nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
