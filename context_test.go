package nativedeps

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// testBuildContext returns a context rooted in a temp dir with a silent
// logger and a deterministic host configuration.
func testBuildContext(t *testing.T) *BuildContext {
	t.Helper()
	root := t.TempDir()
	return &BuildContext{
		RootDir:       root,
		DistRoot:      filepath.Join(root, "dist"),
		Logger:        zerolog.Nop(),
		HostOS:        "linux",
		APILevel:      defaultAndroidAPILevel,
		IOSMinVersion: defaultIOSMinVersion,
		Parallel:      1,
	}
}

func TestNewBuildContextDefaults(t *testing.T) {
	for _, key := range []string{EnvNDKRoot, EnvNDKHome, EnvNDKAPILevel, EnvIOSMinVersion, EnvMacCrossRoot, EnvPrefetchDir} {
		t.Setenv(key, "")
	}

	root := t.TempDir()
	bctx, err := NewBuildContext(root, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewBuildContext() error = %v", err)
	}

	if bctx.APILevel != defaultAndroidAPILevel {
		t.Errorf("APILevel = %d, want %d", bctx.APILevel, defaultAndroidAPILevel)
	}
	if bctx.IOSMinVersion != defaultIOSMinVersion {
		t.Errorf("IOSMinVersion = %q, want %q", bctx.IOSMinVersion, defaultIOSMinVersion)
	}
	if bctx.NDKRoot != "" {
		t.Errorf("NDKRoot = %q, want empty", bctx.NDKRoot)
	}
	if got, want := bctx.WorkDir(), filepath.Join(bctx.RootDir, "work"); got != want {
		t.Errorf("WorkDir() = %q, want %q", got, want)
	}
	if got, want := bctx.DownloadDir(), filepath.Join(bctx.RootDir, "downloads"); got != want {
		t.Errorf("DownloadDir() = %q, want %q", got, want)
	}
}

func TestNewBuildContextEnvOverrides(t *testing.T) {
	t.Setenv(EnvNDKRoot, "")
	t.Setenv(EnvNDKHome, "/opt/ndk-legacy")
	t.Setenv(EnvNDKAPILevel, "26")
	t.Setenv(EnvIOSMinVersion, "12.0")
	t.Setenv(EnvIOSDeviceSDK, "/sdks/iPhoneOS.sdk")
	t.Setenv(EnvIOSSimSDK, "")

	bctx, err := NewBuildContext(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewBuildContext() error = %v", err)
	}

	if bctx.NDKRoot != "/opt/ndk-legacy" {
		t.Errorf("NDKRoot = %q, want legacy env fallback", bctx.NDKRoot)
	}
	if bctx.APILevel != 26 {
		t.Errorf("APILevel = %d, want 26", bctx.APILevel)
	}
	if bctx.IOSMinVersion != "12.0" {
		t.Errorf("IOSMinVersion = %q, want 12.0", bctx.IOSMinVersion)
	}

	path, err := bctx.SDKPath(SDKIPhoneOS)
	if err != nil {
		t.Fatalf("SDKPath(iphoneos) error = %v", err)
	}
	if path != "/sdks/iPhoneOS.sdk" {
		t.Errorf("SDKPath(iphoneos) = %q, want the env override", path)
	}
}

func TestNewBuildContextBadAPILevel(t *testing.T) {
	for _, bad := range []string{"abc", "-3", "0"} {
		t.Setenv(EnvNDKAPILevel, bad)
		if _, err := NewBuildContext(t.TempDir(), zerolog.Nop()); err == nil {
			t.Errorf("NewBuildContext() with %s=%q: expected error", EnvNDKAPILevel, bad)
		}
	}
}

func TestJobs(t *testing.T) {
	bctx := testBuildContext(t)
	bctx.Parallel = 4
	if got := bctx.Jobs(); got != 4 {
		t.Errorf("Jobs() = %d, want 4", got)
	}
	bctx.Parallel = 0
	if got := bctx.Jobs(); got < 1 {
		t.Errorf("Jobs() = %d, want at least 1", got)
	}
}
