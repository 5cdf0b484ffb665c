package nativedeps

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestLayoutPaths(t *testing.T) {
	layout := ArtifactLayout{DistRoot: "/dist"}
	catalog := NewTargetCatalog(21, "10.0")

	android, _ := catalog.Lookup(PlatformAndroid, ArchArm64)
	if got, want := layout.LibraryDir(LibNSS, android), filepath.Join("/dist", "android", "arm64-v8a", "nss"); got != want {
		t.Errorf("LibraryDir = %q, want %q", got, want)
	}

	desktop, _ := catalog.LookupDesktop(DesktopLinux)
	if got, want := layout.LibDir(LibSQLCipher, desktop), filepath.Join("/dist", "desktop", "linux-x86-64", "sqlcipher", "lib"); got != want {
		t.Errorf("LibDir = %q, want %q", got, want)
	}

	if got, want := layout.UniversalDir(LibCJose), filepath.Join("/dist", "ios", "universal", "cjose"); got != want {
		t.Errorf("UniversalDir = %q, want %q", got, want)
	}
}

func TestEnvReport(t *testing.T) {
	layout := ArtifactLayout{DistRoot: "/dist"}
	target, _ := NewTargetCatalog(21, "10.0").Lookup(PlatformAndroid, ArchArm64)

	report := layout.EnvReport(target, map[string]bool{
		LibNSS:       true,
		LibSQLCipher: true,
	})

	if report[EnvOutNSSDir] != layout.LibraryDir(LibNSS, target) {
		t.Errorf("%s = %q", EnvOutNSSDir, report[EnvOutNSSDir])
	}
	if report[EnvOutNSSStatic] != "1" {
		t.Errorf("%s = %q, want 1", EnvOutNSSStatic, report[EnvOutNSSStatic])
	}
	if report[EnvOutSQLCipherLib] != layout.LibDir(LibSQLCipher, target) {
		t.Errorf("%s = %q", EnvOutSQLCipherLib, report[EnvOutSQLCipherLib])
	}
	if _, ok := report[EnvOutJanssonDir]; ok {
		t.Error("report names a library that was not built")
	}
	if _, ok := report[EnvOutOpenSSLDir]; ok {
		t.Error("report names the unused crypto backend")
	}
}

func TestSortedKeys(t *testing.T) {
	got := SortedKeys(map[string]string{"b": "2", "a": "1", "c": "3"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SortedKeys = %v", got)
	}
}
