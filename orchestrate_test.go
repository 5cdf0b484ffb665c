package nativedeps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// recordingBuilder satisfies Builder and installs a fake dist tree, so
// orchestration tests observe cache and rebuild behavior without any
// native tool.
type recordingBuilder struct {
	library string
	calls   int
	lastDir string
}

func (b *recordingBuilder) Name() string    { return "Recording" }
func (b *recordingBuilder) Library() string { return b.library }

func (b *recordingBuilder) Build(bctx *BuildContext, spec *BuildSpec) (*BuildResult, error) {
	b.calls++
	b.lastDir = spec.SourceDir
	libDir := filepath.Join(spec.DistDir, "lib")
	if err := os.MkdirAll(libDir, 0o755); err != nil {
		return nil, err
	}
	name := "lib" + b.library + ".a"
	if err := os.WriteFile(filepath.Join(libDir, name), []byte("ar!"), 0o644); err != nil {
		return nil, err
	}
	marker := filepath.Join(spec.DistDir, completionMarker)
	if err := os.WriteFile(marker, []byte("ok\n"), 0o644); err != nil {
		return nil, err
	}
	return &BuildResult{Success: true, Artifacts: []string{filepath.Join("lib", name)}}, nil
}

// testOrchestrator wires an orchestrator whose registry serves tarballs
// from a local HTTP server and whose builders are recording stubs.
func testOrchestrator(t *testing.T, libs map[string]*Library) (*Orchestrator, map[string]*recordingBuilder) {
	t.Helper()
	bctx := testBuildContext(t)
	orch, err := NewOrchestrator(bctx)
	if err != nil {
		t.Fatal(err)
	}
	orch.registry = &LibraryRegistry{libs: libs}
	orch.factory = &BuilderFactory{}

	builders := make(map[string]*recordingBuilder)
	for name := range libs {
		b := &recordingBuilder{library: name}
		builders[name] = b
		orch.factory.Register(b)
	}
	return orch, builders
}

func serveLibTarball(t *testing.T, lib *Library, name string) {
	t.Helper()
	body := makeTarballBytes(t, map[string]string{name + "-1.0/configure": "#!/bin/sh"})
	server := tarballServer(t, "/"+name+".tar.gz", body)
	lib.URL = server.URL + "/" + name + ".tar.gz"
	lib.SHA256 = shaOf(body)
}

func TestBuildOneSkipsWhenCached(t *testing.T) {
	lib := &Library{Name: LibJansson}
	serveLibTarball(t, lib, LibJansson)
	orch, builders := testOrchestrator(t, map[string]*Library{LibJansson: lib})
	target, _ := orch.Catalog().LookupDesktop(DesktopLinux)

	if err := os.MkdirAll(orch.Layout().LibraryDir(LibJansson, target), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := orch.BuildOne(LibJansson, target); err != nil {
		t.Fatalf("BuildOne() error = %v", err)
	}
	if builders[LibJansson].calls != 0 {
		t.Errorf("builder ran %d times for a cached pair, want 0", builders[LibJansson].calls)
	}
}

func TestBuildOneBuildsAndCleansUp(t *testing.T) {
	lib := &Library{Name: LibJansson}
	serveLibTarball(t, lib, LibJansson)
	orch, builders := testOrchestrator(t, map[string]*Library{LibJansson: lib})
	target, _ := orch.Catalog().LookupDesktop(DesktopLinux)

	if err := orch.BuildOne(LibJansson, target); err != nil {
		t.Fatalf("BuildOne() error = %v", err)
	}

	b := builders[LibJansson]
	if b.calls != 1 {
		t.Fatalf("builder calls = %d, want 1", b.calls)
	}
	if !orch.cache.IsBuilt(LibJansson, target) {
		t.Error("pair not marked built in the dist tree")
	}
	if _, err := os.Stat(b.lastDir); !os.IsNotExist(err) {
		t.Errorf("extraction tree %s survived a successful build", b.lastDir)
	}

	// A second invocation is a no-op.
	if err := orch.BuildOne(LibJansson, target); err != nil {
		t.Fatal(err)
	}
	if b.calls != 1 {
		t.Errorf("builder calls after rerun = %d, want 1", b.calls)
	}
}

func TestBuildOneRequiresDependencyDist(t *testing.T) {
	dep := &Library{Name: LibNSS}
	lib := &Library{Name: LibSQLCipher, DependsOn: []string{LibNSS}}
	serveLibTarball(t, dep, LibNSS)
	serveLibTarball(t, lib, LibSQLCipher)
	orch, _ := testOrchestrator(t, map[string]*Library{LibNSS: dep, LibSQLCipher: lib})
	target, _ := orch.Catalog().LookupDesktop(DesktopLinux)

	err := orch.BuildOne(LibSQLCipher, target)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("BuildOne without dependency dist: error = %v, want ConfigurationError", err)
	}
}

func TestBuildOneDryRunWalksUnbuiltDependencies(t *testing.T) {
	// A dry run installs nothing, so dependency dist dirs are never
	// present; the guard must not abort the walk.
	dep := &Library{Name: LibJansson}
	lib := &Library{Name: LibCJose, DependsOn: []string{LibJansson}}
	serveLibTarball(t, dep, LibJansson)
	serveLibTarball(t, lib, LibCJose)
	orch, _ := testOrchestrator(t, map[string]*Library{LibJansson: dep, LibCJose: lib})
	orch.bctx.DryRun = true
	target, _ := orch.Catalog().LookupDesktop(DesktopLinux)

	if err := orch.BuildOne(LibCJose, target); err != nil {
		t.Fatalf("dry-run BuildOne() error = %v", err)
	}
}

func TestRebuiltDependencyInvalidatesDependent(t *testing.T) {
	dep := &Library{Name: LibNSS}
	lib := &Library{Name: LibSQLCipher, DependsOn: []string{LibNSS}}
	serveLibTarball(t, dep, LibNSS)
	serveLibTarball(t, lib, LibSQLCipher)
	orch, builders := testOrchestrator(t, map[string]*Library{LibNSS: dep, LibSQLCipher: lib})
	target, _ := orch.Catalog().LookupDesktop(DesktopLinux)

	// The dependent is already cached, the dependency is not: deleting a
	// dependency's dist and rerunning must rebuild both.
	if err := os.MkdirAll(orch.Layout().LibraryDir(LibSQLCipher, target), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := orch.BuildOne(LibNSS, target); err != nil {
		t.Fatal(err)
	}
	if err := orch.BuildOne(LibSQLCipher, target); err != nil {
		t.Fatal(err)
	}

	if builders[LibNSS].calls != 1 {
		t.Errorf("dependency builds = %d, want 1", builders[LibNSS].calls)
	}
	if builders[LibSQLCipher].calls != 1 {
		t.Errorf("dependent builds = %d, want a rebuild despite the cached dist", builders[LibSQLCipher].calls)
	}
}

func TestPlatformTargetsDesktop(t *testing.T) {
	bctx := testBuildContext(t)
	orch, err := NewOrchestrator(bctx)
	if err != nil {
		t.Fatal(err)
	}

	targets, err := orch.PlatformTargets(PlatformDesktop)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 1 || targets[0].OS != DesktopLinux {
		t.Errorf("linux host targets = %v, want the host target only", targets)
	}

	bctx.MacCrossRoot = "/opt/macos-cross"
	targets, err = orch.PlatformTargets(PlatformDesktop)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 2 || targets[1].OS != DesktopDarwin {
		t.Errorf("cross-configured targets = %v, want host plus darwin", targets)
	}
}

func TestPlatformTargetsMobileMatrices(t *testing.T) {
	orch, err := NewOrchestrator(testBuildContext(t))
	if err != nil {
		t.Fatal(err)
	}
	android, _ := orch.PlatformTargets(PlatformAndroid)
	if len(android) != 4 {
		t.Errorf("android targets = %d, want 4", len(android))
	}
	ios, _ := orch.PlatformTargets(PlatformIOS)
	if len(ios) != 5 {
		t.Errorf("ios targets = %d, want 5", len(ios))
	}
}

func TestSetStrictCache(t *testing.T) {
	orch, err := NewOrchestrator(testBuildContext(t))
	if err != nil {
		t.Fatal(err)
	}
	target, _ := orch.Catalog().LookupDesktop(DesktopLinux)

	if err := os.MkdirAll(orch.Layout().LibraryDir(LibNSS, target), 0o755); err != nil {
		t.Fatal(err)
	}
	if !orch.cache.IsBuilt(LibNSS, target) {
		t.Fatal("loose cache should trust the bare directory")
	}
	orch.SetStrictCache(true)
	if orch.cache.IsBuilt(LibNSS, target) {
		t.Error("strict cache trusted a directory without a completion marker")
	}
}

func TestLoadPins(t *testing.T) {
	orch, err := NewOrchestrator(testBuildContext(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := orch.LoadPins(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("LoadPins with missing file: expected error")
	}
	// A failed load must not clobber the embedded registry.
	if _, err := orch.Registry().Lookup(LibNSS); err != nil {
		t.Errorf("registry lost after failed LoadPins: %v", err)
	}
}
