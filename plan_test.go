package nativedeps

import (
	"errors"
	"testing"
)

func planIndex(plan *BuildPlan, lib string, target Target) int {
	for i, step := range plan.Steps {
		if step.Library.Name == lib && step.Target.Name() == target.Name() {
			return i
		}
	}
	return -1
}

func TestPlanOrdersDependenciesPerTarget(t *testing.T) {
	reg, err := NewLibraryRegistry()
	if err != nil {
		t.Fatal(err)
	}
	catalog := NewTargetCatalog(21, "10.0")
	targets := catalog.Targets(PlatformAndroid)
	cfg := DefaultPlatformConfig(PlatformAndroid)

	plan, err := Plan(reg, catalog, PlatformAndroid, cfg, targets)
	if err != nil {
		t.Fatal(err)
	}

	if want := len(cfg.Libraries) * len(targets); len(plan.Steps) != want {
		t.Fatalf("len(Steps) = %d, want %d", len(plan.Steps), want)
	}

	for _, target := range targets {
		nss := planIndex(plan, LibNSS, target)
		sqlcipher := planIndex(plan, LibSQLCipher, target)
		jansson := planIndex(plan, LibJansson, target)
		cjose := planIndex(plan, LibCJose, target)
		for name, idx := range map[string]int{"nss": nss, "sqlcipher": sqlcipher, "jansson": jansson, "cjose": cjose} {
			if idx < 0 {
				t.Fatalf("%s: %s missing from plan", target.Name(), name)
			}
		}
		if nss > sqlcipher {
			t.Errorf("%s: nss (%d) must precede sqlcipher (%d)", target.Name(), nss, sqlcipher)
		}
		if nss > cjose || jansson > cjose {
			t.Errorf("%s: cjose (%d) must follow nss (%d) and jansson (%d)", target.Name(), cjose, nss, jansson)
		}
	}
}

func TestPlanCryptoBackendSubstitution(t *testing.T) {
	reg, err := NewLibraryRegistry()
	if err != nil {
		t.Fatal(err)
	}
	catalog := NewTargetCatalog(21, "10.0")
	targets := []Target{catalog.Targets(PlatformAndroid)[0]}

	cfg := PlatformConfig{
		Crypto:    BackendOpenSSL,
		Libraries: []string{LibSQLCipher},
	}
	plan, err := Plan(reg, catalog, PlatformAndroid, cfg, targets)
	if err != nil {
		t.Fatal(err)
	}

	// The plan pulls in the backend itself plus the requested library.
	if len(plan.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(plan.Steps))
	}
	if plan.Steps[0].Library.Name != LibOpenSSL {
		t.Errorf("Steps[0] = %s, want openssl first", plan.Steps[0].Library.Name)
	}
	sqlStep := plan.Steps[1]
	if sqlStep.Library.Name != LibSQLCipher {
		t.Fatalf("Steps[1] = %s, want sqlcipher", sqlStep.Library.Name)
	}
	if len(sqlStep.Deps) != 1 || sqlStep.Deps[0] != LibOpenSSL {
		t.Errorf("sqlcipher Deps = %v, want [openssl]", sqlStep.Deps)
	}
}

func TestPlanDetectsCycle(t *testing.T) {
	reg := &LibraryRegistry{libs: map[string]*Library{
		"a": {Name: "a", DependsOn: []string{"b"}},
		"b": {Name: "b", DependsOn: []string{"a"}},
	}}
	catalog := NewTargetCatalog(21, "10.0")
	cfg := PlatformConfig{Crypto: BackendNSS, Libraries: []string{"a"}}

	_, err := Plan(reg, catalog, PlatformAndroid, cfg, catalog.Targets(PlatformAndroid))
	var cycle *CyclicDependencyError
	if !errors.As(err, &cycle) {
		t.Fatalf("Plan with cyclic graph: error = %v, want CyclicDependencyError", err)
	}
	if len(cycle.Cycle) < 2 {
		t.Errorf("cycle path = %v, want the offending libraries named", cycle.Cycle)
	}
}

func TestPlanUnknownLibrary(t *testing.T) {
	reg, err := NewLibraryRegistry()
	if err != nil {
		t.Fatal(err)
	}
	catalog := NewTargetCatalog(21, "10.0")
	cfg := PlatformConfig{Crypto: BackendNSS, Libraries: []string{"zlib"}}

	if _, err := Plan(reg, catalog, PlatformDesktop, cfg, catalog.Targets(PlatformDesktop)); err == nil {
		t.Fatal("Plan with unknown library: expected error")
	}
}

func TestBuildStepID(t *testing.T) {
	catalog := NewTargetCatalog(21, "10.0")
	target, _ := catalog.Lookup(PlatformAndroid, ArchArm64)
	step := BuildStep{Library: &Library{Name: LibNSS}, Target: target}
	if got := step.ID(); got != "nss android/arm64" {
		t.Errorf("ID() = %q", got)
	}
}
