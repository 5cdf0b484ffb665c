package nativedeps

import (
	"fmt"
	"strings"
)

// ToolchainConfig is a fully resolved toolchain for one target: concrete
// compiler, linker and archiver paths plus the flags a library build system
// needs to cross-compile correctly.
//
// Every field must be populated before the config is handed to a builder;
// Validate enforces that. Native host builds use "/" as the sysroot.
type ToolchainConfig struct {
	CC     string
	CXX    string
	AR     string
	Ranlib string
	LD     string
	Strip  string

	CFlags  []string
	LDFlags []string
	Sysroot string
}

// Validate reports the first unresolved field. A config that fails
// validation must never reach a builder.
func (tc *ToolchainConfig) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"cc", tc.CC},
		{"cxx", tc.CXX},
		{"ar", tc.AR},
		{"ranlib", tc.Ranlib},
		{"ld", tc.LD},
		{"strip", tc.Strip},
		{"sysroot", tc.Sysroot},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return configErrorf("toolchain field %q is unresolved", f.name)
		}
	}
	if tc.CFlags == nil || tc.LDFlags == nil {
		return configErrorf("toolchain flag lists are unresolved")
	}
	return nil
}

// Env renders the config as the conventional autotools environment
// variables. Builders pass this to configure scripts rather than mutating
// the orchestrator's own environment.
func (tc *ToolchainConfig) Env() []string {
	return []string{
		"CC=" + tc.CC,
		"CXX=" + tc.CXX,
		"AR=" + tc.AR,
		"RANLIB=" + tc.Ranlib,
		"LD=" + tc.LD,
		"STRIP=" + tc.Strip,
		"CFLAGS=" + strings.Join(tc.CFlags, " "),
		"LDFLAGS=" + strings.Join(tc.LDFlags, " "),
	}
}

// ToolchainResolver maps targets to concrete toolchains using host
// configuration captured on the BuildContext.
type ToolchainResolver struct {
	bctx *BuildContext
}

// NewToolchainResolver returns a resolver bound to the build context.
func NewToolchainResolver(bctx *BuildContext) *ToolchainResolver {
	return &ToolchainResolver{bctx: bctx}
}

// Resolve returns the toolchain for a target, or a ConfigurationError when
// the host lacks what the target needs (no NDK, no SDK, no cross
// toolchain). There is no fallback target.
func (r *ToolchainResolver) Resolve(target Target) (*ToolchainConfig, error) {
	var (
		tc  *ToolchainConfig
		err error
	)
	switch target.Platform {
	case PlatformAndroid:
		tc, err = r.resolveAndroid(target)
	case PlatformIOS:
		tc, err = r.resolveIOS(target)
	case PlatformDesktop:
		tc, err = r.resolveDesktop(target)
	default:
		return nil, &UnsupportedTargetError{Platform: target.Platform, Arch: target.Arch}
	}
	if err != nil {
		return nil, err
	}
	if err := tc.Validate(); err != nil {
		return nil, fmt.Errorf("resolved toolchain for %s is incomplete: %w", target.Name(), err)
	}
	return tc, nil
}
