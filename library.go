package nativedeps

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// Library names used throughout the package. The set is closed: builders,
// the dependency graph and the layout tables are all keyed on these.
const (
	LibNSS       = "nss"
	LibOpenSSL   = "openssl"
	LibSQLCipher = "sqlcipher"
	LibJansson   = "jansson"
	LibCJose     = "cjose"
)

// CryptoBackend selects the crypto primitives library a platform links
// against. It is platform configuration: the same backend feeds both the
// SQL engine's dependency edge and its configure feature flags.
type CryptoBackend string

const (
	BackendNSS     CryptoBackend = LibNSS
	BackendOpenSSL CryptoBackend = LibOpenSSL
)

// Library is one third-party library pinned to an exact upstream source.
type Library struct {
	Name    string
	Version string
	URL     string
	SHA256  string

	// ConfigureFlags are flags every target passes to the library's own
	// build system, before any per-target or per-platform additions.
	ConfigureFlags []string

	// DependsOn names libraries whose dist directories must exist for the
	// same target before this library builds. The planner resolves the
	// special name "crypto" to the platform's chosen backend.
	DependsOn []string
}

// cryptoPlaceholder is the unresolved edge to "whichever crypto backend
// the platform picked".
const cryptoPlaceholder = "crypto"

//go:embed deps.toml
var defaultPins []byte

type pinFile struct {
	Libraries map[string]struct {
		Version string `toml:"version"`
		URL     string `toml:"url"`
		SHA256  string `toml:"sha256"`
	} `toml:"libraries"`
}

// LibraryRegistry holds the fixed library set with versions and checksums
// loaded from the pin file.
type LibraryRegistry struct {
	libs map[string]*Library
}

// NewLibraryRegistry loads the embedded pin file.
func NewLibraryRegistry() (*LibraryRegistry, error) {
	return newRegistryFromPins(defaultPins)
}

// NewLibraryRegistryFromFile loads pins from an on-disk override, used to
// test against unreleased library versions.
func NewLibraryRegistryFromFile(path string) (*LibraryRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pin file: %w", err)
	}
	return newRegistryFromPins(data)
}

func newRegistryFromPins(data []byte) (*LibraryRegistry, error) {
	var pins pinFile
	if err := toml.Unmarshal(data, &pins); err != nil {
		return nil, fmt.Errorf("parsing pin file: %w", err)
	}

	reg := &LibraryRegistry{libs: map[string]*Library{
		LibNSS: {
			Name: LibNSS,
		},
		LibOpenSSL: {
			Name:           LibOpenSSL,
			ConfigureFlags: []string{"no-shared", "no-ssl3", "no-comp", "no-hw", "no-engine"},
		},
		LibSQLCipher: {
			Name:      LibSQLCipher,
			DependsOn: []string{cryptoPlaceholder},
			ConfigureFlags: []string{
				"--enable-tempstore=yes",
				"--disable-tcl",
				"--disable-shared",
			},
		},
		LibJansson: {
			Name:           LibJansson,
			ConfigureFlags: []string{"-DJANSSON_BUILD_SHARED_LIBS=OFF", "-DJANSSON_WITHOUT_TESTS=ON", "-DJANSSON_EXAMPLES=OFF"},
		},
		LibCJose: {
			Name:      LibCJose,
			DependsOn: []string{LibJansson, cryptoPlaceholder},
			ConfigureFlags: []string{
				"--disable-shared",
				"--enable-static",
			},
		},
	}}

	for name, lib := range reg.libs {
		pin, ok := pins.Libraries[name]
		if !ok {
			return nil, configErrorf("pin file has no entry for library %q", name)
		}
		if pin.URL == "" || len(pin.SHA256) != 64 {
			return nil, configErrorf("pin for %q needs a url and a 64-hex-digit sha256", name)
		}
		lib.Version = pin.Version
		lib.URL = pin.URL
		lib.SHA256 = pin.SHA256
	}
	return reg, nil
}

// Lookup returns a registered library by name.
func (r *LibraryRegistry) Lookup(name string) (*Library, error) {
	lib, ok := r.libs[name]
	if !ok {
		return nil, configErrorf("unknown library %q", name)
	}
	return lib, nil
}

// Names returns all registered library names, sorted.
func (r *LibraryRegistry) Names() []string {
	names := make([]string, 0, len(r.libs))
	for name := range r.libs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PlatformConfig is the per-platform build configuration that is not a
// property of any single library.
type PlatformConfig struct {
	// Crypto is the crypto backend the platform links against.
	Crypto CryptoBackend

	// Libraries is the set built by build-all for this platform, before
	// dependency expansion and ordering.
	Libraries []string
}

// DefaultPlatformConfig returns the shipped configuration for a platform.
// Every platform currently uses NSS; the OpenSSL backend stays selectable
// for bisecting crypto-layer regressions.
func DefaultPlatformConfig(platform Platform) PlatformConfig {
	return PlatformConfig{
		Crypto:    BackendNSS,
		Libraries: []string{LibNSS, LibSQLCipher, LibJansson, LibCJose},
	}
}

// resolveDeps maps a library's dependency names to concrete libraries,
// substituting the platform's crypto backend for the placeholder edge.
func resolveDeps(lib *Library, cfg PlatformConfig) []string {
	deps := make([]string, 0, len(lib.DependsOn))
	for _, dep := range lib.DependsOn {
		if dep == cryptoPlaceholder {
			dep = string(cfg.Crypto)
		}
		deps = append(deps, dep)
	}
	return deps
}
