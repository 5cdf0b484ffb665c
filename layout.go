package nativedeps

import (
	"path/filepath"
	"sort"
)

// ArtifactLayout is the directory contract downstream FFI builds consume:
//
//	<dist>/<platform>/<distalias>/<library>/include
//	<dist>/<platform>/<distalias>/<library>/lib
//
// plus, for iOS, the merged multi-architecture archives under
//
//	<dist>/ios/universal/<library>/{include,lib}
//
// Downstream builds locate headers and archives through the environment
// variables reported by EnvReport.
type ArtifactLayout struct {
	DistRoot string
}

// LibraryDir is the canonical dist directory for a (library, target) pair.
// Its existence doubles as the build-completion marker.
func (l ArtifactLayout) LibraryDir(lib string, target Target) string {
	return filepath.Join(l.DistRoot, target.Platform.String(), target.DistAlias, lib)
}

// IncludeDir holds the library's public headers.
func (l ArtifactLayout) IncludeDir(lib string, target Target) string {
	return filepath.Join(l.LibraryDir(lib, target), "include")
}

// LibDir holds the library's compiled archives.
func (l ArtifactLayout) LibDir(lib string, target Target) string {
	return filepath.Join(l.LibraryDir(lib, target), "lib")
}

// UniversalDir is the iOS fat-archive location for a library.
func (l ArtifactLayout) UniversalDir(lib string) string {
	return filepath.Join(l.DistRoot, "ios", "universal", lib)
}

// Downstream env variable names. These match what the consumer build
// systems read to find each library.
const (
	EnvOutNSSDir        = "NSS_DIR"
	EnvOutNSSStatic     = "NSS_STATIC"
	EnvOutOpenSSLDir    = "OPENSSL_DIR"
	EnvOutOpenSSLStatic = "OPENSSL_STATIC"
	EnvOutSQLCipherLib  = "SQLCIPHER_LIB_DIR"
	EnvOutSQLCipherInc  = "SQLCIPHER_INCLUDE_DIR"
	EnvOutJanssonDir    = "JANSSON_DIR"
	EnvOutCJoseDir      = "CJOSE_DIR"
)

// EnvReport maps downstream environment variable names to values for one
// target's dist tree. Only libraries present on disk are reported.
func (l ArtifactLayout) EnvReport(target Target, built map[string]bool) map[string]string {
	report := make(map[string]string)
	if built[LibNSS] {
		report[EnvOutNSSDir] = l.LibraryDir(LibNSS, target)
		report[EnvOutNSSStatic] = "1"
	}
	if built[LibOpenSSL] {
		report[EnvOutOpenSSLDir] = l.LibraryDir(LibOpenSSL, target)
		report[EnvOutOpenSSLStatic] = "1"
	}
	if built[LibSQLCipher] {
		report[EnvOutSQLCipherLib] = l.LibDir(LibSQLCipher, target)
		report[EnvOutSQLCipherInc] = l.IncludeDir(LibSQLCipher, target)
	}
	if built[LibJansson] {
		report[EnvOutJanssonDir] = l.LibraryDir(LibJansson, target)
	}
	if built[LibCJose] {
		report[EnvOutCJoseDir] = l.LibraryDir(LibCJose, target)
	}
	return report
}

// SortedKeys returns env report keys in deterministic order for printing.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
