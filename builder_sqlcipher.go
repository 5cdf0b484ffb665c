package nativedeps

import (
	"fmt"
	"path/filepath"
	"strings"
)

// sqlcipherCompileFlags is the SQL engine's compile-time feature set:
// enabled extensions, page/journal defaults, threading mode and
// secure-delete behavior. It is defined exactly once and shared by every
// platform variant. These flags shape the on-disk database format, so any
// per-platform divergence silently breaks cross-device database
// compatibility. Platform-specific additions go in
// sqlcipherPlatformFlags, and may only add flags that do not affect the
// file format.
var sqlcipherCompileFlags = []string{
	"-DSQLITE_HAS_CODEC",
	"-DSQLITE_SOUNDEX",
	"-DHAVE_USLEEP=1",
	"-DSQLITE_MAX_VARIABLE_NUMBER=99999",
	"-DSQLITE_THREADSAFE=1",
	"-DSQLITE_DEFAULT_JOURNAL_SIZE_LIMIT=1048576",
	"-DSQLITE_DEFAULT_PAGE_SIZE=32768",
	"-DSQLITE_MAX_DEFAULT_PAGE_SIZE=32768",
	"-DSQLITE_ENABLE_MEMORY_MANAGEMENT=1",
	"-DSQLITE_ENABLE_UNLOCK_NOTIFY",
	"-DSQLITE_ENABLE_RTREE",
	"-DSQLITE_ENABLE_DBSTAT_VTAB",
	"-DSQLITE_ENABLE_FTS3_PARENTHESIS",
	"-DSQLITE_ENABLE_FTS4",
	"-DSQLITE_ENABLE_FTS5",
	"-DSQLITE_ENABLE_JSON1",
	"-DSQLITE_SECURE_DELETE",
	"-DSQLITE_DEFAULT_MEMSTATUS=0",
	"-DSQLITE_OMIT_DEPRECATED",
	"-DNDEBUG=1",
}

// sqlcipherPlatformFlags are the format-neutral per-platform additions.
func sqlcipherPlatformFlags(target Target) []string {
	switch target.Platform {
	case PlatformAndroid:
		// Bionic has no usleep pre-21 shims and in-memory temp store
		// avoids /tmp, which apps cannot rely on.
		return []string{"-DSQLITE_TEMP_STORE=3", "-DSQLITE_OMIT_LOAD_EXTENSION"}
	case PlatformIOS:
		return []string{"-DSQLITE_TEMP_STORE=3", "-DSQLITE_OMIT_LOAD_EXTENSION", "-DSQLITE_ENABLE_API_ARMOR"}
	default:
		return []string{"-DSQLITE_TEMP_STORE=2"}
	}
}

// SQLCipherBuilder drives sqlcipher's autotools build: configure with the
// resolved toolchain and the shared feature-flag set, make, then install
// the static archive and the public headers.
type SQLCipherBuilder struct{}

func (b *SQLCipherBuilder) Name() string    { return "SQLCipher" }
func (b *SQLCipherBuilder) Library() string { return LibSQLCipher }

func (b *SQLCipherBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: "make", Alternatives: []string{"gmake"}, Purpose: "autotools build driver"},
		{Name: "tclsh", Optional: true, Purpose: "regenerating the amalgamation"},
	}
}

func (b *SQLCipherBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

func (b *SQLCipherBuilder) Build(bctx *BuildContext, spec *BuildSpec) (*BuildResult, error) {
	return runBuild(bctx, spec, b.Name(), buildSteps{
		Configure: b.configure,
		Compile:   b.compile,
		Outputs: func(*BuildSpec) ([]string, []string) {
			return []string{filepath.Join(".libs", "libsqlcipher.a")},
				[]string{"sqlite3.h", "sqlite3ext.h"}
		},
	})
}

func (b *SQLCipherBuilder) configure(bctx *BuildContext, spec *BuildSpec) error {
	cryptoDist, cryptoName, err := cryptoDep(spec)
	if err != nil {
		return err
	}

	cflags := append([]string{}, spec.Toolchain.CFlags...)
	cflags = append(cflags, sqlcipherCompileFlags...)
	cflags = append(cflags, sqlcipherPlatformFlags(spec.Target)...)
	cflags = append(cflags, "-I"+filepath.Join(cryptoDist, "include"))

	ldflags := append([]string{}, spec.Toolchain.LDFlags...)
	ldflags = append(ldflags, "-L"+filepath.Join(cryptoDist, "lib"))

	args := append([]string{}, spec.Library.ConfigureFlags...)
	// The codec backend selection must track the platform's crypto
	// choice; it is the second half of the backend flag, the first being
	// the dependency edge itself.
	switch cryptoName {
	case LibNSS:
		args = append(args, "--with-crypto-lib=nss")
		cflags = append(cflags, "-DSQLCIPHER_CRYPTO_NSS")
		ldflags = append(ldflags, nssLinkLine()...)
	case LibOpenSSL:
		args = append(args, "--with-crypto-lib=openssl")
		cflags = append(cflags, "-DSQLCIPHER_CRYPTO_OPENSSL")
		ldflags = append(ldflags, "-lcrypto")
	}
	if spec.Target.Platform != PlatformDesktop || spec.Target.OS != hostDesktopOS(bctx.HostOS) {
		args = append(args, "--host="+spec.Target.HostTriple)
	}
	args = append(args, "--prefix=/")

	env := append(spec.Toolchain.Env(),
		"CFLAGS="+strings.Join(cflags, " "),
		"LDFLAGS="+strings.Join(ldflags, " "),
	)

	step := &NativeBuildStep{
		Command: "./configure",
		Args:    args,
		Dir:     spec.SourceDir,
		Env:     env,
		ExpectedOutputs: []string{
			filepath.Join(spec.SourceDir, "Makefile"),
		},
	}
	return step.Run(bctx)
}

func (b *SQLCipherBuilder) compile(bctx *BuildContext, spec *BuildSpec) error {
	return RunAll(bctx,
		&NativeBuildStep{
			Command: "make",
			Args:    []string{fmt.Sprintf("-j%d", bctx.Jobs()), "sqlite3.h", "libsqlcipher.la"},
			Dir:     spec.SourceDir,
			ExpectedOutputs: []string{
				filepath.Join(spec.SourceDir, ".libs", "libsqlcipher.a"),
				filepath.Join(spec.SourceDir, "sqlite3.h"),
			},
		},
	)
}

// cryptoDep finds the crypto backend dependency in the spec.
func cryptoDep(spec *BuildSpec) (dir, name string, err error) {
	for _, candidate := range []string{LibNSS, LibOpenSSL} {
		if d, ok := spec.DepDists[candidate]; ok {
			return d, candidate, nil
		}
	}
	return "", "", configErrorf("%s has no crypto backend dist directory", spec.Library.Name)
}

// nssLinkLine is the static link order for NSS's split archives. Order
// matters: certdb pulls from util, softoken from freebl.
func nssLinkLine() []string {
	return []string{
		"-lcertdb", "-lcerthi", "-lcryptohi", "-lfreebl_static",
		"-lnss_static", "-lnssb", "-lnssdev", "-lnsspki", "-lnssutil",
		"-lpk11wrap_static", "-lsoftokn_static",
		"-lplc4", "-lplds4", "-lnspr4",
	}
}

func hostDesktopOS(hostOS string) DesktopOS {
	switch hostOS {
	case "darwin":
		return DesktopDarwin
	case "windows":
		return DesktopWindows
	default:
		return DesktopLinux
	}
}
