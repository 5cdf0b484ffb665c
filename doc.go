// Package nativedeps builds the native C dependencies of a cross-platform
// storage stack from source, for every platform and architecture the stack
// ships on, and lays the results out for downstream FFI builds.
//
// # Libraries
//
// The package knows how to build a fixed set of libraries:
//   - nss - crypto primitives (gyp + ninja)
//   - openssl - alternative crypto backend (Configure + make)
//   - sqlcipher - encrypted SQL engine (configure + make)
//   - jansson - JSON library used by the legacy JOSE stack (CMake)
//   - cjose - legacy JOSE library (configure + make)
//
// Which crypto backend a platform uses is platform configuration, not a
// library fact; the dependency planner threads the choice through both the
// graph edges and the SQL engine's configure flags.
//
// # Basic Usage
//
// Create an orchestrator and build every library for one platform:
//
//	bctx, err := nativedeps.NewBuildContext(rootDir, logger)
//	if err != nil {
//	    return err
//	}
//
//	orch, err := nativedeps.NewOrchestrator(bctx)
//	if err != nil {
//	    return err
//	}
//
//	if err := orch.BuildAll(nativedeps.PlatformAndroid); err != nil {
//	    return err
//	}
//
// # Architecture
//
// The pipeline for each (library, target) pair:
//
//	BuildPlan (dependency order)
//	├── ArtifactCache check (skip if dist dir exists)
//	├── ToolchainResolver (compilers, flags, sysroot)
//	├── Builder (clean → configure → compile → install allowlist)
//	└── UniversalAssembler (iOS only, lipo fat archives)
//
// Source tarballs are fetched over HTTPS and verified against pinned
// SHA-256 checksums before anything is extracted or built.
//
// # Output Layout
//
// Built artifacts land in a fixed layout consumed by downstream builds:
//
//	<dist>/<platform>/<arch>/<library>/include
//	<dist>/<platform>/<arch>/<library>/lib
//	<dist>/ios/universal/<library>/{include,lib}
//
// The presence of a library's dist directory is also its build-completion
// marker: a subsequent run skips the pair without deeper validation.
//
// # Platform Support
//
// Desktop Linux, macOS (natively or cross-compiled from Linux), Windows
// (MinGW cross), Android via the NDK across four ABIs, and iOS device and
// simulator architectures.
package nativedeps
