package nativedeps

import (
	"os"
	"path/filepath"
)

// UniversalAssembler merges per-architecture iOS static archives into
// multi-architecture archives with lipo.
//
// Only targets marked mergeable participate: the arm64 simulator slice
// shares its architecture name with the arm64 device slice, and lipo
// refuses duplicate architectures in one output, so the simulator slice
// stays per-arch and is consumed directly by simulator-only build
// configurations.
type UniversalAssembler struct {
	Layout ArtifactLayout
}

// MergeSources returns the per-arch archive paths that participate in the
// universal archive for one library file, in catalog order.
func (a UniversalAssembler) MergeSources(targets []Target, lib, archive string) []string {
	var sources []string
	for _, target := range targets {
		if target.Platform != PlatformIOS || !target.Mergeable {
			continue
		}
		sources = append(sources, filepath.Join(a.Layout.LibDir(lib, target), archive))
	}
	return sources
}

// Assemble builds the universal tree for one library: every archive
// present for the mergeable targets is lipo'd into
// ios/universal/<lib>/lib, and the headers are copied from the first
// mergeable target (they are identical across slices by construction).
// Existing universal archives are skipped.
func (a UniversalAssembler) Assemble(bctx *BuildContext, targets []Target, lib string) error {
	var first *Target
	for i := range targets {
		if targets[i].Platform == PlatformIOS && targets[i].Mergeable {
			first = &targets[i]
			break
		}
	}
	if first == nil {
		return configErrorf("no mergeable iOS targets in catalog")
	}

	archives, err := a.archiveNames(lib, *first)
	if err != nil {
		return err
	}

	outLibDir := filepath.Join(a.Layout.UniversalDir(lib), "lib")
	if err := os.MkdirAll(outLibDir, 0o755); err != nil {
		return err
	}

	for _, archive := range archives {
		dest := filepath.Join(outLibDir, archive)
		if _, err := os.Stat(dest); err == nil {
			bctx.Logger.Debug().Str("archive", dest).Msg("universal archive exists, skipping")
			continue
		}

		sources := a.existingSources(a.MergeSources(targets, lib, archive))
		if len(sources) == 0 {
			continue
		}

		step := &NativeBuildStep{
			Command:         "lipo",
			Args:            append(append([]string{"-create"}, sources...), "-output", dest),
			Dir:             outLibDir,
			ExpectedOutputs: []string{dest},
		}
		if err := step.Run(bctx); err != nil {
			return err
		}
	}

	outIncludeDir := filepath.Join(a.Layout.UniversalDir(lib), "include")
	if err := os.MkdirAll(outIncludeDir, 0o755); err != nil {
		return err
	}
	return copyGlob(a.Layout.IncludeDir(lib, *first), "*.h", outIncludeDir)
}

// archiveNames lists the archive files present for one built slice; that
// set defines what the universal tree will contain.
func (a UniversalAssembler) archiveNames(lib string, target Target) ([]string, error) {
	entries, err := os.ReadDir(a.Layout.LibDir(lib, target))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".a" {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (a UniversalAssembler) existingSources(candidates []string) []string {
	var present []string
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			present = append(present, c)
		}
	}
	return present
}
