package nativedeps

import (
	"os"
	"path/filepath"
)

// completionMarker is written by the final install step of a successful
// build. The default cache check ignores it; strict mode requires it,
// closing the window where an interrupted copy leaves a directory that
// looks complete.
const completionMarker = ".nativedeps-complete"

// ArtifactCache answers "does this (library, target) pair need building"
// from the dist tree alone. The canonical directory's presence is the
// "built" status; there is no manifest, no hashing and no file counting.
// That trades strict reproducibility for fast incremental iteration, and
// it means a partially populated directory from an interrupted run is
// trusted unless strict mode is on.
type ArtifactCache struct {
	Layout ArtifactLayout

	// Strict additionally requires the completion marker the install step
	// writes last.
	Strict bool
}

// IsBuilt reports whether the pair's canonical dist directory exists.
// A true result means the pair is skipped unconditionally.
func (c ArtifactCache) IsBuilt(lib string, target Target) bool {
	dir := c.Layout.LibraryDir(lib, target)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	if c.Strict {
		if _, err := os.Stat(filepath.Join(dir, completionMarker)); err != nil {
			return false
		}
	}
	return true
}

// MarkComplete writes the completion marker after every allowlisted
// artifact has been copied.
func (c ArtifactCache) MarkComplete(lib string, target Target) error {
	return writeCompletionMarker(c.Layout.LibraryDir(lib, target))
}

func writeCompletionMarker(dir string) error {
	marker := filepath.Join(dir, completionMarker)
	return os.WriteFile(marker, []byte("ok\n"), 0o644)
}

// Invalidate removes the pair's dist directory so the next run rebuilds it.
func (c ArtifactCache) Invalidate(lib string, target Target) error {
	return os.RemoveAll(c.Layout.LibraryDir(lib, target))
}
