package nativedeps

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// copyFile copies src to dest, creating parent directories. Outputs from
// some native build systems (ninja in particular) come out read-only;
// installed copies always get owner write permission back so a later
// clean or re-install does not fail.
func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}
	if mkErr := os.MkdirAll(filepath.Dir(destPath), 0o755); mkErr != nil {
		return mkErr
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	mode := info.Mode().Perm() | 0o200
	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// O_CREATE honors umask; re-assert the writable mode explicitly.
	return os.Chmod(destPath, mode)
}

// copyGlob copies files matching pattern under srcRoot into destRoot.
// Used only for header directories, where the public set is "every .h in
// the export directory" rather than a hand-kept list.
func copyGlob(srcRoot, pattern, destRoot string) error {
	matches, err := filepath.Glob(filepath.Join(srcRoot, pattern))
	if err != nil {
		return err
	}
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if err := copyFile(match, filepath.Join(destRoot, filepath.Base(match))); err != nil {
			return err
		}
	}
	return nil
}

// uniqueStrings drops duplicates and empty strings, preserving order.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

// splitCommand splits a CC-style value ("xcrun -sdk iphoneos clang") into
// argv form. Toolchain fields may carry flags after the binary; configure
// environments accept that, direct exec does not.
func splitCommand(command string) (string, []string) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

// outputTail keeps the last n lines of build output for error reporting.
func outputTail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}
