package nativedeps

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Fetcher downloads pinned source tarballs over HTTPS and verifies them
// against their SHA-256 checksum before anything is extracted. A CI
// prefetch directory short-circuits the download but never the checksum.
type Fetcher struct {
	bctx   *BuildContext
	client *http.Client
}

// NewFetcher returns a fetcher using the context's download and prefetch
// directories.
func NewFetcher(bctx *BuildContext) *Fetcher {
	return &Fetcher{bctx: bctx, client: http.DefaultClient}
}

// Fetch returns the local path of the verified tarball for a library,
// downloading it if it is neither prefetched nor already cached. The
// returned path has passed the checksum gate; an IntegrityError here means
// nothing was extracted and nothing will build.
func (f *Fetcher) Fetch(lib *Library) (string, error) {
	filename := filepath.Base(lib.URL)

	if f.bctx.PrefetchDir != "" {
		prefetched := filepath.Join(f.bctx.PrefetchDir, filename)
		if _, err := os.Stat(prefetched); err == nil {
			if err := f.verify(lib, prefetched); err != nil {
				return "", err
			}
			f.bctx.Logger.Debug().Str("library", lib.Name).Str("path", prefetched).Msg("using prefetched tarball")
			return prefetched, nil
		}
	}

	cached := filepath.Join(f.bctx.DownloadDir(), filename)
	if _, err := os.Stat(cached); err == nil {
		if err := f.verify(lib, cached); err == nil {
			return cached, nil
		}
		// Stale or truncated earlier download; fetch again.
		if err := os.Remove(cached); err != nil {
			return "", err
		}
	}

	if err := f.download(lib.URL, cached); err != nil {
		return "", err
	}
	if err := f.verify(lib, cached); err != nil {
		return "", err
	}
	return cached, nil
}

func (f *Fetcher) download(url, dest string) error {
	f.bctx.Logger.Info().Str("url", url).Msg("downloading")

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	resp, err := f.client.Get(url)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}

func (f *Fetcher) verify(lib *Library, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return err
	}
	actual := hex.EncodeToString(hash.Sum(nil))
	if !strings.EqualFold(actual, lib.SHA256) {
		return &IntegrityError{
			Library:  lib.Name,
			Path:     path,
			Expected: strings.ToLower(lib.SHA256),
			Actual:   actual,
		}
	}
	return nil
}

// Extract unpacks a verified tarball into a fresh per-run directory under
// the work tree and returns the source root (the tarball's single
// top-level directory when it has one, the extraction root otherwise).
// Each (library, target) extraction gets its own directory so a build
// mutating its source tree cannot contaminate another target in the same
// run.
func Extract(bctx *BuildContext, tarball, lib string, target Target) (string, error) {
	destRoot := filepath.Join(bctx.WorkDir(),
		fmt.Sprintf("%s-%s-%s-%s", lib, target.Platform, target.DistAlias, uuid.NewString()[:8]))
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return "", err
	}

	file, err := os.Open(tarball)
	if err != nil {
		return "", err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", tarball, err)
	}
	defer gz.Close()

	var topLevel string
	singleTop := true

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("extracting %s: %w", tarball, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir, tar.TypeSymlink, tar.TypeReg:
		default:
			// pax_global_header and friends are metadata, not content.
			continue
		}

		name := filepath.Clean(hdr.Name)
		if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			continue
		}
		top := strings.SplitN(filepath.ToSlash(name), "/", 2)[0]
		if topLevel == "" {
			topLevel = top
		} else if top != topLevel {
			singleTop = false
		}

		dest := filepath.Join(destRoot, name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return "", err
			}
		case tar.TypeSymlink:
			if !linkStaysInside(name, hdr.Linkname) {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return "", err
			}
			if err := os.Symlink(hdr.Linkname, dest); err != nil && !os.IsExist(err) {
				return "", err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return "", err
			}
			out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode).Perm())
			if err != nil {
				return "", err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return "", err
			}
			if err := out.Close(); err != nil {
				return "", err
			}
		}
	}

	if topLevel != "" && singleTop {
		return filepath.Join(destRoot, topLevel), nil
	}
	return destRoot, nil
}

// linkStaysInside reports whether a symlink at the given archive path,
// pointing at linkname, resolves to somewhere under the extraction root.
func linkStaysInside(name, linkname string) bool {
	if filepath.IsAbs(linkname) {
		return false
	}
	resolved := filepath.Clean(filepath.Join(filepath.Dir(name), linkname))
	return resolved != ".." && !strings.HasPrefix(resolved, ".."+string(filepath.Separator))
}
