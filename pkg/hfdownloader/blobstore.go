// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

var (
	symlinkSupportMu    sync.Mutex
	symlinkSupportCache = map[string]bool{}
)

// NoExistPath returns the .no_exist marker path for (commit, rel).
func (r *RepoDir) NoExistPath(commit, rel string) string {
	return filepath.Join(r.Path(), ".no_exist", commit, rel)
}

// MarkNoExist records that the server confirmed absence of rel at commit.
func (r *RepoDir) MarkNoExist(commit, rel string) error {
	p := r.NoExistPath(commit, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	return f.Close()
}

// IsNoExist reports whether rel was previously marked absent at commit.
func (r *RepoDir) IsNoExist(commit, rel string) bool {
	_, err := os.Stat(r.NoExistPath(commit, rel))
	return err == nil
}

// symlinksSupported probes, once per cache root, whether the filesystem
// backing root supports symlinks. The result is memoized for the process
// lifetime.
func symlinksSupported(root string) bool {
	symlinkSupportMu.Lock()
	defer symlinkSupportMu.Unlock()

	if v, ok := symlinkSupportCache[root]; ok {
		return v
	}

	dir, err := os.MkdirTemp(root, ".hfd-symlink-probe-*")
	if err != nil {
		symlinkSupportCache[root] = false
		return false
	}
	defer os.RemoveAll(dir)

	target := filepath.Join(dir, "target")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		symlinkSupportCache[root] = false
		return false
	}
	link := filepath.Join(dir, "link")
	ok := os.Symlink(target, link) == nil
	symlinkSupportCache[root] = ok
	return ok
}

// cacheDirMode discovers the cache directory's default file mode by
// creating and inspecting a throwaway temp file (process umask is not
// otherwise readable safely).
func cacheDirMode(dir string) os.FileMode {
	f, err := os.CreateTemp(dir, ".hfd-mode-probe-*")
	if err != nil {
		return 0o644
	}
	name := f.Name()
	f.Close()
	defer os.Remove(name)
	info, err := os.Stat(name)
	if err != nil {
		return 0o644
	}
	return info.Mode()
}

// materializePointer creates the pointer at snapshots/<commit>/<rel>,
// preferring a symlink to the blob and falling back to a move (when the
// blob was freshly downloaded) or a copy (when it was already present and
// shared by other references).
func materializePointer(r *RepoDir, commit, rel, sha256 string, newBlob bool) error {
	dst, err := pointerPath(r.Path(), commit, rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if _, err := os.Lstat(dst); err == nil {
		os.Remove(dst)
	}

	if symlinksSupported(r.Path()) {
		return r.createSnapshotSymlinkAt(dst, sha256)
	}

	blobPath := r.BlobPath(sha256)
	mode := cacheDirMode(r.Path())
	if newBlob {
		if err := os.Rename(blobPath, dst); err != nil {
			return err
		}
		return os.Chmod(dst, mode)
	}
	if err := copyFile(blobPath, dst); err != nil {
		return err
	}
	return os.Chmod(dst, mode)
}

// ensureBlob implements C8's hit/miss logic for one (repo, etag) pair under
// the blob's advisory lock: on a hit it returns immediately; on a miss it
// downloads via httpGet into <etag>.incomplete and finalizes it.
func ensureBlob(ctx context.Context, r *RepoDir, sess *Session, url string, headers http.Header, meta *FileMetadata, accel AcceleratedTransport) (newBlob bool, err error) {
	blobPath := r.BlobPath(meta.ETag)
	if _, statErr := os.Stat(blobPath); statErr == nil {
		return false, nil
	}

	lockPath := filepath.Join(filepath.Dir(r.Path()), ".locks", filepath.Base(r.Path()), meta.ETag+".lock")

	err = WithLock(ctx, lockPath, func() error {
		if _, statErr := os.Stat(blobPath); statErr == nil {
			newBlob = false
			return nil
		}

		if err := os.MkdirAll(r.BlobsDir(), 0o755); err != nil {
			return err
		}
		incPath := r.IncompletePath(meta.ETag)

		var resumeSize int64
		if fi, statErr := os.Stat(incPath); statErr == nil {
			resumeSize = fi.Size()
		}

		f, err := os.OpenFile(incPath, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		if resumeSize > 0 {
			if _, err := f.Seek(resumeSize, 0); err != nil {
				f.Close()
				return err
			}
		}

		if err := httpGet(ctx, sess, url, headers, f, resumeSize, meta.Size, accel, meta.Xet, false); err != nil {
			f.Close()
			return err
		}
		f.Close()

		if err := os.Rename(incPath, blobPath); err != nil {
			return fmt.Errorf("finalize blob: %w", err)
		}
		newBlob = true
		return nil
	})
	return newBlob, err
}

// createSnapshotSymlinkAt creates a relative symlink at an already-computed
// destination path dst, pointing at the blob for sha256 (used by
// materializePointer, which has already performed §4.1's path-safety
// validation).
func (r *RepoDir) createSnapshotSymlinkAt(dst, sha256 string) error {
	rel, err := filepath.Rel(filepath.Dir(dst), r.BlobPath(sha256))
	if err != nil {
		return err
	}
	return os.Symlink(rel, dst)
}
