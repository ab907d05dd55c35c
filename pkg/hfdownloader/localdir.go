// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const localDirProduct = "hfdownloader"

// localSidecar is the three-line freshness record kept alongside a
// local-dir mirrored file.
type localSidecar struct {
	Commit string
	ETag   string
	MTime  time.Time
}

func localDirCacheRoot(localDir string) string {
	return filepath.Join(localDir, ".cache", localDirProduct, "download")
}

func localMetadataPath(localDir, rel string) string {
	return filepath.Join(localDirCacheRoot(localDir), rel+".metadata")
}

func localLockPath(localDir, rel string) string {
	return filepath.Join(localDirCacheRoot(localDir), rel+".lock")
}

func localIncompletePath(localDir, rel, etag string) string {
	return filepath.Join(localDirCacheRoot(localDir), incompleteBasename(rel, etag))
}

// ensureGitignore writes the local mirror's one-line ".gitignore" exactly
// once per mirror.
func ensureGitignore(localDir string) error {
	p := filepath.Join(localDir, ".cache", localDirProduct, ".gitignore")
	if _, err := os.Stat(p); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, []byte("*\n"), 0o644)
}

func readLocalSidecar(path string) (*localSidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 3 {
		return nil, fmt.Errorf("malformed sidecar %s", path)
	}
	secs, err := strconv.ParseFloat(lines[2], 64)
	if err != nil {
		return nil, fmt.Errorf("malformed sidecar timestamp %s: %w", path, err)
	}
	return &localSidecar{
		Commit: lines[0],
		ETag:   lines[1],
		MTime:  time.Unix(0, int64(secs*1e9)),
	}, nil
}

func writeLocalSidecar(path string, s *localSidecar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	content := fmt.Sprintf("%s\n%s\n%.6f\n", s.Commit, s.ETag, float64(s.MTime.UnixNano())/1e9)
	return os.WriteFile(path, []byte(content), 0o644)
}

// sidecarStale compares the destination file's mtime against the sidecar's
// stored timestamp with a 1-second tolerance.
func sidecarStale(dst string, sidecarMTime time.Time) bool {
	info, err := os.Stat(dst)
	if err != nil {
		return true
	}
	diff := info.ModTime().Sub(sidecarMTime)
	if diff < 0 {
		diff = -diff
	}
	return diff > time.Second
}

// fetchLocal implements C9: replicate one repository file into localDir,
// using sidecar metadata to avoid redundant network round-trips.
func fetchLocal(ctx context.Context, cache *HFCache, r *RepoDir, sess *Session, localDir, rel, commit, revision, headURL string, headers http.Header, settings Settings) (string, error) {
	if err := ensureGitignore(localDir); err != nil {
		return "", err
	}

	dst := filepath.Join(localDir, rel)
	sidecarPath := localMetadataPath(localDir, rel)
	lockPath := localLockPath(localDir, rel)

	var resultPath string
	err := WithLock(ctx, lockPath, func() error {
		isHash := isCommitHash(revision)

		if sc, err := readLocalSidecar(sidecarPath); err == nil {
			if isHash && sc.Commit == commit && !sidecarStale(dst, sc.MTime) {
				resultPath = dst
				return nil
			}
		}

		meta, probeErr := headMetadata(ctx, sess, headURL, headers, settings.Retries)
		if probeErr == nil {
			if sc, err := readLocalSidecar(sidecarPath); err == nil && sc.ETag == meta.ETag {
				if _, statErr := os.Stat(dst); statErr == nil {
					sc.Commit = meta.Commit
					sc.MTime = time.Now()
					resultPath = dst
					return writeLocalSidecar(sidecarPath, sc)
				}
			}

			if _, err := os.Stat(sidecarPath); os.IsNotExist(err) {
				if _, statErr := os.Stat(dst); statErr == nil && looksLikeSHA256(meta.ETag) {
					if hashErr := verifySHA256(dst, meta.ETag); hashErr == nil {
						resultPath = dst
						return writeLocalSidecar(sidecarPath, &localSidecar{Commit: meta.Commit, ETag: meta.ETag, MTime: time.Now()})
					}
				}
			}

			if cachedRepo, repoErr := cache.Repo(r.RepoID(), r.Type()); repoErr == nil {
				blobPath := cachedRepo.BlobPath(meta.ETag)
				if _, statErr := os.Stat(blobPath); statErr == nil {
					os.Remove(dst)
					if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
						return err
					}
					if err := hardCopy(blobPath, dst); err != nil {
						return err
					}
					resultPath = dst
					return writeLocalSidecar(sidecarPath, &localSidecar{Commit: meta.Commit, ETag: meta.ETag, MTime: time.Now()})
				}
			}

			os.Remove(dst)
			incPath := localIncompletePath(localDir, rel, meta.ETag)
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(incPath, os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			var resume int64
			if fi, statErr := os.Stat(incPath); statErr == nil {
				resume = fi.Size()
			}
			getURL := meta.Location
			if getURL == "" {
				getURL = headURL
			}
			if err := httpGet(ctx, sess, getURL, headers, f, resume, meta.Size, nil, meta.Xet, false); err != nil {
				f.Close()
				return err
			}
			f.Close()
			if err := os.Rename(incPath, dst); err != nil {
				return err
			}
			resultPath = dst
			return writeLocalSidecar(sidecarPath, &localSidecar{Commit: meta.Commit, ETag: meta.ETag, MTime: time.Now()})
		}

		if isHash {
			if _, statErr := os.Stat(dst); statErr == nil {
				resultPath = dst
				return nil
			}
		}
		return &LocalEntryNotFoundError{Message: fmt.Sprintf("cannot satisfy %s locally or over the network: %v", rel, probeErr), Cause: probeErr}
	})

	return resultPath, err
}

func hardCopy(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	return copyFile(src, dst)
}

func looksLikeSHA256(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func isCommitHash(revision string) bool {
	if len(revision) != 40 {
		return false
	}
	for _, c := range revision {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
