// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

const defaultMaxWorkers = 8

func filterItems(items []PlanItem, allow, ignore []string) []PlanItem {
	out := make([]PlanItem, 0, len(items))
	for _, it := range items {
		if passesFilters(it.RelativePath, allow, ignore) {
			out = append(out, it)
		}
	}
	return out
}

func buildSession(cfg Settings) (*Session, error) {
	if cfg.Proxy != nil {
		client, err := BuildHTTPClient(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		return NewSession(func() *http.Client { return client }), nil
	}
	return NewSession(nil), nil
}

// PlanRepo resolves job's revision to a commit and lists the filtered file
// set that a Download of the same job would fetch, without downloading
// anything (C11's listing step only).
func PlanRepo(ctx context.Context, job Job, cfg Settings) (*Plan, error) {
	if err := validate(job, cfg); err != nil {
		return nil, err
	}
	sess, err := buildSession(cfg)
	if err != nil {
		return nil, err
	}
	commit, items, err := listRepoFiles(ctx, sess, cfg.endpoint(), cfg.token(), job.repoType(), job.Repo, job.revision())
	if err != nil {
		return nil, err
	}
	items = filterItems(items, job.Filters, job.Excludes)
	return &Plan{Repo: job.Repo, Commit: commit, Items: items}, nil
}

// Download orchestrates the full snapshot fetch for job: list files (C11),
// then drive the single-file coordinator (C10) for each surviving item
// under bounded concurrency.
func Download(ctx context.Context, job Job, cfg Settings, progress ProgressFunc) error {
	if err := validate(job, cfg); err != nil {
		return err
	}

	cache, err := cfg.BuildHFCache()
	if err != nil {
		return err
	}
	sess, err := buildSession(cfg)
	if err != nil {
		return err
	}

	progress.emit(ProgressEvent{Event: "scan_start", Repo: job.Repo, Revision: job.revision()})

	commit, items, err := listRepoFiles(ctx, sess, cfg.endpoint(), cfg.token(), job.repoType(), job.Repo, job.revision())
	if err != nil {
		progress.emit(ProgressEvent{Event: "error", Repo: job.Repo, Message: err.Error()})
		return err
	}
	items = filterItems(items, job.Filters, job.Excludes)
	progress.emit(ProgressEvent{Event: "scan_done", Repo: job.Repo, Total: int64(len(items))})

	repoDir, err := cache.Repo(job.Repo, job.repoType())
	if err != nil {
		return err
	}
	if err := repoDir.EnsureDirs(); err != nil {
		return err
	}

	if job.revision() != commit {
		if stored, _ := repoDir.ReadRef(job.revision()); stored != commit {
			if err := repoDir.WriteRef(job.revision(), commit); err != nil {
				return err
			}
		}
	}

	workers := cfg.Concurrency
	if workers <= 0 {
		workers = defaultMaxWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, it := range items {
		it := it
		g.Go(func() error {
			return fetchOneFile(gctx, cache, repoDir, sess, job, cfg, commit, it, progress)
		})
	}

	if err := g.Wait(); err != nil {
		progress.emit(ProgressEvent{Event: "error", Repo: job.Repo, Message: err.Error()})
		return err
	}

	progress.emit(ProgressEvent{Event: "done", Repo: job.Repo, Message: "download complete"})
	return nil
}

// ScanPlan runs the same listing+filtering step as Download but emits
// progress events describing the plan without transferring any bytes. It
// backs server-side "preview this download" requests.
func ScanPlan(ctx context.Context, job Job, cfg Settings, progress ProgressFunc) error {
	if err := validate(job, cfg); err != nil {
		return err
	}
	progress.emit(ProgressEvent{Event: "scan_start", Repo: job.Repo, Revision: job.revision()})

	plan, err := PlanRepo(ctx, job, cfg)
	if err != nil {
		progress.emit(ProgressEvent{Event: "error", Repo: job.Repo, Message: err.Error()})
		return err
	}

	var totalSize int64
	for _, item := range plan.Items {
		totalSize += item.Size
		progress.emit(ProgressEvent{
			Event:    "file_start",
			Repo:     job.Repo,
			Revision: plan.Commit,
			Path:     item.RelativePath,
			Total:    item.Size,
			IsLFS:    item.LFS,
		})
	}

	progress.emit(ProgressEvent{Event: "scan_done", Repo: job.Repo, Revision: plan.Commit, Total: totalSize})
	return nil
}

// fetchOneFile implements the single-file coordinator (C10) for one
// resolved item of a snapshot job.
func fetchOneFile(ctx context.Context, cache *HFCache, repoDir *RepoDir, sess *Session, job Job, cfg Settings, commit string, item PlanItem, progress ProgressFunc) error {
	progress.emit(ProgressEvent{Event: "file_start", Repo: job.Repo, Revision: commit, Path: item.RelativePath, Total: item.Size, IsLFS: item.LFS})

	if cfg.LocalDir != "" {
		return fetchOneFileLocal(ctx, cache, repoDir, sess, job, cfg, commit, item, progress)
	}

	if !cfg.ForceDownload {
		if dst, err := pointerPath(repoDir.Path(), commit, item.RelativePath); err == nil {
			if _, statErr := os.Stat(dst); statErr == nil {
				progress.emit(ProgressEvent{Event: "file_done", Repo: job.Repo, Revision: commit, Path: item.RelativePath, Total: item.Size, Message: "cache hit, skip"})
				return nil
			}
		}
		if repoDir.IsNoExist(commit, item.RelativePath) {
			progress.emit(ProgressEvent{Event: "file_done", Repo: job.Repo, Revision: commit, Path: item.RelativePath, Message: "cached-absent, skip"})
			return nil
		}
	}

	headers := make(http.Header)
	if tok := cfg.token(); tok != "" {
		headers.Set("Authorization", "Bearer "+tok)
	}
	url := resolveURL(cfg.endpoint(), job.repoType(), job.Repo, commit, item.RelativePath)

	meta, err := headMetadata(ctx, sess, url, headers, cfg.Retries)
	if err != nil {
		return offlineFallback(repoDir, cache, job, cfg, commit, item, err)
	}

	getHeaders := headers.Clone()
	getURL := meta.Location
	if getURL == "" {
		getURL = url
	}

	var entryErr *EntryNotFoundError
	newBlob, err := ensureBlob(ctx, repoDir, sess, getURL, getHeaders, meta, nil)
	if err != nil {
		if errors.As(err, &entryErr) {
			if markErr := repoDir.MarkNoExist(commit, item.RelativePath); markErr != nil {
				return markErr
			}
			progress.emit(ProgressEvent{Event: "file_done", Repo: job.Repo, Revision: commit, Path: item.RelativePath, Message: "absent on server"})
			return nil
		}
		return err
	}

	if err := materializePointer(repoDir, commit, item.RelativePath, meta.ETag, newBlob); err != nil {
		return err
	}

	if err := repoDir.EnsureFriendlyDir(); err == nil {
		subdir := ""
		if job.AppendFilterSubdir && len(job.Filters) == 1 {
			subdir = filepath.Base(job.Filters[0])
		}
		_ = repoDir.CreateFriendlySymlink(commit, item.RelativePath, subdir)
	}

	progress.emit(ProgressEvent{Event: "file_done", Repo: job.Repo, Revision: commit, Path: item.RelativePath, Total: item.Size, Downloaded: item.Size})
	return nil
}

func fetchOneFileLocal(ctx context.Context, cache *HFCache, repoDir *RepoDir, sess *Session, job Job, cfg Settings, commit string, item PlanItem, progress ProgressFunc) error {
	if !cfg.ForceDownload {
		dst := filepath.Join(cfg.LocalDir, item.RelativePath)
		if skip, reason, err := shouldSkipLocal(item, dst); err == nil && skip {
			progress.emit(ProgressEvent{Event: "file_done", Repo: job.Repo, Revision: commit, Path: item.RelativePath, Message: reason})
			return nil
		}
	}

	headers := make(http.Header)
	if tok := cfg.token(); tok != "" {
		headers.Set("Authorization", "Bearer "+tok)
	}
	url := resolveURL(cfg.endpoint(), job.repoType(), job.Repo, commit, item.RelativePath)

	_, err := fetchLocal(ctx, cache, repoDir, sess, cfg.LocalDir, item.RelativePath, commit, job.revision(), url, headers, cfg)
	if err != nil {
		return err
	}
	progress.emit(ProgressEvent{Event: "file_done", Repo: job.Repo, Revision: commit, Path: item.RelativePath, Total: item.Size, Downloaded: item.Size})
	return nil
}

// offlineFallback implements C10's offline-satisfaction branch: a HEAD
// failure is not itself fatal if the revision resolves to a commit whose
// pointer already exists locally.
func offlineFallback(repoDir *RepoDir, cache *HFCache, job Job, cfg Settings, commit string, item PlanItem, probeErr error) error {
	var repoNotFound *RepositoryNotFoundError
	var gated *GatedRepoError
	if errors.As(probeErr, &repoNotFound) || errors.As(probeErr, &gated) {
		return probeErr
	}

	resolvedCommit := commit
	if !isCommitHash(job.Revision) {
		if stored, err := repoDir.ReadRef(job.revision()); err == nil && stored != "" {
			resolvedCommit = stored
		}
	}

	if dst, err := pointerPath(repoDir.Path(), resolvedCommit, item.RelativePath); err == nil {
		if _, statErr := os.Stat(dst); statErr == nil {
			return nil
		}
	}

	if cfg.LocalFilesOnly {
		return &LocalEntryNotFoundError{Message: "hfdownloader: local_files_only set and no cached copy of " + item.RelativePath, Cause: probeErr}
	}

	return &LocalEntryNotFoundError{Message: "hfdownloader: could not reach the Hub and no cached copy of " + item.RelativePath + " exists", Cause: probeErr}
}
