// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"encoding/json"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Job describes one repository download request.
type Job struct {
	Repo               string
	IsDataset          bool
	Revision           string
	Filters            []string
	Excludes           []string
	AppendFilterSubdir bool
}

func (j Job) repoType() RepoType {
	if j.IsDataset {
		return RepoTypeDataset
	}
	return RepoTypeModel
}

func (j Job) revision() string {
	if j.Revision == "" {
		return "main"
	}
	return j.Revision
}

// Settings configures a Download/PlanRepo call.
type Settings struct {
	CacheDir           string
	StaleTimeout       string
	Concurrency        int
	MaxActiveDownloads int
	MultipartThreshold string
	Verify             string
	Token              string
	Endpoint           string
	Retries            int
	BackoffInitial     string
	BackoffMax         string
	Proxy              *ProxyConfig
	LocalDir           string
	ForceDownload      bool
	LocalFilesOnly     bool
	// OutputDir, when set, switches the CLI into the legacy flat-directory
	// layout of the original downloader instead of the content-addressed
	// cache. It is consumed by internal/cli, not by Download itself.
	OutputDir string
}

// DefaultSettings returns the settings a bare CLI invocation uses.
func DefaultSettings() Settings {
	return Settings{
		CacheDir:           "",
		StaleTimeout:       "5m",
		Concurrency:        8,
		MaxActiveDownloads: 4,
		MultipartThreshold: "256MiB",
		Verify:             "size",
		Retries:            4,
		BackoffInitial:     "400ms",
		BackoffMax:         "10s",
	}
}

// BuildHFCache constructs an *HFCache from the settings, defaulting CacheDir
// to DefaultCacheDir() and StaleTimeout to DefaultStaleTimeout.
func (s Settings) BuildHFCache() (*HFCache, error) {
	root := s.CacheDir
	if root == "" {
		root = DefaultCacheDir()
	}
	timeout := DefaultStaleTimeout
	if s.StaleTimeout != "" {
		d, err := time.ParseDuration(s.StaleTimeout)
		if err != nil {
			return nil, err
		}
		timeout = d
	}
	return NewHFCache(root, timeout), nil
}

func (s Settings) endpoint() string {
	ep := s.Endpoint
	if ep == "" {
		ep = os.Getenv("HF_ENDPOINT")
	}
	if ep == "" {
		ep = "https://huggingface.co"
	}
	for len(ep) > 0 && ep[len(ep)-1] == '/' {
		ep = ep[:len(ep)-1]
	}
	return ep
}

func (s Settings) token() string {
	if s.Token != "" {
		return s.Token
	}
	if t := os.Getenv("HF_TOKEN"); t != "" {
		return t
	}
	if t := os.Getenv("HUGGING_FACE_HUB_TOKEN"); t != "" {
		return t
	}
	return ""
}

// ProgressEvent is emitted during Download to report progress. Event is one
// of scan_start, scan_done, file_start, file_progress, file_done, done,
// error.
type ProgressEvent struct {
	Time       time.Time
	Level      string
	Event      string
	Repo       string
	Revision   string
	Path       string
	Bytes      int64
	Total      int64
	Downloaded int64
	Attempt    int
	Message    string
	IsLFS      bool
}

// ProgressFunc receives ProgressEvents as a download proceeds. A nil
// ProgressFunc is valid and simply discards events.
type ProgressFunc func(ProgressEvent)

func (p ProgressFunc) emit(e ProgressEvent) {
	if p == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	p(e)
}

// PlanItem is one file a snapshot plan intends to materialize.
type PlanItem struct {
	RelativePath string
	Size         int64
	LFS          bool
	SHA256       string
}

// Plan is the result of PlanRepo: the filtered, resolved file list for one
// repository at one revision.
type Plan struct {
	Repo   string
	Commit string
	Items  []PlanItem
}

// ManifestFilename is the name of the sidecar manifest written to the
// friendly-view directory after a successful download.
const ManifestFilename = "hfd.yaml"

// ManifestFile records one downloaded file's position in a DownloadManifest.
type ManifestFile struct {
	Name string `json:"name" yaml:"name"`
	Size int64  `json:"size" yaml:"size"`
	LFS  bool   `json:"lfs" yaml:"lfs"`
	Blob string `json:"blob,omitempty" yaml:"blob,omitempty"`
}

// DownloadManifest records the outcome of a completed snapshot download.
type DownloadManifest struct {
	Version     string         `json:"version" yaml:"version"`
	Type        string         `json:"type" yaml:"type"`
	Repo        string         `json:"repo" yaml:"repo"`
	Branch      string         `json:"branch" yaml:"branch"`
	Commit      string         `json:"commit" yaml:"commit"`
	TotalFiles  int            `json:"total_files" yaml:"total_files"`
	TotalSize   int64          `json:"total_size" yaml:"total_size"`
	RepoPath    string         `json:"repo_path" yaml:"repo_path"`
	StartedAt   time.Time      `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time      `json:"completed_at" yaml:"completed_at"`
	Files       []ManifestFile `json:"files" yaml:"files"`
}

// ReadManifest reads and decodes a DownloadManifest from path. JSON is tried
// first (manifests are written as JSON even though the filename ends in
// .yaml, for historical reasons carried over from the original CLI); YAML is
// tried as a fallback so hand-edited manifests keep working.
func ReadManifest(path string) (*DownloadManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m DownloadManifest
	if err := json.Unmarshal(data, &m); err == nil {
		return &m, nil
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteManifest writes m to path as JSON.
func WriteManifest(path string, m *DownloadManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
