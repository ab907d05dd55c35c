// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bodaay/HuggingFaceModelDownloader/pkg/hfdownloader"
)

func newDownloadCmd(ctx context.Context, ro *RootOpts) *cobra.Command {
	var (
		isDataset    bool
		revision     string
		filters      []string
		excludes     []string
		connections  int
		maxActive    int
		cacheDir     string
		endpoint     string
		verify       string
		retries      int
		backoffInit  string
		backoffMax   string
		proxyURL     string
		localDir     string
		force        bool
		localOnly    bool
		legacy       bool
		outputDir    string
		jsonProg     bool
	)

	cmd := &cobra.Command{
		Use:   "download <repo>",
		Short: "Download a HuggingFace model or dataset repository",
		Long: `Download fetches a repository's files into the local HuggingFace cache
(or a local directory, with --local-dir), resuming interrupted transfers and
reusing already-cached blobs across repositories.

Examples:
  hfdownloader download TheBloke/Mistral-7B-Instruct-v0.2-GGUF
  hfdownloader download HuggingFaceFW/fineweb --dataset
  hfdownloader download owner/repo -F "*.safetensors" -E "*.md"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := args[0]
			if !hfdownloader.IsValidModelName(repo) {
				return fmt.Errorf("invalid repo id %q (expected owner/name)", repo)
			}

			job := hfdownloader.Job{
				Repo:      repo,
				IsDataset: isDataset,
				Revision:  revision,
				Filters:   filters,
				Excludes:  excludes,
			}

			cfg := hfdownloader.Settings{
				CacheDir:           cacheDir,
				Concurrency:        connections,
				MaxActiveDownloads: maxActive,
				Verify:             verify,
				Token:              strings.TrimSpace(ro.Token),
				Endpoint:           endpoint,
				Retries:            retries,
				BackoffInitial:     backoffInit,
				BackoffMax:         backoffMax,
				LocalDir:           localDir,
				ForceDownload:      force,
				LocalFilesOnly:     localOnly,
			}
			if cfg.Token == "" {
				cfg.Token = strings.TrimSpace(os.Getenv("HF_TOKEN"))
			}
			if legacy || outputDir != "" {
				if outputDir == "" {
					outputDir = "Models"
				}
				cfg.OutputDir = outputDir
			}
			if proxyURL != "" {
				cfg.Proxy = &hfdownloader.ProxyConfig{URL: proxyURL}
			}

			if err := applySettingsDefaults(cmd, ro, &cfg); err != nil {
				return err
			}

			var progress hfdownloader.ProgressFunc
			if jsonProg {
				progress = jsonProgress(os.Stdout)
			} else {
				progress = cliProgress(ro, job)
			}

			return hfdownloader.Download(ctx, job, cfg, progress)
		},
	}

	cmd.Flags().BoolVar(&isDataset, "dataset", false, "Download as a dataset repository")
	cmd.Flags().StringVarP(&revision, "revision", "b", "main", "Branch, tag, or commit to download")
	cmd.Flags().StringArrayVarP(&filters, "filters", "F", nil, "Glob pattern a file must match to be included (repeatable)")
	cmd.Flags().StringArrayVarP(&excludes, "exclude", "E", nil, "Glob pattern to exclude (repeatable)")
	cmd.Flags().IntVarP(&connections, "connections", "c", 8, "Concurrent file downloads")
	cmd.Flags().IntVar(&maxActive, "max-active", 3, "Max concurrent multipart connections per file")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "HuggingFace cache directory (default: ~/.cache/huggingface or HF_HOME)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Custom HuggingFace endpoint URL (e.g. https://hf-mirror.com)")
	cmd.Flags().StringVar(&verify, "verify", "size", "Verification mode: none|size|sha256")
	cmd.Flags().IntVar(&retries, "retries", 4, "Max retry attempts per HTTP request")
	cmd.Flags().StringVar(&backoffInit, "backoff-initial", "400ms", "Initial retry backoff duration")
	cmd.Flags().StringVar(&backoffMax, "backoff-max", "10s", "Maximum retry backoff duration")
	cmd.Flags().StringVar(&proxyURL, "proxy", "", "Proxy URL (http://, https://, or socks5://)")
	cmd.Flags().StringVar(&localDir, "local-dir", "", "Mirror into this directory instead of the cache")
	cmd.Flags().BoolVar(&force, "force", false, "Re-download even if a cached/local copy looks current")
	cmd.Flags().BoolVar(&localOnly, "local-files-only", false, "Never hit the network; fail if not already cached")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Use the legacy flat-directory output layout instead of the cache")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Legacy output directory (implies --legacy, default: Models)")
	cmd.Flags().BoolVar(&jsonProg, "json", false, "Emit newline-delimited JSON progress events instead of human output")

	return cmd
}

// jsonProgress returns a ProgressFunc that writes each event as a single
// line of JSON to w.
func jsonProgress(w io.Writer) hfdownloader.ProgressFunc {
	enc := json.NewEncoder(w)
	return func(e hfdownloader.ProgressEvent) {
		_ = enc.Encode(e)
	}
}

// cliProgress returns a ProgressFunc that prints human-readable progress
// lines to stderr, respecting RootOpts.Quiet.
func cliProgress(ro *RootOpts, job hfdownloader.Job) hfdownloader.ProgressFunc {
	return func(e hfdownloader.ProgressEvent) {
		if ro.Quiet {
			return
		}
		switch e.Event {
		case "scan_start":
			fmt.Fprintf(os.Stderr, "Resolving %s@%s...\n", job.Repo, job.revision())
		case "scan_done":
			fmt.Fprintf(os.Stderr, "Found %d file(s) to fetch\n", e.Total)
		case "file_start":
			fmt.Fprintf(os.Stderr, "  %s\n", e.Path)
		case "file_done":
			if e.Message != "" {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", e.Path, e.Message)
			} else {
				fmt.Fprintf(os.Stderr, "  %s: done\n", e.Path)
			}
		case "retry":
			fmt.Fprintf(os.Stderr, "  %s: retry %d (%s)\n", e.Path, e.Attempt, e.Message)
		case "error":
			fmt.Fprintf(os.Stderr, "error: %s\n", e.Message)
		case "done":
			fmt.Fprintf(os.Stderr, "%s\n", e.Message)
		}
	}
}

// buildCommandString renders the equivalent `hfdownloader download ...`
// invocation for job/cfg, used by the interactive TUI selector to show users
// the non-interactive command matching their selection.
func buildCommandString(cmd *cobra.Command, job hfdownloader.Job, cfg hfdownloader.Settings) string {
	var b strings.Builder
	b.WriteString("hfdownloader download ")
	b.WriteString(job.Repo)

	if job.IsDataset {
		b.WriteString(" --dataset")
	}
	if job.Revision != "" {
		b.WriteString(" -b ")
		b.WriteString(job.Revision)
	}
	for _, f := range job.Filters {
		b.WriteString(" -F ")
		b.WriteString(f)
	}
	for _, e := range job.Excludes {
		b.WriteString(" -E ")
		b.WriteString(e)
	}
	if cfg.Concurrency != 0 && cfg.Concurrency != 8 {
		b.WriteString(" -c ")
		fmt.Fprintf(&b, "%d", cfg.Concurrency)
	}
	if cfg.Proxy != nil && cfg.Proxy.URL != "" {
		b.WriteString(" --proxy ")
		b.WriteString(cfg.Proxy.URL)
	}
	if cfg.OutputDir != "" {
		b.WriteString(" --legacy")
		if cfg.OutputDir != "Models" {
			b.WriteString(" -o ")
			b.WriteString(cfg.OutputDir)
		}
	}
	if cfg.Verify != "" && cfg.Verify != "size" {
		b.WriteString(" --verify ")
		b.WriteString(cfg.Verify)
	}

	return b.String()
}
