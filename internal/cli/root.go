// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the hfdownloader command-line surface: a cobra
// command tree wired against pkg/hfdownloader for the cache-backed
// download engine, pkg/smartdl for repository analysis, and
// internal/server for the web UI/API.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bodaay/HuggingFaceModelDownloader/pkg/hfdownloader"
)

// RootOpts holds the persistent flags shared by every subcommand.
type RootOpts struct {
	Token    string
	JSONOut  bool
	Quiet    bool
	Verbose  bool
	Config   string
	LogFile  string
	LogLevel string
}

// Execute builds the full command tree and runs it against os.Args.
func Execute(version string) error {
	ro := &RootOpts{}
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	root := &cobra.Command{
		Use:           "hfdownloader",
		Short:         "Download HuggingFace models and datasets",
		Long:          `hfdownloader is a fast, resumable downloader for HuggingFace Hub repositories.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       version,
	}

	root.PersistentFlags().StringVar(&ro.Token, "token", "", "HuggingFace access token (default: $HF_TOKEN)")
	root.PersistentFlags().BoolVar(&ro.JSONOut, "json", false, "Emit machine-readable JSON output")
	root.PersistentFlags().BoolVarP(&ro.Quiet, "quiet", "q", false, "Suppress non-essential output")
	root.PersistentFlags().BoolVarP(&ro.Verbose, "verbose", "v", false, "Verbose output")
	root.PersistentFlags().StringVar(&ro.Config, "config", "", "Path to a config file (default: ~/.config/hfdownloader.json|.yaml)")
	root.PersistentFlags().StringVar(&ro.LogFile, "log-file", "", "Write logs to this file instead of stderr")
	root.PersistentFlags().StringVar(&ro.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")

	root.AddCommand(newDownloadCmd(ctx, ro))
	root.AddCommand(newAnalyzeCmd(ctx, ro))
	root.AddCommand(newListCmd(ro))
	root.AddCommand(newInfoCmd(ro))
	root.AddCommand(newRebuildCmd(ro))
	root.AddCommand(newMirrorCmd(ro))
	root.AddCommand(newProxyCmd(ro))
	root.AddCommand(newServeCmd(ro))
	root.AddCommand(newVersionCmd(version))

	return root.Execute()
}

// signalContext derives a context from parent that is cancelled on SIGINT
// or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	return ctx, stop
}

// splitComma splits a comma-separated flag value, trimming whitespace and
// dropping empty segments. It returns nil for an all-empty input.
func splitComma(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// applySettingsDefaults layers the on-disk config file (explicit --config
// path, or the default search path) under any values already set on cfg by
// CLI flags: flags win, the config file fills in the rest.
func applySettingsDefaults(cmd *cobra.Command, ro *RootOpts, cfg *hfdownloader.Settings) error {
	var raw map[string]any
	if ro.Config != "" {
		m, err := loadConfigFile(ro.Config)
		if err != nil {
			return fmt.Errorf("load config %s: %w", ro.Config, err)
		}
		raw = m
	} else {
		raw = loadConfigMap()
	}
	if raw == nil {
		return nil
	}
	applyConfigMap(cmd, cfg, raw)
	return nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func configString(raw map[string]any, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func configInt(raw map[string]any, key string) (int, bool) {
	v, ok := raw[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// applyConfigMap fills in cfg fields from raw wherever the corresponding CLI
// flag was not explicitly set on cmd. Flag defaults (not just zero values)
// are deliberately overridable here: a flag only wins once the user actually
// passes it, per cobra's Changed bookkeeping.
func applyConfigMap(cmd *cobra.Command, cfg *hfdownloader.Settings, raw map[string]any) {
	if v, ok := configString(raw, "cache-dir"); ok && !flagChanged(cmd, "cache-dir") {
		cfg.CacheDir = v
	}
	if v, ok := configInt(raw, "connections"); ok && !flagChanged(cmd, "connections") {
		cfg.Concurrency = v
	}
	if v, ok := configInt(raw, "max-active"); ok && !flagChanged(cmd, "max-active") {
		cfg.MaxActiveDownloads = v
	}
	if v, ok := configString(raw, "multipart-threshold"); ok && !flagChanged(cmd, "multipart-threshold") {
		cfg.MultipartThreshold = v
	}
	if v, ok := configString(raw, "verify"); ok && !flagChanged(cmd, "verify") {
		cfg.Verify = v
	}
	if v, ok := configInt(raw, "retries"); ok && !flagChanged(cmd, "retries") {
		cfg.Retries = v
	}
	if v, ok := configString(raw, "backoff-initial"); ok && !flagChanged(cmd, "backoff-initial") {
		cfg.BackoffInitial = v
	}
	if v, ok := configString(raw, "backoff-max"); ok && !flagChanged(cmd, "backoff-max") {
		cfg.BackoffMax = v
	}
	if v, ok := configString(raw, "token"); ok && !flagChanged(cmd, "token") && cfg.Token == "" {
		cfg.Token = v
	}
}

