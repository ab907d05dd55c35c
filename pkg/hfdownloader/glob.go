// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"path/filepath"
	"strings"
)

// expandTrailingSlash implicitly appends a wildcard to directory-style
// patterns ending in "/", per the snapshot coordinator's filtering rule.
func expandTrailingSlash(pattern string) string {
	if strings.HasSuffix(pattern, "/") {
		return pattern + "*"
	}
	return pattern
}

// matchesAny reports whether path, or its base name, matches any of patterns
// (shell-style, via filepath.Match). An empty pattern list matches nothing;
// passesFilters checks for an empty allow list itself so that "no allow list
// means allow all" still holds.
func matchesAny(patterns []string, path string) bool {
	base := filepath.Base(path)
	for _, p := range patterns {
		p = expandTrailingSlash(p)
		if ok, _ := filepath.Match(p, path); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

// passesFilters implements C11's filtering rule: a path passes if any allow
// pattern matches it (or no allow list was given) and no ignore pattern
// matches it.
func passesFilters(path string, allow, ignore []string) bool {
	if len(allow) > 0 && !matchesAny(allow, path) {
		return false
	}
	if matchesAny(ignore, path) {
		return false
	}
	return true
}
