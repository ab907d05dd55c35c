// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// kindPrefix returns the URL prefix segment for a repo type: "datasets/" for
// datasets and empty for models. RepoType has no value for spaces, so no
// "spaces/" prefix is ever produced.
func kindPrefix(t RepoType) string {
	switch t {
	case RepoTypeDataset:
		return "datasets/"
	default:
		return ""
	}
}

func escapeRevision(rev string) string {
	return strings.ReplaceAll(url.PathEscape(rev), "%2F", "%2F")
}

// resolveURL builds the Resolve URL template of §6.
func resolveURL(endpoint string, t RepoType, repoID, revision, filename string) string {
	parts := strings.Split(filename, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("%s/%s%s/resolve/%s/%s", endpoint, kindPrefix(t), repoID, escapeRevision(revision), strings.Join(parts, "/"))
}

// apiRepoURL builds the API URL template of §6.
func apiRepoURL(endpoint string, t RepoType, repoID, revision string) string {
	u := fmt.Sprintf("%s/api/%ss/%s", endpoint, string(t), repoID)
	if revision != "" {
		u += "/revision/" + escapeRevision(revision)
	}
	return u
}

type hubSibling struct {
	RFilename string `json:"rfilename"`
	Size      int64  `json:"size"`
	LFS       *struct {
		OID  string `json:"oid"`
		Size int64  `json:"size"`
	} `json:"lfs"`
}

type hubRepoInfo struct {
	SHA      string       `json:"sha"`
	Siblings []hubSibling `json:"siblings"`
}

type hubTreeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	OID  string `json:"oid"`
	LFS  *struct {
		OID  string `json:"oid"`
		Size int64  `json:"size"`
	} `json:"lfs"`
}

const siblingsTruncationThreshold = 50000

// listRepoFiles implements the "Metadata API"/"Tree listing" external
// collaborator contract of §6: it resolves revision to a commit and
// returns the repository's file list, falling back to the paginated
// recursive tree listing when the sibling count looks truncated.
func listRepoFiles(ctx context.Context, sess *Session, endpoint, token string, t RepoType, repoID, revision string) (commit string, items []PlanItem, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiRepoURL(endpoint, t, repoID, revision), nil)
	if err != nil {
		return "", nil, err
	}
	applyAuth(req, token)

	resp, err := sess.Client().Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		resp.Request = req
		return "", nil, classifyHTTPError(resp, req.URL.Path)
	}

	var info hubRepoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", nil, fmt.Errorf("decode repo_info response: %w", err)
	}

	if len(info.Siblings) < siblingsTruncationThreshold {
		items = make([]PlanItem, 0, len(info.Siblings))
		for _, s := range info.Siblings {
			item := PlanItem{RelativePath: s.RFilename, Size: s.Size}
			if s.LFS != nil {
				item.LFS = true
				item.SHA256 = s.LFS.OID
				item.Size = s.LFS.Size
			}
			items = append(items, item)
		}
		return info.SHA, items, nil
	}

	items, err = listRepoTreeRecursive(ctx, sess, endpoint, token, t, repoID, info.SHA)
	return info.SHA, items, err
}

// listRepoTreeRecursive paginates the recursive tree-listing endpoint,
// following Link: ...; rel="next" headers, for repositories whose sibling
// list is large enough that repo_info may have truncated it.
func listRepoTreeRecursive(ctx context.Context, sess *Session, endpoint, token string, t RepoType, repoID, commit string) ([]PlanItem, error) {
	var items []PlanItem
	next := fmt.Sprintf("%s/api/%ss/%s/tree/%s?recursive=true&expand=true", endpoint, string(t), repoID, url.PathEscape(commit))

	for next != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		applyAuth(req, token)

		resp, err := sess.Client().Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			resp.Request = req
			err := classifyHTTPError(resp, req.URL.Path)
			return nil, err
		}

		var entries []hubTreeEntry
		decodeErr := json.NewDecoder(resp.Body).Decode(&entries)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("decode tree listing: %w", decodeErr)
		}
		for _, e := range entries {
			if e.Type != "file" {
				continue
			}
			item := PlanItem{RelativePath: e.Path, Size: e.Size}
			if e.LFS != nil {
				item.LFS = true
				item.SHA256 = e.LFS.OID
				item.Size = e.LFS.Size
			}
			items = append(items, item)
		}

		next = parseNextLink(resp.Header.Get("Link"))
	}

	return items, nil
}

// parseNextLink extracts the rel="next" URL from an RFC 5988 Link header.
func parseNextLink(link string) string {
	if link == "" {
		return ""
	}
	for _, part := range strings.Split(link, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		urlPart := strings.TrimSpace(segs[0])
		if !strings.HasPrefix(urlPart, "<") || !strings.HasSuffix(urlPart, ">") {
			continue
		}
		for _, attr := range segs[1:] {
			attr = strings.TrimSpace(attr)
			if attr == `rel="next"` || attr == "rel=next" {
				return strings.Trim(urlPart, "<>")
			}
		}
	}
	return ""
}

func applyAuth(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("User-Agent", "hfdownloader/"+RebuildScriptVersion)
}
