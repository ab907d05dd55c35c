// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// Sentinel errors for caller-detectable conditions that don't carry server
// response data.
var (
	ErrInvalidRepo     = errors.New("hfdownloader: invalid repo name")
	ErrLocalTokenNotFound = errors.New("hfdownloader: local token not found")
	ErrOfflineMode     = errors.New("hfdownloader: offline mode enabled")
)

// HubHTTPError is the base error for all classified Hub API failures. It
// carries the HTTP status, the assembled human message, any server-provided
// messages, and the request id used for support tickets.
type HubHTTPError struct {
	Kind            string
	StatusCode      int
	Message         string
	ServerMessages  []string
	RequestID       string
	Cause           error
}

func (e *HubHTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind
	}
	if e.RequestID != "" && !strings.Contains(msg, e.RequestID) {
		msg = fmt.Sprintf("%s (Request ID: %s)", msg, e.RequestID)
	}
	return msg
}

func (e *HubHTTPError) Unwrap() error { return e.Cause }

// Append adds additional guidance to the error message without discarding
// the original cause, mirroring the "mutable append hook" of the taxonomy.
func (e *HubHTTPError) Append(s string) *HubHTTPError {
	e.Message = e.Message + "\n" + s
	return e
}

// RevisionNotFoundError indicates the requested branch/tag/commit does not exist.
type RevisionNotFoundError struct{ *HubHTTPError }

// EntryNotFoundError indicates the requested file does not exist at the revision.
type EntryNotFoundError struct{ *HubHTTPError }

// GatedRepoError indicates the repository requires accepting terms of use.
type GatedRepoError struct{ *HubHTTPError }

// DisabledRepoError indicates the repository has been disabled by the Hub.
type DisabledRepoError struct{ *HubHTTPError }

// RepositoryNotFoundError indicates the repository does not exist, or exists
// but is private/gated and the caller is unauthenticated (the Hub is
// deliberately ambiguous about the two to avoid leaking existence).
type RepositoryNotFoundError struct{ *HubHTTPError }

// BadRequestError indicates a malformed request (HTTP 400).
type BadRequestError struct{ *HubHTTPError }

// LocalEntryNotFoundError is raised when a file can be satisfied from
// neither the network nor the local cache.
type LocalEntryNotFoundError struct {
	Message string
	Cause   error
}

func (e *LocalEntryNotFoundError) Error() string { return e.Message }
func (e *LocalEntryNotFoundError) Unwrap() error { return e.Cause }

// FileMetadataError indicates the metadata probe (C6) could not extract a
// mandatory field (commit, etag, or size) from the HEAD response.
type FileMetadataError struct{ Message string }

func (e *FileMetadataError) Error() string { return e.Message }

// ConsistencyError indicates the number of bytes written does not match the
// server-advertised size.
type ConsistencyError struct {
	Expected int64
	Actual   int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency check failed: expected %d bytes, got %d bytes; try again with force_download",
		e.Expected, e.Actual)
}

// InvalidPathError indicates a filename or path shape the core refuses to
// write to disk.
type InvalidPathError struct{ Message string }

func (e *InvalidPathError) Error() string { return e.Message }

// InvalidRangeError indicates a Range header the transport refuses to adjust
// or send (multi-range, inverted range, or a start beyond the end).
type InvalidRangeError struct{ Message string }

func (e *InvalidRangeError) Error() string { return e.Message }

var repoAPIPathRe = regexp.MustCompile(`^/api/(models|datasets|spaces)/.+|.+/resolve/.+`)

// urlMatchesRepoAPIShape reports whether the given request path looks like a
// repo-scoped Hub API or resolve URL, per the classifier's selection order
// step 5.
func urlMatchesRepoAPIShape(path string) bool {
	return repoAPIPathRe.MatchString(path)
}

type hubErrorBody struct {
	Error  string `json:"error"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// classifyHTTPError maps a failed HTTP response to the taxonomy of §4.5. The
// response body is consumed and closed by this function.
func classifyHTTPError(resp *http.Response, requestPath string) error {
	code := resp.Header.Get("X-Error-Code")
	xmsg := resp.Header.Get("X-Error-Message")
	reqID := resp.Header.Get("x-request-id")
	if reqID == "" {
		reqID = resp.Header.Get("X-Amzn-Trace-Id")
	}

	var bodyMsgs []string
	if resp.Body != nil {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		var parsed hubErrorBody
		if len(raw) > 0 && json.Unmarshal(raw, &parsed) == nil {
			if parsed.Error != "" {
				bodyMsgs = append(bodyMsgs, parsed.Error)
			}
			for _, e := range parsed.Errors {
				if e.Message != "" {
					bodyMsgs = append(bodyMsgs, e.Message)
				}
			}
		}
	}

	messages := dedupePreserveOrder(append([]string{xmsg}, bodyMsgs...))

	base := &HubHTTPError{
		StatusCode:     resp.StatusCode,
		ServerMessages: messages,
		RequestID:      reqID,
	}

	switch {
	case code == "RevisionNotFound":
		base.Kind = "RevisionNotFound"
		base.Message = fmt.Sprintf("%d Client Error: Revision Not Found for url: %s", resp.StatusCode, resp.Request.URL)
		return &RevisionNotFoundError{base}
	case code == "EntryNotFound":
		base.Kind = "EntryNotFound"
		base.Message = fmt.Sprintf("%d Client Error: Entry Not Found for url: %s", resp.StatusCode, resp.Request.URL)
		return &EntryNotFoundError{base}
	case code == "GatedRepo":
		base.Kind = "GatedRepo"
		base.Message = fmt.Sprintf("%d Client Error: Gated Repo for url: %s", resp.StatusCode, resp.Request.URL)
		return &GatedRepoError{base}
	case xmsg == "Access to this resource is disabled.":
		base.Kind = "DisabledRepo"
		base.Message = fmt.Sprintf("%d Client Error: Disabled Repo for url: %s", resp.StatusCode, resp.Request.URL)
		return &DisabledRepoError{base}
	case code == "RepoNotFound",
		resp.StatusCode == http.StatusUnauthorized && xmsg != "" && xmsg != "Invalid credentials in Authorization header." && urlMatchesRepoAPIShape(requestPath):
		base.Kind = "RepositoryNotFound"
		base.Message = fmt.Sprintf("%d Client Error: Repository Not Found for url: %s", resp.StatusCode, resp.Request.URL)
		return &RepositoryNotFoundError{base}
	case resp.StatusCode == http.StatusBadRequest:
		base.Kind = "BadRequest"
		base.Message = fmt.Sprintf("%d Client Error: Bad Request for url: %s", resp.StatusCode, resp.Request.URL)
		return &BadRequestError{base}
	case resp.StatusCode == http.StatusForbidden:
		base.Kind = "HubHTTPError"
		base.Message = fmt.Sprintf("%d Client Error: Forbidden for url: %s (check your token has the required permissions)", resp.StatusCode, resp.Request.URL)
		return base
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		base.Kind = "HubHTTPError"
		requested := resp.Request.Header.Get("Range")
		returned := resp.Header.Get("Content-Range")
		base.Message = fmt.Sprintf("%d Client Error: Range Not Satisfiable for url: %s (requested %q, returned %q)",
			resp.StatusCode, resp.Request.URL, requested, returned)
		return base
	default:
		base.Kind = "HubHTTPError"
		base.Message = fmt.Sprintf("%d Client Error for url: %s", resp.StatusCode, resp.Request.URL)
		return base
	}
}

func dedupePreserveOrder(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
