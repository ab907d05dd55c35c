// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// XetDescriptor is the optional accelerated-transport hint returned by the
// metadata probe when the server advertises a xet-backed file.
type XetDescriptor struct {
	FileHash     string
	RefreshRoute string
}

// FileMetadata is the result of a successful metadata probe (C6).
type FileMetadata struct {
	Commit   string
	ETag     string
	Size     int64
	Location string
	Xet      *XetDescriptor
}

// normalizeETag strips a leading weak-validator marker and surrounding
// quotes from a raw ETag header value.
func normalizeETag(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "W/")
	s = strings.Trim(s, `"`)
	return s
}

// headMetadata issues a HEAD request against url, following only relative
// redirects at the same origin (absolute redirects point at signed CDN URLs
// and must not be replayed with the caller's Authorization header), and
// extracts the mandatory commit/etag/size fields.
func headMetadata(ctx context.Context, sess *Session, rawURL string, headers http.Header, retries int) (*FileMetadata, error) {
	client := &http.Client{
		Jar: sess.Client().Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	current := rawURL
	currentHeaders := headers.Clone()

	for hop := 0; hop < 10; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, current, nil)
		if err != nil {
			return nil, err
		}
		req.Header = currentHeaders.Clone()
		req.Header.Set("Accept-Encoding", "identity")

		resp, err := doWithBackoff(ctx, &Session{client: client, build: func() *http.Client { return client }}, func() (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodHead, current, nil)
			if err != nil {
				return nil, err
			}
			r.Header = currentHeaders.Clone()
			r.Header.Set("Accept-Encoding", "identity")
			return r, nil
		}, backoffOptions{MaxRetries: retries, RetryStatuses: map[int]bool{http.StatusServiceUnavailable: true, http.StatusTooManyRequests: true}})
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			loc := resp.Header.Get("Location")
			parsed, err := url.Parse(loc)
			if err != nil {
				resp.Body.Close()
				return nil, &FileMetadataError{Message: fmt.Sprintf("invalid redirect location %q: %v", loc, err)}
			}
			if parsed.Host == "" {
				resp.Body.Close()
				base, _ := url.Parse(current)
				next := *base
				next.Path = parsed.Path
				next.RawQuery = parsed.RawQuery
				current = next.String()
				continue
			}
			// Absolute redirect: the Hub puts the mandatory commit/etag/size
			// fields on this response too (this is the common LFS/CDN case),
			// so parse them here instead of replaying the request at the new
			// host. Auth must not follow across origins.
			currentHeaders.Del("Authorization")
			meta, err := parseFileMetadata(resp.Header, loc)
			resp.Body.Close()
			if err != nil {
				return nil, err
			}
			return meta, nil
		}

		if resp.StatusCode >= 400 {
			reqPath := req.URL.Path
			resp.Request = req
			return nil, classifyHTTPError(resp, reqPath)
		}

		meta, err := parseFileMetadata(resp.Header, current)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		return meta, nil
	}

	return nil, &FileMetadataError{Message: "too many redirects probing " + rawURL}
}

// parseFileMetadata extracts the mandatory commit/etag/size fields (and the
// optional xet hint) from a metadata-probe response's headers, whether that
// response is the terminal 200 or an absolute redirect carrying the same
// headers. fallbackLocation is used when the response has no Location header
// of its own (the terminal-200 case).
func parseFileMetadata(h http.Header, fallbackLocation string) (*FileMetadata, error) {
	commit := h.Get("X-Repo-Commit")
	if commit == "" {
		return nil, &FileMetadataError{Message: "missing X-Repo-Commit header"}
	}

	etagRaw := h.Get("X-Linked-Etag")
	if etagRaw == "" {
		etagRaw = h.Get("ETag")
	}
	if etagRaw == "" {
		return nil, &FileMetadataError{Message: "missing ETag/X-Linked-Etag header"}
	}
	etag := normalizeETag(etagRaw)

	var size int64
	var err error
	if sizeStr := h.Get("X-Linked-Size"); sizeStr != "" {
		size, err = strconv.ParseInt(sizeStr, 10, 64)
	} else if sizeStr := h.Get("Content-Length"); sizeStr != "" {
		size, err = strconv.ParseInt(sizeStr, 10, 64)
	} else {
		return nil, &FileMetadataError{Message: "missing size header"}
	}
	if err != nil {
		return nil, &FileMetadataError{Message: "unparseable size header: " + err.Error()}
	}

	location := h.Get("Location")
	if location == "" {
		location = fallbackLocation
	}

	return &FileMetadata{
		Commit:   commit,
		ETag:     etag,
		Size:     size,
		Location: location,
		Xet:      parseXetDescriptor(h),
	}, nil
}

func parseXetDescriptor(h http.Header) *XetDescriptor {
	hash := h.Get("X-Xet-Hash")
	route := h.Get("X-Xet-Refresh-Route")
	if hash == "" && route == "" {
		return nil
	}
	return &XetDescriptor{FileHash: hash, RefreshRoute: route}
}
