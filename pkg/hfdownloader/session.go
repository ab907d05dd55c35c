// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"context"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Session is the process-wide HTTP session (C3): one cookie jar and one
// connection pool, replaceable wholesale via Reset when a TLS-class fault
// suggests the pooled connections are poisoned.
type Session struct {
	mu     sync.RWMutex
	client *http.Client
	build  func() *http.Client
}

// NewSession builds a Session. build, if non-nil, is used both for the
// initial client and for every subsequent Reset (it is where proxy
// configuration from ProxyConfig is threaded through).
func NewSession(build func() *http.Client) *Session {
	if build == nil {
		build = defaultHTTPClient
	}
	return &Session{client: build(), build: build}
}

func defaultHTTPClient() *http.Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &http.Client{
		Jar:     jar,
		Timeout: 0, // timeouts are applied per-request via context
	}
}

// Client returns the currently active *http.Client.
func (s *Session) Client() *http.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Reset discards the current client (and its connection pool/cookie jar)
// and rebuilds a fresh one. Safe to call concurrently with in-flight
// requests on the old client; only subsequent requests observe the new one.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	s.client = s.build()
}

// isTLSClassFault reports whether err looks like a TLS/connection-layer
// fault that should trigger a session reset before the next retry.
func isTLSClassFault(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, needle := range []string{"tls:", "x509:", "connection reset", "EOF", "broken pipe"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// retryer implements the exponential backoff policy of C4: duration doubles
// each call up to a cap, with jitter bounded by a fraction of the initial
// duration so capped retries don't blow past max by more than that fraction.
type retryer struct {
	initial time.Duration
	max     time.Duration
	cur     time.Duration
}

func newRetry(cfg Settings) *retryer {
	initial, err := time.ParseDuration(cfg.BackoffInitial)
	if err != nil || initial <= 0 {
		initial = 400 * time.Millisecond
	}
	max, err := time.ParseDuration(cfg.BackoffMax)
	if err != nil || max <= 0 {
		max = 10 * time.Second
	}
	return &retryer{initial: initial, max: max}
}

func (b *retryer) Next() time.Duration {
	if b.cur == 0 {
		b.cur = b.initial
	} else {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	jitterCap := int64(b.initial) / 5
	if jitterCap <= 0 {
		jitterCap = 1
	}
	jitter := time.Duration(rand.Int63n(jitterCap))
	return b.cur + jitter
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first. It
// returns true if the full sleep elapsed, false if the context ended it
// early.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

var defaultRetryStatuses = map[int]bool{http.StatusServiceUnavailable: true}

// backoffOptions configures one backoff-wrapped request sequence.
type backoffOptions struct {
	MaxRetries    int
	RetryStatuses map[int]bool
	// ResumeBody, if non-nil, is called before every retry attempt after the
	// first to reset the request body to its original offset. Bodies that
	// cannot be restarted (non-seekable) should return an error.
	ResumeBody func() (io.ReadCloser, error)
}

// doWithBackoff implements C4: issues newReq() repeatedly, retrying on the
// configured status codes and on transient network faults, until a
// non-retried response/error is obtained or retries are exhausted. The
// caller is responsible for calling resp.Body.Close() and for raising on
// the returned response's status if it chooses to.
func doWithBackoff(ctx context.Context, sess *Session, newReq func() (*http.Request, error), opts backoffOptions) (*http.Response, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	statuses := opts.RetryStatuses
	if statuses == nil {
		statuses = defaultRetryStatuses
	}

	b := &retryer{initial: time.Second, max: 8 * time.Second}

	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		if attempt > 0 && opts.ResumeBody != nil {
			body, err := opts.ResumeBody()
			if err != nil {
				return nil, err
			}
			_ = body // newReq is expected to incorporate the reset body itself
		}

		req, err := newReq()
		if err != nil {
			return nil, err
		}

		resp, err := sess.Client().Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			if isTLSClassFault(err) {
				sess.Reset()
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !sleepCtx(ctx, b.Next()) {
				return nil, ctx.Err()
			}
			continue
		}

		if statuses[resp.StatusCode] {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastResp = resp
			if !sleepCtx(ctx, b.Next()) {
				return resp, ctx.Err()
			}
			continue
		}

		return resp, nil
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, lastErr
}
