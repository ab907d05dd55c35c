// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// WithLock acquires an exclusive, cross-process advisory lock on path,
// creating parent directories and the lock file itself as needed, runs fn,
// then releases and removes the lock file on every exit path — including
// panics propagated from fn. The lock is weak: a crash while held leaves
// nothing but a residual empty file, which the next acquirer recreates and
// locks without issue.
func WithLock(ctx context.Context, path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	fl := flock.New(path)
	defer func() {
		fl.Unlock()
		os.Remove(path)
	}()

	locked, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return err
	}
	if !locked {
		return ctx.Err()
	}

	return fn()
}
