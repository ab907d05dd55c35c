// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package hfdownloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// maxBasicTransportSize is the platform-configured ceiling (~50 GB) past
// which the basic transport refuses a download unless an accelerated
// transport is registered.
const maxBasicTransportSize = 50 * 1024 * 1024 * 1024

const streamRetryBudget = 5

// AcceleratedTransport is the narrow interface the byte transport calls
// through for xet/turbo downloads. Implementations must honor the same
// size-consistency postcondition as httpGet.
type AcceleratedTransport interface {
	Download(ctx context.Context, urlOrDescriptor string, sink io.WriterAt, headers http.Header, expectedSize int64) error
}

// adjustRange translates a caller-supplied Range header by resumeSize,
// preserving open-ended ("bytes=A-") and suffix ("bytes=-N") forms, and
// rejects multi-range and inverted-range requests.
func adjustRange(existing string, resumeSize int64) (string, error) {
	if existing == "" {
		return fmt.Sprintf("bytes=%d-", resumeSize), nil
	}
	if strings.Contains(existing, ",") {
		return "", &InvalidRangeError{Message: "multi-range requests are not supported: " + existing}
	}
	spec := strings.TrimPrefix(existing, "bytes=")
	if strings.HasPrefix(spec, "-") {
		n, err := strconv.ParseInt(spec[1:], 10, 64)
		if err != nil {
			return "", &InvalidRangeError{Message: "invalid suffix range: " + existing}
		}
		if n <= resumeSize {
			return "", &InvalidRangeError{Message: fmt.Sprintf("suffix range %d not greater than resume offset %d", n, resumeSize)}
		}
		return fmt.Sprintf("bytes=-%d", n-resumeSize), nil
	}
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return "", &InvalidRangeError{Message: "invalid range: " + existing}
	}
	a, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "", &InvalidRangeError{Message: "invalid range start: " + existing}
	}
	newA := a + resumeSize
	if parts[1] == "" {
		return fmt.Sprintf("bytes=%d-", newA), nil
	}
	b, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", &InvalidRangeError{Message: "invalid range end: " + existing}
	}
	if newA > b {
		return "", &InvalidRangeError{Message: fmt.Sprintf("adjusted range start %d exceeds end %d", newA, b)}
	}
	return fmt.Sprintf("bytes=%d-%d", newA, b), nil
}

// httpGet streams the GET response body into dst starting at resumeSize,
// retrying transient mid-body faults with a resume budget that resets on
// every byte received. The final file length must equal expectedSize.
func httpGet(ctx context.Context, sess *Session, rawURL string, headers http.Header, dst *os.File, resumeSize, expectedSize int64, accel AcceleratedTransport, xet *XetDescriptor, allowTurbo bool) error {
	if accel != nil && xet != nil {
		return accel.Download(ctx, xet.FileHash, dst, headers, expectedSize)
	}

	if expectedSize > maxBasicTransportSize && accel == nil {
		return fmt.Errorf("hfdownloader: file size %d exceeds basic transport limit and no accelerated transport is available", expectedSize)
	}

	budget := streamRetryBudget

	for {
		reqHeaders := headers.Clone()
		rangeHeader, err := adjustRange(reqHeaders.Get("Range"), resumeSize)
		if err != nil {
			return err
		}
		reqHeaders.Set("Range", rangeHeader)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header = reqHeaders

		resp, err := sess.Client().Do(req)
		if err != nil {
			if isTLSClassFault(err) {
				sess.Reset()
			}
			budget--
			if budget <= 0 {
				return err
			}
			if !sleepCtx(ctx, 200*time.Millisecond) {
				return ctx.Err()
			}
			continue
		}

		if resp.StatusCode >= 400 {
			defer resp.Body.Close()
			resp.Request = req
			return classifyHTTPError(resp, req.URL.Path)
		}

		n, err := io.Copy(dst, resp.Body)
		resp.Body.Close()
		resumeSize += n
		if n > 0 {
			budget = streamRetryBudget
		}
		if err != nil {
			budget--
			if budget <= 0 {
				return err
			}
			continue
		}
		break
	}

	info, err := dst.Stat()
	if err != nil {
		return err
	}
	if info.Size() != expectedSize {
		return &ConsistencyError{Expected: expectedSize, Actual: info.Size()}
	}
	return nil
}
