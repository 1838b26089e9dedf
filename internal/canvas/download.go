package canvas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// tempSuffix marks an in-flight download next to its destination.
const tempSuffix = ".part"

// DownloadFile streams url into destination via a temporary file in
// the same directory, computing a SHA-256 checksum as bytes arrive.
// On success the temporary file is atomically renamed over the
// destination. Any stray temporary file is removed on every exit
// path. Returns bytes written, hex checksum, and the ETag header if
// the server sent one.
func (c *Client) DownloadFile(ctx context.Context, url, destination string) (int64, string, string, error) {
	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return 0, "", "", fmt.Errorf("create destination dir: %w", err)
	}
	temp := destination + tempSuffix
	defer func() {
		if _, err := os.Stat(temp); err == nil {
			os.Remove(temp)
		}
	}()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		n, sum, etag, retryAfter, retryable, err := c.downloadAttempt(ctx, url, temp, destination)
		if err == nil {
			return n, sum, etag, nil
		}
		if !retryable {
			return 0, "", "", err
		}
		lastErr = err
		if attempt >= c.maxRetries {
			break
		}
		if werr := c.backoff(ctx, attempt, retryAfter); werr != nil {
			return 0, "", "", werr
		}
	}

	return 0, "", "", &APIError{Target: url, Err: fmt.Errorf("download failed after retries: %w", lastErr)}
}

// downloadAttempt performs a single streaming GET. retryable reports
// whether the failure follows the transient retry policy.
func (c *Client) downloadAttempt(ctx context.Context, url, temp, destination string) (n int64, sum, etag, retryAfter string, retryable bool, err error) {
	target := c.resolveURL(c.normalizeTarget(url))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", "", "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, "", "", "", true, fmt.Errorf("download network failure for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return 0, "", "", "", false, ErrUnauthorized
	}
	if retryableStatus[resp.StatusCode] {
		return 0, "", "", resp.Header.Get("Retry-After"), true,
			&APIError{StatusCode: resp.StatusCode, Target: url, Snippet: "retryable download failure"}
	}
	if resp.StatusCode >= 400 {
		return 0, "", "", "", false,
			&APIError{StatusCode: resp.StatusCode, Target: url, Snippet: readSnippet(resp)}
	}

	f, err := os.Create(temp)
	if err != nil {
		return 0, "", "", "", false, fmt.Errorf("create temp file: %w", err)
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(f, hasher), resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(temp)
		// A connection dropped mid-body counts as a transient
		// network failure.
		return 0, "", "", "", true, fmt.Errorf("download interrupted for %s: %w", url, err)
	}

	if err := os.Rename(temp, destination); err != nil {
		os.Remove(temp)
		return 0, "", "", "", false, fmt.Errorf("finalize %s: %w", destination, err)
	}

	return written, hex.EncodeToString(hasher.Sum(nil)), resp.Header.Get("ETag"), "", false, nil
}
