package canvas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDownloadFileStreamsAndChecksums(t *testing.T) {
	content := []byte("lecture notes, week one")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("ETag", "v1-abc")
		w.Write(content)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "course", "notes.txt")
	client := NewClient(server.URL, "secret", testOptions())

	n, sum, etag, err := client.DownloadFile(context.Background(), server.URL+"/files/1/download", dest)
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), n)

	wantSum := sha256.Sum256(content)
	require.Equal(t, hex.EncodeToString(wantSum[:]), sum)
	require.Equal(t, "v1-abc", etag)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, content, got)

	_, err = os.Stat(dest + tempSuffix)
	require.True(t, os.IsNotExist(err), "temp file must not survive a successful download")
}

func TestDownloadFileRetriesTransientStatus(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok after retry")
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "retry.txt")
	client := NewClient(server.URL, "secret", testOptions())

	n, _, _, err := client.DownloadFile(context.Background(), server.URL+"/files/2/download", dest)
	require.NoError(t, err)
	require.Equal(t, int64(len("ok after retry")), n)
	require.Equal(t, 2, attempts)
}

func TestDownloadFileRetriesInterruptedBody(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			// Advertise more bytes than we send so the client sees a
			// truncated body.
			w.Header().Set("Content-Length", "1000")
			w.Write([]byte("partial"))
			return
		}
		fmt.Fprint(w, "complete")
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "resumed.txt")
	client := NewClient(server.URL, "secret", testOptions())

	_, _, _, err := client.DownloadFile(context.Background(), server.URL+"/files/3/download", dest)
	require.NoError(t, err)
	require.Equal(t, 2, attempts)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "complete", string(got))
}

func TestDownloadFileDoesNotRetryClientError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "denied.txt")
	client := NewClient(server.URL, "secret", testOptions())

	_, _, _, err := client.DownloadFile(context.Background(), server.URL+"/files/4/download", dest)
	require.Error(t, err)
	require.Equal(t, 1, attempts)

	_, err = os.Stat(dest)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(dest + tempSuffix)
	require.True(t, os.IsNotExist(err))
}
