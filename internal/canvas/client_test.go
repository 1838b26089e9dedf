package canvas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		RetryBaseDelay: 5 * time.Millisecond,
	}
}

func TestGetPaginatedFollowsNextLinks(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		switch r.URL.RawQuery {
		case "page=2":
			fmt.Fprint(w, `[{"id": 3}]`)
		default:
			w.Header().Set("Link", fmt.Sprintf(`<%s/api/v1/courses?page=2>; rel="next"`, server.URL))
			fmt.Fprint(w, `[{"id": 1}, {"id": 2}]`)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	items, err := client.GetPaginated(context.Background(), "courses", nil)
	require.NoError(t, err)
	require.Len(t, items, 3)

	first, ok := items[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(1), first["id"])
	last, ok := items[2].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(3), last["id"])
}

func TestGetPaginatedDetectsLoop(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every page points back at the first one.
		w.Header().Set("Link", fmt.Sprintf(`<%s/api/v1/courses>; rel="next"`, server.URL))
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	_, err := client.GetPaginated(context.Background(), "courses", nil)
	require.ErrorIs(t, err, ErrPaginationLoop)
}

func TestGetPaginatedWrapsScalarPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 7, "name": "single"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	items, err := client.GetPaginated(context.Background(), "courses/7", nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestRequestRetriesTransientStatus(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"ok": true}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	payload, err := client.GetJSON(context.Background(), "courses/1", nil)
	require.NoError(t, err)
	require.Equal(t, 2, attempts)

	obj, ok := payload.(map[string]any)
	require.True(t, ok)
	require.Equal(t, true, obj["ok"])
}

func TestRequestHonorsRetryAfter(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	opts := testOptions()
	// A large base delay proves Retry-After took precedence.
	opts.RetryBaseDelay = 30 * time.Second

	client := NewClient(server.URL, "secret", opts)
	start := time.Now()
	_, err := client.GetJSON(context.Background(), "courses", nil)
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestRequestStopsAfterMaxRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	_, err := client.GetJSON(context.Background(), "courses", nil)
	require.Error(t, err)
	require.Equal(t, 3, attempts)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestRequestNeverRetriesUnauthorized(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	_, err := client.GetJSON(context.Background(), "courses", nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.Equal(t, 1, attempts)
}

func TestRequestSurfacesClientErrorSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errors": [{"message": "The specified resource does not exist."}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	_, err := client.GetJSON(context.Background(), "courses/999", nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Contains(t, apiErr.Snippet, "does not exist")
}

func TestNormalizeTarget(t *testing.T) {
	client := NewClient("https://canvas.example.edu/", "secret", DefaultOptions())

	tests := []struct {
		input string
		want  string
	}{
		{"courses", "courses"},
		{"/courses", "courses"},
		{"//courses/1/files", "courses/1/files"},
		{"/api/v1/courses/1/files", "courses/1/files"},
		{"https://canvas.example.edu/api/v1/courses?page=2", "https://canvas.example.edu/api/v1/courses?page=2"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, client.normalizeTarget(tt.input), "input %q", tt.input)
	}
}

func TestBaseURLTrimsTrailingSlash(t *testing.T) {
	client := NewClient("https://canvas.example.edu/", "secret", DefaultOptions())
	require.Equal(t, "https://canvas.example.edu", client.BaseURL())
}
