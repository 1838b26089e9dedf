package canvas

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListCourses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/courses", r.URL.Path)
		require.Equal(t, "active", r.URL.Query().Get("enrollment_state"))
		require.Equal(t, "100", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, `[
			{"id": 42, "course_code": "CS 101", "name": "Intro", "workflow_state": "available",
			 "term": {"name": "Fall 2026"}},
			{"id": 43, "name": "No Code"},
			{"name": "missing id, dropped"}
		]`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	courses, err := client.ListCourses(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, 42, courses[0].ID)
	require.Equal(t, "CS 101", courses[0].CourseCode)
	require.Equal(t, "Fall 2026", courses[0].TermName)
	require.Equal(t, "", courses[1].CourseCode)
}

func TestListCoursesAllSkipsEnrollmentFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.False(t, r.URL.Query().Has("enrollment_state"))
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	_, err := client.ListCourses(context.Background(), true)
	require.NoError(t, err)
}

func TestListCourseFolders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/courses/42/folders", r.URL.Path)
		fmt.Fprint(w, `[
			{"id": 5, "full_name": "course files/week 1/"},
			{"id": 6, "name": "unfiled"}
		]`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	folders, err := client.ListCourseFolders(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, map[int]string{5: "course files/week 1", 6: "unfiled"}, folders)
}

func TestListPagesFetchesDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/courses/42/pages":
			fmt.Fprint(w, `[{"url": "syllabus", "title": "Syllabus"}]`)
		case "/api/v1/courses/42/pages/syllabus":
			fmt.Fprint(w, `{"url": "syllabus", "body": "<a href=\"/courses/42/files/11\">notes</a>"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	pages, err := client.ListPages(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	detail, ok := pages[0].(map[string]any)
	require.True(t, ok)
	require.Contains(t, detail["body"], "/files/11")
}

func TestListSourceItemsRejectsUnknownType(t *testing.T) {
	client := NewClient("https://canvas.example.edu", "secret", DefaultOptions())
	_, err := client.ListSourceItems(context.Background(), 42, "quizzes")
	require.Error(t, err)
}

func TestGetFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/files/11", r.URL.Path)
		fmt.Fprint(w, `{"id": 11, "display_name": "intro.pdf", "url": "https://host/files/11/download"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", testOptions())
	file, err := client.GetFile(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, "intro.pdf", file["display_name"])
}
