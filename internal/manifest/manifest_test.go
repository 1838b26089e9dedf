package manifest

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"canvasctl/internal/domain"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestLoadMissingManifestIsEmpty(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())
	payload, err := store.Load("/dest/cs-101-42/.canvasctl-manifest.json")
	require.NoError(t, err)
	require.Empty(t, payload.Items)
	require.Empty(t, payload.RunID)
}

func TestLoadRejectsMalformedManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/dest/cs-101-42/.canvasctl-manifest.json"
	require.NoError(t, afero.WriteFile(fs, path, []byte("{not json"), 0644))

	_, err := NewStore(fs).Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse manifest")
}

func TestWriteCourseRoundTrip(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())

	payload := Payload{
		BaseURL:   "https://canvas.example.edu",
		CourseID:  42,
		RunID:     "2x9qYp",
		Sources:   []string{"files", "pages"},
		StartedAt: "2026-01-15T10:00:00Z",
		Items: []Item{
			{
				CourseID:   42,
				FileID:     intPtr(11),
				LocalPath:  "/dest/cs-101-42/intro.pdf",
				RemoteURL:  "https://canvas.example.edu/files/11/download",
				Size:       int64Ptr(1000),
				SHA256:     "abc",
				Status:     domain.StatusDownloaded,
				SourceType: "files",
			},
		},
	}

	path, err := store.WriteCourse("/dest", "cs-101-42", payload)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/dest", "cs-101-42", FileName), path)

	loaded, err := store.Load(path)
	require.NoError(t, err)
	require.Equal(t, payload.BaseURL, loaded.BaseURL)
	require.Equal(t, payload.Sources, loaded.Sources)
	require.Len(t, loaded.Items, 1)
	require.Equal(t, 11, *loaded.Items[0].FileID)
	require.Equal(t, int64(1000), *loaded.Items[0].Size)
}

func TestWriteCourseReplacesPriorManifest(t *testing.T) {
	store := NewStore(afero.NewMemMapFs())

	_, err := store.WriteCourse("/dest", "cs-101-42", Payload{RunID: "first", Items: []Item{{FileID: intPtr(1)}}})
	require.NoError(t, err)
	path, err := store.WriteCourse("/dest", "cs-101-42", Payload{RunID: "second"})
	require.NoError(t, err)

	loaded, err := store.Load(path)
	require.NoError(t, err)
	require.Equal(t, "second", loaded.RunID)
	require.Empty(t, loaded.Items)
}

func TestWriteRunSummaryLandsInRunsDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs)

	path, err := store.WriteRunSummary("/dest", Payload{RunID: "r1"})
	require.NoError(t, err)
	require.Equal(t, runsDirName, filepath.Base(filepath.Dir(path)))
	require.Equal(t, ".json", filepath.Ext(path))

	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestIndexByFileIDSkipsUnresolved(t *testing.T) {
	payload := Payload{Items: []Item{
		{FileID: intPtr(1), Status: domain.StatusDownloaded},
		{FileID: nil, Status: domain.StatusUnresolved},
		{FileID: intPtr(2), Status: domain.StatusFailed},
	}}

	index := IndexByFileID(payload)
	require.Len(t, index, 2)
	require.Equal(t, domain.StatusDownloaded, index[1].Status)
	require.Equal(t, domain.StatusFailed, index[2].Status)
}

func TestFromResultFlattens(t *testing.T) {
	size := int64(512)
	result := domain.DownloadResult{
		Task: domain.DownloadTask{
			CourseID: 42,
			File: domain.RemoteFile{
				FileID:      11,
				DisplayName: "intro.pdf",
				Size:        &size,
				UpdatedAt:   "2026-01-15T10:00:00Z",
				DownloadURL: "https://canvas.example.edu/files/11/download",
				SourceType:  "files",
				SourceRef:   "files:11",
			},
			LocalPath: "/dest/cs-101-42/intro.pdf",
		},
		Status:          domain.StatusDownloaded,
		BytesDownloaded: 512,
		SHA256:          "abc",
		ETag:            "v1",
	}

	item := FromResult(result)
	require.Equal(t, 11, *item.FileID)
	require.Equal(t, "/dest/cs-101-42/intro.pdf", item.LocalPath)
	require.Equal(t, domain.StatusDownloaded, item.Status)
	require.Equal(t, "abc", item.SHA256)
	require.Equal(t, "v1", item.ETag)
	require.Equal(t, int64(512), *item.Size)
}

func TestFromWarningIsUnresolved(t *testing.T) {
	item := FromWarning(domain.SourceWarning{
		SourceType: "pages",
		SourceRef:  "pages:3",
		Detail:     "could not extract a Canvas file id",
	}, 42)

	require.Equal(t, domain.StatusUnresolved, item.Status)
	require.Nil(t, item.FileID)
	require.Equal(t, 42, item.CourseID)
	require.Equal(t, "pages:3", item.SourceRef)
}

func TestSummarize(t *testing.T) {
	counts := Summarize([]domain.DownloadResult{
		{Status: domain.StatusDownloaded},
		{Status: domain.StatusDownloaded},
		{Status: domain.StatusSkipped},
		{Status: domain.StatusFailed},
	})
	require.Equal(t, Counts{Downloaded: 2, Skipped: 1, Failed: 1}, counts)
}

func TestResumeTasksSelectsRetryableItems(t *testing.T) {
	payload := Payload{
		CourseID: 42,
		Items: []Item{
			{FileID: intPtr(1), Status: domain.StatusDownloaded, RemoteURL: "u1", LocalPath: "/d/c/a.pdf"},
			{FileID: intPtr(2), Status: domain.StatusFailed, RemoteURL: "u2", LocalPath: "/d/cs-101-42/b.pdf"},
			{FileID: intPtr(3), Status: domain.StatusPending, RemoteURL: "u3", LocalPath: "/d/cs-101-42/c.pdf"},
			{FileID: nil, Status: domain.StatusFailed, RemoteURL: "u4", LocalPath: "/d/c/d.pdf"},
			{FileID: intPtr(5), Status: domain.StatusFailed, RemoteURL: "", LocalPath: "/d/c/e.pdf"},
			{FileID: intPtr(6), Status: domain.StatusFailed, RemoteURL: "u6", LocalPath: ""},
		},
	}

	tasks := ResumeTasks(payload)
	require.Len(t, tasks, 2)
	require.Equal(t, 2, tasks[0].File.FileID)
	require.Equal(t, "u2", tasks[0].File.DownloadURL)
	require.Equal(t, "cs-101-42", tasks[0].CourseSlug)
	require.Equal(t, 42, tasks[0].CourseID)
	require.Equal(t, 3, tasks[1].File.FileID)
}

func TestResumeTasksDefaultsForSparseItems(t *testing.T) {
	payload := Payload{Items: []Item{
		{FileID: intPtr(9), Status: domain.StatusFailed, RemoteURL: "u9", LocalPath: "/d/slug/x.pdf"},
	}}

	tasks := ResumeTasks(payload)
	require.Len(t, tasks, 1)
	require.Equal(t, -1, tasks[0].CourseID)
	require.Equal(t, "resume", tasks[0].File.SourceType)
	require.Equal(t, "resume", tasks[0].File.SourceRef)
	require.Equal(t, "file-9", tasks[0].File.DisplayName)
}

func TestDestRootForManifestPath(t *testing.T) {
	require.Equal(t, "/dest", DestRootForManifestPath("/dest/cs-101-42/"+FileName))
	require.Equal(t, "/dest", DestRootForManifestPath("/dest/"+runsDirName+"/20260115T100000Z.json"))
	require.Equal(t, "/somewhere", DestRootForManifestPath("/somewhere/other.json"))
}
