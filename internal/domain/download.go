package domain

// Download statuses recorded in manifests.
const (
	StatusDownloaded = "downloaded"
	StatusSkipped    = "skipped"
	StatusFailed     = "failed"
	StatusPending    = "pending"
	StatusUnresolved = "unresolved"
)

// DownloadTask binds a RemoteFile to its resolved local path.
// Immutable once planned.
type DownloadTask struct {
	CourseID   int
	CourseSlug string
	File       RemoteFile
	LocalPath  string
}

// DownloadResult is the outcome of executing one task. Created by the
// download engine and never mutated afterwards.
type DownloadResult struct {
	Task            DownloadTask
	Status          string
	BytesDownloaded int64
	Error           string
	SHA256          string
	ETag            string
}
