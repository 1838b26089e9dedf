package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"canvasctl/internal/domain"
)

const (
	// FileName is the per-course manifest, overwritten each run.
	FileName = ".canvasctl-manifest.json"
	// runsDirName holds timestamped run summaries, one per invocation.
	runsDirName = ".canvasctl-runs"

	runTimestampLayout = "20060102T150405Z"
)

// Item is the durable record of one file's outcome, flattened from
// RemoteFile and DownloadResult. FileID and Size are nil for
// unresolved-warning items and unknown sizes respectively.
type Item struct {
	CourseID    int    `json:"course_id"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	ETag        string `json:"etag"`
	FileID      *int   `json:"file_id"`
	LocalPath   string `json:"local_path"`
	RemoteURL   string `json:"remote_url"`
	SHA256      string `json:"sha256"`
	Size        *int64 `json:"size"`
	SourceRef   string `json:"source_ref"`
	SourceType  string `json:"source_type"`
	Status      string `json:"status"`
	UpdatedAt   string `json:"updated_at"`
}

// Counts aggregates download statuses for one course.
type Counts struct {
	Downloaded int `json:"downloaded"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// CourseAggregate is the per-course entry of a run summary.
type CourseAggregate struct {
	Counts       Counts `json:"counts"`
	CourseCode   string `json:"course_code"`
	CourseID     int    `json:"course_id"`
	CourseName   string `json:"course_name"`
	ManifestPath string `json:"manifest_path"`
	Unresolved   int    `json:"unresolved"`
}

// Payload is the top-level manifest document, shared by course
// manifests and run summaries (the latter carry Courses).
type Payload struct {
	BaseURL     string            `json:"base_url"`
	CompletedAt string            `json:"completed_at"`
	CourseID    int               `json:"course_id,omitempty"`
	Courses     []CourseAggregate `json:"courses,omitempty"`
	Items       []Item            `json:"items"`
	RunID       string            `json:"run_id"`
	Sources     []string          `json:"sources"`
	StartedAt   string            `json:"started_at"`
}

// Store reads and writes manifest files on the given filesystem.
type Store struct {
	fs afero.Fs
}

func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// CoursePath is the manifest location for one course slug.
func CoursePath(destRoot, courseSlug string) string {
	return filepath.Join(destRoot, courseSlug, FileName)
}

// Load reads a manifest. A missing file yields an empty payload, not
// an error.
func (s *Store) Load(path string) (Payload, error) {
	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return Payload{}, err
	}
	if !exists {
		return Payload{}, nil
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return Payload{}, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return payload, nil
}

func (s *Store) write(path string, payload Payload) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, path, append(data, '\n'), 0644)
}

// WriteCourse fully replaces the course manifest for the slug.
func (s *Store) WriteCourse(destRoot, courseSlug string, payload Payload) (string, error) {
	path := CoursePath(destRoot, courseSlug)
	if err := s.write(path, payload); err != nil {
		return "", err
	}
	return path, nil
}

// WriteRunSummary writes the invocation summary to a timestamped
// file that is never overwritten by later runs.
func (s *Store) WriteRunSummary(destRoot string, payload Payload) (string, error) {
	name := time.Now().UTC().Format(runTimestampLayout) + ".json"
	path := filepath.Join(destRoot, runsDirName, name)
	if err := s.write(path, payload); err != nil {
		return "", err
	}
	return path, nil
}

// IndexByFileID builds the skip-decision lookup. Items without an
// integer file id (unresolved warnings) are excluded.
func IndexByFileID(payload Payload) map[int]Item {
	out := make(map[int]Item, len(payload.Items))
	for _, item := range payload.Items {
		if item.FileID != nil {
			out[*item.FileID] = item
		}
	}
	return out
}

// FromResult flattens a download result into a manifest item. The
// local path is recorded absolute so manifests stay usable from any
// working directory.
func FromResult(result domain.DownloadResult) Item {
	fileID := result.Task.File.FileID
	localPath := result.Task.LocalPath
	if abs, err := filepath.Abs(localPath); err == nil {
		localPath = abs
	}
	return Item{
		CourseID:    result.Task.CourseID,
		DisplayName: result.Task.File.DisplayName,
		Error:       result.Error,
		ETag:        result.ETag,
		FileID:      &fileID,
		LocalPath:   localPath,
		RemoteURL:   result.Task.File.DownloadURL,
		SHA256:      result.SHA256,
		Size:        result.Task.File.Size,
		SourceRef:   result.Task.File.SourceRef,
		SourceType:  result.Task.File.SourceType,
		Status:      result.Status,
		UpdatedAt:   result.Task.File.UpdatedAt,
	}
}

// FromWarning records a discovery warning as an unresolved item.
func FromWarning(warning domain.SourceWarning, courseID int) Item {
	return Item{
		CourseID:    courseID,
		DisplayName: warning.Detail,
		Error:       warning.Detail,
		SourceRef:   warning.SourceRef,
		SourceType:  warning.SourceType,
		Status:      domain.StatusUnresolved,
	}
}

// Summarize counts results by status.
func Summarize(results []domain.DownloadResult) Counts {
	var counts Counts
	for _, result := range results {
		switch result.Status {
		case domain.StatusDownloaded:
			counts.Downloaded++
		case domain.StatusSkipped:
			counts.Skipped++
		case domain.StatusFailed:
			counts.Failed++
		}
	}
	return counts
}

// ResumeTasks rebuilds download tasks for the payload's failed and
// pending items. Items missing a file id, remote URL, or local path
// are silently dropped.
func ResumeTasks(payload Payload) []domain.DownloadTask {
	defaultCourseID := payload.CourseID
	if defaultCourseID == 0 {
		defaultCourseID = -1
	}

	var tasks []domain.DownloadTask
	for _, item := range payload.Items {
		if item.Status != domain.StatusFailed && item.Status != domain.StatusPending {
			continue
		}
		if item.FileID == nil || item.RemoteURL == "" || item.LocalPath == "" {
			continue
		}

		courseID := item.CourseID
		if courseID == 0 {
			courseID = defaultCourseID
		}
		sourceType := item.SourceType
		if sourceType == "" {
			sourceType = "resume"
		}
		sourceRef := item.SourceRef
		if sourceRef == "" {
			sourceRef = "resume"
		}
		displayName := item.DisplayName
		if displayName == "" {
			displayName = fmt.Sprintf("file-%d", *item.FileID)
		}

		courseSlug := filepath.Base(filepath.Dir(item.LocalPath))
		if courseSlug == "." || courseSlug == string(filepath.Separator) {
			courseSlug = fmt.Sprintf("course-%d", courseID)
		}

		tasks = append(tasks, domain.DownloadTask{
			CourseID:   courseID,
			CourseSlug: courseSlug,
			File: domain.RemoteFile{
				FileID:      *item.FileID,
				CourseID:    courseID,
				DisplayName: displayName,
				Filename:    displayName,
				Size:        item.Size,
				UpdatedAt:   item.UpdatedAt,
				DownloadURL: item.RemoteURL,
				SourceType:  sourceType,
				SourceRef:   sourceRef,
			},
			LocalPath: item.LocalPath,
		})
	}
	return tasks
}

// DestRootForManifestPath infers the destination root a manifest
// belongs to from its location.
func DestRootForManifestPath(manifestPath string) string {
	dir := filepath.Dir(manifestPath)
	if filepath.Base(manifestPath) == FileName {
		return filepath.Dir(dir)
	}
	if filepath.Base(dir) == runsDirName {
		return filepath.Dir(dir)
	}
	return dir
}
