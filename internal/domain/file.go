package domain

// Source types a course may reference downloadable files through.
const (
	SourceFiles       = "files"
	SourceAssignments = "assignments"
	SourceDiscussions = "discussions"
	SourcePages       = "pages"
	SourceModules     = "modules"
)

// AllSources lists every supported source type in processing order.
// The files source is authoritative and always reconciled first.
func AllSources() []string {
	return []string{SourceFiles, SourceAssignments, SourceDiscussions, SourcePages, SourceModules}
}

// RemoteFile is the canonical descriptor of a downloadable Canvas
// asset, regardless of which source it was discovered through.
// Size is nil and UpdatedAt empty when Canvas did not report them.
type RemoteFile struct {
	FileID      int
	CourseID    int
	DisplayName string
	Filename    string
	FolderPath  string
	Size        *int64
	UpdatedAt   string
	DownloadURL string
	SourceType  string
	SourceRef   string
}

// SourceWarning records a non-fatal discovery problem. Warnings never
// abort a run; they end up in the manifest with status "unresolved".
type SourceWarning struct {
	SourceType string
	SourceRef  string
	Detail     string
}
