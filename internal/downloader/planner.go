package downloader

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"canvasctl/internal/domain"
)

var (
	invalidSegmentRE = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)
	hyphenRunRE      = regexp.MustCompile(`-+`)
)

// Slugify lowercases a label and collapses everything outside the
// filesystem-safe set into single hyphens.
func Slugify(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	lowered = invalidSegmentRE.ReplaceAllString(lowered, "-")
	lowered = strings.ReplaceAll(lowered, " ", "-")
	lowered = hyphenRunRE.ReplaceAllString(lowered, "-")
	lowered = strings.Trim(lowered, "-._")
	if lowered == "" {
		return "course"
	}
	return lowered
}

// SanitizeSegment makes a single path segment filesystem-safe.
// Empty and traversal segments become a placeholder.
func SanitizeSegment(segment string) string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(segment, `\`, "/"))
	cleaned = invalidSegmentRE.ReplaceAllString(cleaned, "_")
	cleaned = strings.Trim(cleaned, " .")
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "_"
	}
	return cleaned
}

// SanitizeFolderPath sanitizes each segment of a remote slash-separated
// folder path and joins them for the local filesystem.
func SanitizeFolderPath(folderPath string) string {
	if folderPath == "" {
		return ""
	}
	var parts []string
	for _, part := range strings.Split(strings.ReplaceAll(folderPath, `\`, "/"), "/") {
		clean := SanitizeSegment(part)
		if clean != "" && clean != "." && clean != ".." {
			parts = append(parts, clean)
		}
	}
	return filepath.Join(parts...)
}

// BuildCourseSlug derives the unique directory name for a course.
// The numeric id suffix keeps courses sharing a code apart.
func BuildCourseSlug(course domain.CourseSummary) string {
	label := course.CourseCode
	if label == "" {
		label = course.Name
	}
	if label == "" {
		label = fmt.Sprintf("course-%d", course.ID)
	}
	return fmt.Sprintf("%s-%d", Slugify(label), course.ID)
}

// safeFilename sanitizes the stem and extension separately so the
// extension survives sanitization.
func safeFilename(remote domain.RemoteFile) string {
	raw := remote.Filename
	if raw == "" {
		raw = remote.DisplayName
	}
	if raw == "" {
		raw = fmt.Sprintf("file-%d", remote.FileID)
	}

	if idx := strings.LastIndex(raw, "."); idx >= 0 {
		stem := SanitizeSegment(raw[:idx])
		extension := SanitizeSegment(raw[idx+1:])
		if extension != "" {
			return stem + "." + extension
		}
		return stem
	}
	return SanitizeSegment(raw)
}

// PlanCourseTasks maps each remote file to a unique local path under
// <destRoot>/<slug>/<folders>/<filename>. Tasks are planned in input
// order; a path collision appends the file id to the later file's
// stem, so the first file for a path keeps the unmodified name.
func PlanCourseTasks(course domain.CourseSummary, remoteFiles []domain.RemoteFile, destRoot string) []domain.DownloadTask {
	courseSlug := BuildCourseSlug(course)
	courseRoot := filepath.Join(destRoot, courseSlug)

	planned := make(map[string]int, len(remoteFiles))
	tasks := make([]domain.DownloadTask, 0, len(remoteFiles))

	for _, remote := range remoteFiles {
		candidate := filepath.Join(courseRoot, SanitizeFolderPath(remote.FolderPath), safeFilename(remote))

		if prevID, ok := planned[candidate]; ok && prevID != remote.FileID {
			extension := filepath.Ext(candidate)
			stem := strings.TrimSuffix(candidate, extension)
			candidate = fmt.Sprintf("%s_%d%s", stem, remote.FileID, extension)
		}

		planned[candidate] = remote.FileID
		tasks = append(tasks, domain.DownloadTask{
			CourseID:   course.ID,
			CourseSlug: courseSlug,
			File:       remote,
			LocalPath:  candidate,
		})
	}

	return tasks
}
