package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"canvasctl/internal/canvas"
	"canvasctl/internal/domain"
)

// API is the slice of the Canvas client the reconciler consumes.
type API interface {
	ListCourseFolders(ctx context.Context, courseID int) (map[int]string, error)
	ListCourseFiles(ctx context.Context, courseID int) ([]any, error)
	ListSourceItems(ctx context.Context, courseID int, sourceType string) ([]any, error)
	GetFile(ctx context.Context, fileID int) (map[string]any, error)
}

// Normalize validates and deduplicates requested source types,
// preserving request order. Empty input selects all sources.
func Normalize(selected []string) ([]string, error) {
	if len(selected) == 0 {
		return domain.AllSources(), nil
	}
	known := make(map[string]bool)
	for _, s := range domain.AllSources() {
		known[s] = true
	}

	normalized := make([]string, 0, len(selected))
	seen := make(map[string]bool)
	for _, source := range selected {
		if !known[source] {
			return nil, fmt.Errorf("unsupported source type: %s", source)
		}
		if !seen[source] {
			seen[source] = true
			normalized = append(normalized, source)
		}
	}
	return normalized, nil
}

type sourceOrigin struct {
	sourceType string
	sourceRef  string
}

// Collect reconciles every requested source of a course into the
// canonical RemoteFile list, sorted by file id, plus non-fatal
// warnings. The files source is authoritative: files seen there keep
// their native metadata even when other sources reference them too.
func Collect(ctx context.Context, api API, courseID int, selected []string) ([]domain.RemoteFile, []domain.SourceWarning, error) {
	normalized, err := Normalize(selected)
	if err != nil {
		return nil, nil, err
	}

	var warnings []domain.SourceWarning

	folderMap, err := api.ListCourseFolders(ctx, courseID)
	if err != nil {
		folderMap = map[int]string{}
		warnings = append(warnings, domain.SourceWarning{
			SourceType: domain.SourceFiles,
			SourceRef:  fmt.Sprintf("files:course:%d", courseID),
			Detail:     fmt.Sprintf("could not list course folders: %v", err),
		})
	}

	fileMap := make(map[int]domain.RemoteFile)

	if containsSource(normalized, domain.SourceFiles) {
		payloads, err := api.ListCourseFiles(ctx, courseID)
		if err != nil {
			warnings = append(warnings, domain.SourceWarning{
				SourceType: domain.SourceFiles,
				SourceRef:  fmt.Sprintf("files:course:%d", courseID),
				Detail:     fmt.Sprintf("skipping files source: %v", err),
			})
			payloads = nil
		}
		for _, raw := range payloads {
			payload, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			ref := sourceRef(domain.SourceFiles, payload)
			remote, err := remoteFileFromPayload(payload, courseID, folderMap, domain.SourceFiles, ref)
			if err != nil {
				warnings = append(warnings, domain.SourceWarning{
					SourceType: domain.SourceFiles,
					SourceRef:  ref,
					Detail:     err.Error(),
				})
				continue
			}
			fileMap[remote.FileID] = remote
		}
	}

	// First discovery of an id wins across the remaining sources,
	// which run in request order.
	discovered := make(map[int]sourceOrigin)
	var discoveredOrder []int

	for _, sourceType := range normalized {
		if sourceType == domain.SourceFiles {
			continue
		}

		items, err := api.ListSourceItems(ctx, courseID, sourceType)
		if err != nil {
			warnings = append(warnings, domain.SourceWarning{
				SourceType: sourceType,
				SourceRef:  fmt.Sprintf("%s:course:%d", sourceType, courseID),
				Detail:     fmt.Sprintf("skipping %s source: %v", sourceType, err),
			})
			continue
		}

		for _, item := range items {
			payload, _ := item.(map[string]any)
			ref := sourceRef(sourceType, payload)
			ids := ExtractFileIDs(item)
			if len(ids) == 0 && hasUnresolvedFileLink(item) {
				warnings = append(warnings, domain.SourceWarning{
					SourceType: sourceType,
					SourceRef:  ref,
					Detail:     "found a file-like link but could not extract a Canvas file id",
				})
			}
			for _, id := range ids {
				if _, ok := discovered[id]; !ok {
					discovered[id] = sourceOrigin{sourceType: sourceType, sourceRef: ref}
					discoveredOrder = append(discoveredOrder, id)
				}
			}
		}
	}

	for _, fileID := range discoveredOrder {
		if _, ok := fileMap[fileID]; ok {
			continue
		}
		origin := discovered[fileID]

		payload, err := api.GetFile(ctx, fileID)
		if err != nil {
			warnings = append(warnings, domain.SourceWarning{
				SourceType: origin.sourceType,
				SourceRef:  origin.sourceRef,
				Detail:     fmt.Sprintf("could not resolve file_id=%d: %v", fileID, err),
			})
			continue
		}
		remote, err := remoteFileFromPayload(payload, courseID, folderMap, origin.sourceType, origin.sourceRef)
		if err != nil {
			warnings = append(warnings, domain.SourceWarning{
				SourceType: origin.sourceType,
				SourceRef:  origin.sourceRef,
				Detail:     fmt.Sprintf("could not resolve file_id=%d: %v", fileID, err),
			})
			continue
		}
		fileMap[remote.FileID] = remote
	}

	ordered := make([]domain.RemoteFile, 0, len(fileMap))
	for _, remote := range fileMap {
		ordered = append(ordered, remote)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].FileID < ordered[j].FileID })

	return ordered, warnings, nil
}

func containsSource(sources []string, want string) bool {
	for _, s := range sources {
		if s == want {
			return true
		}
	}
	return false
}

// sourceRef builds the human-readable locator for an item.
func sourceRef(sourceType string, item map[string]any) string {
	for _, key := range []string{"id", "_id", "url"} {
		if value, ok := item[key]; ok && value != nil {
			if id, ok := canvas.IntOf(value); ok {
				return fmt.Sprintf("%s:%d", sourceType, id)
			}
			if s := canvas.StringOf(value); s != "" {
				return fmt.Sprintf("%s:%s", sourceType, s)
			}
		}
	}
	return sourceType + ":unknown"
}

// remoteFileFromPayload converts a Canvas file payload into the
// canonical descriptor. A payload without an id or a usable download
// URL is a conversion failure.
func remoteFileFromPayload(payload map[string]any, courseID int, folderMap map[int]string, sourceType, ref string) (domain.RemoteFile, error) {
	fileID, ok := canvas.IntOf(payload["id"])
	if !ok {
		return domain.RemoteFile{}, fmt.Errorf("file payload missing id for source %s/%s", sourceType, ref)
	}

	filename := canvas.StringOf(payload["filename"])
	if filename == "" {
		filename = canvas.StringOf(payload["display_name"])
	}
	if filename == "" {
		filename = fmt.Sprintf("file-%d", fileID)
	}
	displayName := canvas.StringOf(payload["display_name"])
	if displayName == "" {
		displayName = filename
	}

	folderPath := ""
	if folderID, ok := canvas.IntOf(payload["folder_id"]); ok {
		folderPath = folderMap[folderID]
	}

	var size *int64
	if n, ok := canvas.Int64Of(payload["size"]); ok {
		size = &n
	}

	updatedAt := canvas.StringOf(payload["modified_at"])
	if updatedAt == "" {
		updatedAt = canvas.StringOf(payload["updated_at"])
	}

	downloadURL := canvas.StringOf(payload["url"])
	if downloadURL == "" {
		downloadURL = canvas.StringOf(payload["download_url"])
	}
	if strings.TrimSpace(downloadURL) == "" {
		return domain.RemoteFile{}, fmt.Errorf("file %d has no downloadable URL", fileID)
	}

	return domain.RemoteFile{
		FileID:      fileID,
		CourseID:    courseID,
		DisplayName: displayName,
		Filename:    filename,
		FolderPath:  folderPath,
		Size:        size,
		UpdatedAt:   updatedAt,
		DownloadURL: downloadURL,
		SourceType:  sourceType,
		SourceRef:   ref,
	}, nil
}
