package sources

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"canvasctl/internal/canvas"
)

// The two link forms Canvas embeds file references as in free text.
var fileIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/files/(\d+)(?:/download)?`),
	regexp.MustCompile(`/api/v1/files/(\d+)`),
}

// Payload keys that carry a file id directly.
var fileIDKeys = map[string]bool{
	"file_id":       true,
	"attachment_id": true,
	"content_id":    true,
}

// ExtractFileIDsFromText finds Canvas file ids embedded in a text
// fragment, deduplicated and sorted.
func ExtractFileIDsFromText(text string) []int {
	found := make(map[int]bool)
	for _, pattern := range fileIDPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			if id, err := strconv.Atoi(match[1]); err == nil {
				found[id] = true
			}
		}
	}
	return sortedIDs(found)
}

// ExtractFileIDs recursively scans a generic JSON payload for file
// references: attachment lists, known id-bearing keys, and link
// patterns inside every string leaf.
func ExtractFileIDs(payload any) []int {
	found := make(map[int]bool)
	walkForIDs(payload, found)
	return sortedIDs(found)
}

func walkForIDs(node any, found map[int]bool) {
	switch t := node.(type) {
	case map[string]any:
		if attachments, ok := t["attachments"].([]any); ok {
			for _, raw := range attachments {
				if attachment, ok := raw.(map[string]any); ok {
					if id, ok := canvas.IntOf(attachment["id"]); ok {
						found[id] = true
					}
				}
			}
		}
		for key, value := range t {
			if fileIDKeys[key] {
				if id, ok := canvas.IntOf(value); ok {
					found[id] = true
				}
			}
			if s, ok := value.(string); ok {
				for _, id := range ExtractFileIDsFromText(s) {
					found[id] = true
				}
			} else {
				walkForIDs(value, found)
			}
		}
	case []any:
		for _, item := range t {
			walkForIDs(item, found)
		}
	case string:
		for _, id := range ExtractFileIDsFromText(t) {
			found[id] = true
		}
	}
}

// hasUnresolvedFileLink reports whether any string leaf looks like a
// file link yet yields no extractable id.
func hasUnresolvedFileLink(payload any) bool {
	for _, text := range stringLeaves(payload, nil) {
		if strings.Contains(strings.ToLower(text), "/files/") && len(ExtractFileIDsFromText(text)) == 0 {
			return true
		}
	}
	return false
}

func stringLeaves(node any, acc []string) []string {
	switch t := node.(type) {
	case string:
		acc = append(acc, t)
	case []any:
		for _, item := range t {
			acc = stringLeaves(item, acc)
		}
	case map[string]any:
		for _, value := range t {
			acc = stringLeaves(value, acc)
		}
	}
	return acc
}

func sortedIDs(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
