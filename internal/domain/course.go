package domain

import (
	"sort"
	"strings"
)

// CourseSummary is one row of the Canvas course listing. Optional
// fields are empty strings when Canvas omits them.
type CourseSummary struct {
	ID            int    `json:"id"`
	CourseCode    string `json:"course_code"`
	Name          string `json:"name"`
	WorkflowState string `json:"workflow_state"`
	TermName      string `json:"term_name"`
	StartAt       string `json:"start_at"`
	EndAt         string `json:"end_at"`
}

// SortCourses orders courses by (course_code, name, id), case-insensitive.
func SortCourses(courses []CourseSummary) []CourseSummary {
	out := make([]CourseSummary, len(courses))
	copy(out, courses)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := strings.ToLower(out[i].CourseCode), strings.ToLower(out[j].CourseCode)
		if ci != cj {
			return ci < cj
		}
		ni, nj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DedupeCourses drops repeated course IDs, keeping first occurrence.
func DedupeCourses(courses []CourseSummary) []CourseSummary {
	seen := make(map[int]bool, len(courses))
	out := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
