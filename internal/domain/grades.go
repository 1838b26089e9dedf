package domain

import (
	"sort"
	"strings"
)

// CourseGrade is the enrollment-level grade summary for one course.
// CurrentScore is nil when Canvas has not computed a score yet.
type CourseGrade struct {
	CourseID     int      `json:"course_id"`
	CourseCode   string   `json:"course_code"`
	CourseName   string   `json:"course_name"`
	CurrentScore *float64 `json:"current_score"`
	CurrentGrade string   `json:"current_grade"`
}

// AssignmentGrade is one graded assignment within a course.
type AssignmentGrade struct {
	AssignmentID   int      `json:"assignment_id"`
	AssignmentName string   `json:"assignment_name"`
	Score          *float64 `json:"score"`
	PointsPossible *float64 `json:"points_possible"`
	Grade          string   `json:"grade"`
	WorkflowState  string   `json:"workflow_state"`
}

func SortGrades(grades []CourseGrade) []CourseGrade {
	out := make([]CourseGrade, len(grades))
	copy(out, grades)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := strings.ToLower(out[i].CourseCode), strings.ToLower(out[j].CourseCode)
		if ci != cj {
			return ci < cj
		}
		ni, nj := strings.ToLower(out[i].CourseName), strings.ToLower(out[j].CourseName)
		if ni != nj {
			return ni < nj
		}
		return out[i].CourseID < out[j].CourseID
	})
	return out
}

func SortAssignmentGrades(grades []AssignmentGrade) []AssignmentGrade {
	out := make([]AssignmentGrade, len(grades))
	copy(out, grades)
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := strings.ToLower(out[i].AssignmentName), strings.ToLower(out[j].AssignmentName)
		if ni != nj {
			return ni < nj
		}
		return out[i].AssignmentID < out[j].AssignmentID
	})
	return out
}
