package canvas

import (
	"context"
	"fmt"

	"canvasctl/internal/domain"
)

// ListCourseGrades returns enrollment-level grade summaries. Scores
// come from the student enrollment embedded in the course payload.
func (c *Client) ListCourseGrades(ctx context.Context, includeAll bool) ([]domain.CourseGrade, error) {
	params := listParams()
	params.Add("include[]", "total_scores")
	if !includeAll {
		params.Set("enrollment_state", "active")
	}

	raw, err := c.GetPaginated(ctx, "/courses", params)
	if err != nil {
		return nil, err
	}

	grades := make([]domain.CourseGrade, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, ok := IntOf(m["id"])
		if !ok {
			continue
		}

		grade := domain.CourseGrade{
			CourseID:   id,
			CourseCode: StringOf(m["course_code"]),
			CourseName: StringOf(m["name"]),
		}
		if enrollments, ok := m["enrollments"].([]any); ok {
			for _, raw := range enrollments {
				e, ok := raw.(map[string]any)
				if !ok || StringOf(e["type"]) != "student" {
					continue
				}
				if score, ok := FloatOf(e["computed_current_score"]); ok {
					grade.CurrentScore = &score
				}
				grade.CurrentGrade = StringOf(e["computed_current_grade"])
				break
			}
		}
		grades = append(grades, grade)
	}
	return grades, nil
}

// ListAssignmentGrades returns the caller's submission scores for
// every assignment in the course.
func (c *Client) ListAssignmentGrades(ctx context.Context, courseID int) ([]domain.AssignmentGrade, error) {
	params := listParams()
	params.Add("include[]", "submission")

	raw, err := c.GetPaginated(ctx, fmt.Sprintf("/courses/%d/assignments", courseID), params)
	if err != nil {
		return nil, err
	}

	grades := make([]domain.AssignmentGrade, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, ok := IntOf(m["id"])
		if !ok {
			continue
		}

		grade := domain.AssignmentGrade{
			AssignmentID:   id,
			AssignmentName: StringOf(m["name"]),
		}
		if possible, ok := FloatOf(m["points_possible"]); ok {
			grade.PointsPossible = &possible
		}
		if submission, ok := m["submission"].(map[string]any); ok {
			if score, ok := FloatOf(submission["score"]); ok {
				grade.Score = &score
			}
			grade.Grade = StringOf(submission["grade"])
			grade.WorkflowState = StringOf(submission["workflow_state"])
		}
		grades = append(grades, grade)
	}
	return grades, nil
}
