package canvas

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"canvasctl/internal/domain"
)

func listParams() url.Values {
	params := url.Values{}
	params.Set("per_page", "100")
	return params
}

// ListCourses returns the caller's courses. When includeAll is false
// only active enrollments are listed.
func (c *Client) ListCourses(ctx context.Context, includeAll bool) ([]domain.CourseSummary, error) {
	params := listParams()
	params.Add("include[]", "term")
	params.Add("include[]", "total_students")
	if !includeAll {
		params.Set("enrollment_state", "active")
	}

	raw, err := c.GetPaginated(ctx, "/courses", params)
	if err != nil {
		return nil, err
	}

	courses := make([]domain.CourseSummary, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, ok := IntOf(m["id"])
		if !ok {
			continue
		}
		term, _ := m["term"].(map[string]any)
		courses = append(courses, domain.CourseSummary{
			ID:            id,
			CourseCode:    StringOf(m["course_code"]),
			Name:          StringOf(m["name"]),
			WorkflowState: StringOf(m["workflow_state"]),
			TermName:      StringOf(term["name"]),
			StartAt:       StringOf(m["start_at"]),
			EndAt:         StringOf(m["end_at"]),
		})
	}
	return courses, nil
}

// ListCourseFiles returns the raw file payloads of the course's
// native file listing.
func (c *Client) ListCourseFiles(ctx context.Context, courseID int) ([]any, error) {
	return c.GetPaginated(ctx, fmt.Sprintf("/courses/%d/files", courseID), listParams())
}

// ListCourseFolders maps folder id to its slash-trimmed full path.
func (c *Client) ListCourseFolders(ctx context.Context, courseID int) (map[int]string, error) {
	raw, err := c.GetPaginated(ctx, fmt.Sprintf("/courses/%d/folders", courseID), listParams())
	if err != nil {
		return nil, err
	}

	folders := make(map[int]string, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, ok := IntOf(m["id"])
		if !ok {
			continue
		}
		fullName := StringOf(m["full_name"])
		if fullName == "" {
			fullName = StringOf(m["name"])
		}
		folders[id] = strings.Trim(fullName, "/")
	}
	return folders, nil
}

func (c *Client) ListAssignments(ctx context.Context, courseID int) ([]any, error) {
	return c.GetPaginated(ctx, fmt.Sprintf("/courses/%d/assignments", courseID), listParams())
}

func (c *Client) ListDiscussions(ctx context.Context, courseID int) ([]any, error) {
	return c.GetPaginated(ctx, fmt.Sprintf("/courses/%d/discussion_topics", courseID), listParams())
}

// ListPages lists the course's wiki pages and fetches each page's
// detail payload, which is where the body (and its embedded file
// links) lives.
func (c *Client) ListPages(ctx context.Context, courseID int) ([]any, error) {
	raw, err := c.GetPaginated(ctx, fmt.Sprintf("/courses/%d/pages", courseID), listParams())
	if err != nil {
		return nil, err
	}

	detailed := make([]any, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		pageURL := StringOf(m["url"])
		if pageURL == "" {
			continue
		}
		detail, err := c.GetJSON(ctx, fmt.Sprintf("/courses/%d/pages/%s", courseID, pageURL), nil)
		if err != nil {
			return nil, err
		}
		detailed = append(detailed, detail)
	}
	return detailed, nil
}

func (c *Client) ListModules(ctx context.Context, courseID int) ([]any, error) {
	params := listParams()
	params.Add("include[]", "items")
	return c.GetPaginated(ctx, fmt.Sprintf("/courses/%d/modules", courseID), params)
}

// ListSourceItems dispatches to the listing endpoint for a non-files
// source type.
func (c *Client) ListSourceItems(ctx context.Context, courseID int, sourceType string) ([]any, error) {
	switch sourceType {
	case domain.SourceAssignments:
		return c.ListAssignments(ctx, courseID)
	case domain.SourceDiscussions:
		return c.ListDiscussions(ctx, courseID)
	case domain.SourcePages:
		return c.ListPages(ctx, courseID)
	case domain.SourceModules:
		return c.ListModules(ctx, courseID)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}

// GetFile fetches the full metadata payload for a single file id.
func (c *Client) GetFile(ctx context.Context, fileID int) (map[string]any, error) {
	payload, err := c.GetJSON(ctx, fmt.Sprintf("/files/%d", fileID), nil)
	if err != nil {
		return nil, err
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, &APIError{Target: fmt.Sprintf("/files/%d", fileID), Snippet: "unexpected file payload"}
	}
	return m, nil
}
