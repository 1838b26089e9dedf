package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"canvasctl/internal/auth"
	"canvasctl/internal/canvas"
	"canvasctl/internal/config"
	"canvasctl/internal/domain"
)

// errHadFailures taints the run exit code when any download failed.
var errHadFailures = errors.New("one or more downloads failed")

func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// runWithClient resolves a token, runs action, and handles the 401
// policy: env-sourced tokens fail immediately, prompt-sourced tokens
// get exactly one re-prompt per session.
func runWithClient(ctx context.Context, baseURL string, action func(ctx context.Context, client *canvas.Client) error) error {
	tokenInfo, err := auth.Resolve(os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	reprompted := false
	for {
		client := canvas.NewClient(baseURL, tokenInfo.Token, canvas.DefaultOptions())
		err := action(ctx, client)
		if !errors.Is(err, canvas.ErrUnauthorized) {
			return err
		}

		if tokenInfo.Source == auth.SourceEnv {
			return fmt.Errorf("canvas rejected %s (401): update the token and retry", auth.TokenEnvVar)
		}
		if reprompted {
			return err
		}

		fmt.Fprintln(os.Stderr, "Token rejected.")
		tokenInfo, err = auth.Prompt(os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
		reprompted = true
	}
}

// resolveCoursesFromSelectors matches each selector against course id
// or course code. Ambiguous codes are an error; repeated matches are
// deduplicated preserving selector order.
func resolveCoursesFromSelectors(courses []domain.CourseSummary, selectors []string) ([]domain.CourseSummary, error) {
	byID := make(map[string]domain.CourseSummary, len(courses))
	byCode := make(map[string][]domain.CourseSummary)
	for _, course := range courses {
		byID[fmt.Sprintf("%d", course.ID)] = course
		code := strings.ToLower(strings.TrimSpace(course.CourseCode))
		if code != "" {
			byCode[code] = append(byCode[code], course)
		}
	}

	var selected []domain.CourseSummary
	seen := make(map[int]bool)

	for _, selector := range selectors {
		trimmed := strings.TrimSpace(selector)

		course, ok := byID[trimmed]
		if !ok {
			matches := byCode[strings.ToLower(trimmed)]
			if len(matches) == 0 {
				return nil, fmt.Errorf("course selector %q did not match any course id/course_code", selector)
			}
			if len(matches) > 1 {
				ids := make([]string, len(matches))
				for i, m := range matches {
					ids[i] = fmt.Sprintf("%d", m.ID)
				}
				return nil, fmt.Errorf("course code %q is ambiguous across ids: %s; use explicit id(s)",
					selector, strings.Join(ids, ", "))
			}
			course = matches[0]
		}

		if !seen[course.ID] {
			seen[course.ID] = true
			selected = append(selected, course)
		}
	}

	return selected, nil
}

// parseBoolText accepts the usual spellings of a boolean flag value.
func parseBoolText(value, optionName string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y", "on":
		return true, nil
	case "false", "0", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("%s must be one of: true/false, 1/0, yes/no, on/off; received %q", optionName, value)
}
