package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"canvasctl/internal/canvas"
	"canvasctl/internal/config"
	"canvasctl/internal/domain"
	"canvasctl/internal/render"
)

var gradesCmd = &cobra.Command{
	Use:   "grades",
	Short: "View course grades",
}

var gradesSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show grade summary for enrolled courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		allCourses, _ := cmd.Flags().GetBool("all")
		detailed, _ := cmd.Flags().GetBool("detailed")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		selectors, _ := cmd.Flags().GetStringArray("course")
		baseURLFlag, _ := cmd.Flags().GetString("base-url")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		baseURL, err := cfg.ResolveBaseURL(baseURLFlag)
		if err != nil {
			return err
		}

		return runWithClient(cmd.Context(), baseURL, func(ctx context.Context, client *canvas.Client) error {
			grades, err := client.ListCourseGrades(ctx, allCourses)
			if err != nil {
				return err
			}
			grades = domain.SortGrades(grades)

			if len(selectors) > 0 {
				summaries := make([]domain.CourseSummary, len(grades))
				for i, g := range grades {
					summaries[i] = domain.CourseSummary{ID: g.CourseID, CourseCode: g.CourseCode, Name: g.CourseName}
				}
				selected, err := resolveCoursesFromSelectors(summaries, selectors)
				if err != nil {
					return err
				}
				selectedIDs := make(map[int]bool, len(selected))
				for _, c := range selected {
					selectedIDs[c.ID] = true
				}
				filtered := grades[:0]
				for _, g := range grades {
					if selectedIDs[g.CourseID] {
						filtered = append(filtered, g)
					}
				}
				grades = filtered
			}

			if !detailed {
				if jsonOutput {
					return render.PrintJSON(os.Stdout, grades)
				}
				return render.GradesSummaryTable(os.Stdout, grades)
			}

			type detailedGrades struct {
				Course      domain.CourseGrade       `json:"course"`
				Assignments []domain.AssignmentGrade `json:"assignments"`
			}
			var payload []detailedGrades
			for _, courseGrade := range grades {
				assignments, err := client.ListAssignmentGrades(ctx, courseGrade.CourseID)
				if err != nil {
					return err
				}
				assignments = domain.SortAssignmentGrades(assignments)
				if jsonOutput {
					payload = append(payload, detailedGrades{Course: courseGrade, Assignments: assignments})
					continue
				}
				if err := render.DetailedGradesTable(os.Stdout, courseGrade, assignments); err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout)
			}
			if jsonOutput {
				return render.PrintJSON(os.Stdout, payload)
			}
			return nil
		})
	},
}

func init() {
	gradesSummaryCmd.Flags().Bool("all", false, "Include non-active courses")
	gradesSummaryCmd.Flags().Bool("detailed", false, "Show per-assignment grade breakdown")
	gradesSummaryCmd.Flags().Bool("json", false, "Emit JSON output")
	gradesSummaryCmd.Flags().StringArrayP("course", "c", nil, "Course ID or course code; repeatable")
	gradesSummaryCmd.Flags().String("base-url", "", "Canvas instance URL override")
	gradesCmd.AddCommand(gradesSummaryCmd)
}
