package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"canvasctl/internal/canvas"
	"canvasctl/internal/config"
	"canvasctl/internal/domain"
	"canvasctl/internal/render"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List and inspect courses",
}

var coursesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List courses from Canvas",
	RunE: func(cmd *cobra.Command, args []string) error {
		allCourses, _ := cmd.Flags().GetBool("all")
		jsonOutput, _ := cmd.Flags().GetBool("json")
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
			courses, err := client.ListCourses(ctx, allCourses)
			if err != nil {
				return err
			}
			courses = domain.SortCourses(domain.DedupeCourses(courses))
			if jsonOutput {
				return render.PrintJSON(os.Stdout, courses)
			}
			return render.CoursesTable(os.Stdout, courses)
		})
	},
}

func init() {
	coursesListCmd.Flags().Bool("all", false, "Include non-active courses")
	coursesListCmd.Flags().Bool("json", false, "Emit JSON output")
	coursesListCmd.Flags().String("base-url", "", "Canvas instance URL override")
	coursesCmd.AddCommand(coursesListCmd)
}
