package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"canvasctl/internal/canvas"
	"canvasctl/internal/config"
	"canvasctl/internal/domain"
	"canvasctl/internal/downloader"
	"canvasctl/internal/manifest"
	"canvasctl/internal/progress"
	"canvasctl/internal/render"
	"canvasctl/internal/sources"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download course files",
}

var downloadRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Download files for selected courses",
	RunE: func(cmd *cobra.Command, args []string) error {
		selectors, _ := cmd.Flags().GetStringArray("course")
		sourceTypes, _ := cmd.Flags().GetStringArray("source")
		destFlag, _ := cmd.Flags().GetString("dest")
		exportDest, _ := cmd.Flags().GetBool("export-dest")
		force, _ := cmd.Flags().GetBool("force")
		overwrite, _ := cmd.Flags().GetString("overwrite")
		concurrencyFlag, _ := cmd.Flags().GetInt("concurrency")
		baseURLFlag, _ := cmd.Flags().GetString("base-url")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		baseURL, err := cfg.ResolveBaseURL(baseURLFlag)
		if err != nil {
			return err
		}

		destRoot := cfg.DestinationPath()
		if destFlag != "" {
			if destRoot, err = config.NormalizeDestination(destFlag); err != nil {
				return err
			}
		}
		if exportDest {
			if destFlag == "" {
				return fmt.Errorf("--export-dest requires --dest <path>")
			}
			cfg.DefaultDest = destRoot
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Saved default download path: %s\n", destRoot)
		}

		resolvedForce, err := resolveOverwrite(overwrite, force)
		if err != nil {
			return err
		}
		concurrency := cfg.ResolveConcurrency(concurrencyFlag)

		normalizedSources, err := sources.Normalize(sourceTypes)
		if err != nil {
			return err
		}

		return runWithClient(cmd.Context(), baseURL, func(ctx context.Context, client *canvas.Client) error {
			allCourses, err := client.ListCourses(ctx, true)
			if err != nil {
				return err
			}
			allCourses = domain.SortCourses(domain.DedupeCourses(allCourses))
			selected, err := resolveCoursesFromSelectors(allCourses, selectors)
			if err != nil {
				return err
			}

			return downloadForCourses(ctx, client, log, downloadParams{
				courses:     selected,
				sourceTypes: normalizedSources,
				destRoot:    destRoot,
				force:       resolvedForce,
				concurrency: concurrency,
				baseURL:     baseURL,
			})
		})
	},
}

var downloadResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume failed/pending downloads from a manifest file",
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath, _ := cmd.Flags().GetString("manifest")

		store := manifest.NewStore(afero.NewOsFs())
		payload, err := store.Load(manifestPath)
		if err != nil {
			return err
		}
		if payload.BaseURL == "" {
			return fmt.Errorf("manifest does not include a valid base_url")
		}

		tasks := manifest.ResumeTasks(payload)
		if len(tasks) == 0 {
			fmt.Fprintln(os.Stdout, "No failed/pending items found in manifest.")
			return nil
		}

		destRoot := manifest.DestRootForManifestPath(manifestPath)

		return runWithClient(cmd.Context(), payload.BaseURL, func(ctx context.Context, client *canvas.Client) error {
			reporter := progress.NewReporter(os.Stdout, "Downloading files")
			results := downloader.Run(ctx, client, tasks, nil, downloader.Options{
				Force:       true,
				Concurrency: config.DefaultConcurrency,
				Progress:    reporter.Update,
			})
			reporter.Finish()

			counts := manifest.Summarize(results)
			rows := []render.DownloadSummaryRow{{Course: "resume", Counts: counts}}
			if err := render.DownloadSummaryTable(os.Stdout, rows); err != nil {
				return err
			}

			items := make([]manifest.Item, 0, len(results))
			for _, result := range results {
				items = append(items, manifest.FromResult(result))
			}
			now := isoNow()
			runPath, err := store.WriteRunSummary(destRoot, manifest.Payload{
				BaseURL:     payload.BaseURL,
				CompletedAt: now,
				Courses:     []manifest.CourseAggregate{},
				Items:       items,
				RunID:       ksuid.New().String(),
				Sources:     []string{"resume"},
				StartedAt:   now,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Resume summary: %s\n", runPath)

			if counts.Failed > 0 {
				return errHadFailures
			}
			return nil
		})
	},
}

type downloadParams struct {
	courses     []domain.CourseSummary
	sourceTypes []string
	destRoot    string
	force       bool
	concurrency int
	baseURL     string
}

// downloadForCourses runs the discovery/plan/download/manifest
// pipeline sequentially per course and writes the run summary at the
// end. Returns errHadFailures when any task failed.
func downloadForCourses(ctx context.Context, client *canvas.Client, log *slog.Logger, params downloadParams) error {
	store := manifest.NewStore(afero.NewOsFs())
	runID := ksuid.New().String()
	startedAt := isoNow()

	var (
		rows        []render.DownloadSummaryRow
		runItems    []manifest.Item
		runCourses  []manifest.CourseAggregate
		hadFailures bool
	)

	for _, course := range params.courses {
		remoteFiles, warnings, err := sources.Collect(ctx, client, course.ID, params.sourceTypes)
		if err != nil {
			return err
		}
		if len(remoteFiles) == 0 && len(warnings) == 0 {
			log.Warn("no files found for course", "course_id", course.ID, "course_name", course.Name)
		}

		courseSlug := downloader.BuildCourseSlug(course)
		previousPayload, err := store.Load(manifest.CoursePath(params.destRoot, courseSlug))
		if err != nil {
			log.Warn("could not read previous manifest", "course_slug", courseSlug, "error", err)
			previousPayload = manifest.Payload{}
		}
		previous := manifest.IndexByFileID(previousPayload)

		tasks := downloader.PlanCourseTasks(course, remoteFiles, params.destRoot)

		reporter := progress.NewReporter(os.Stdout, fmt.Sprintf("Downloading %s", courseSlug))
		results := downloader.Run(ctx, client, tasks, previous, downloader.Options{
			Force:       params.force,
			Concurrency: params.concurrency,
			Progress:    reporter.Update,
		})
		reporter.Finish()

		items := make([]manifest.Item, 0, len(results)+len(warnings))
		for _, result := range results {
			items = append(items, manifest.FromResult(result))
		}
		for _, warning := range warnings {
			items = append(items, manifest.FromWarning(warning, course.ID))
		}

		manifestPath, err := store.WriteCourse(params.destRoot, courseSlug, manifest.Payload{
			BaseURL:     params.baseURL,
			CompletedAt: isoNow(),
			CourseID:    course.ID,
			Items:       items,
			RunID:       runID,
			Sources:     params.sourceTypes,
			StartedAt:   startedAt,
		})
		if err != nil {
			return err
		}

		counts := manifest.Summarize(results)
		if counts.Failed > 0 {
			hadFailures = true
		}

		courseLabel := course.CourseCode
		if courseLabel == "" {
			courseLabel = fmt.Sprintf("%d", course.ID)
		}
		rows = append(rows, render.DownloadSummaryRow{
			Course:       fmt.Sprintf("%s (%d)", courseLabel, course.ID),
			Counts:       counts,
			Unresolved:   len(warnings),
			ManifestPath: manifestPath,
		})
		runCourses = append(runCourses, manifest.CourseAggregate{
			Counts:       counts,
			CourseCode:   course.CourseCode,
			CourseID:     course.ID,
			CourseName:   course.Name,
			ManifestPath: manifestPath,
			Unresolved:   len(warnings),
		})
		runItems = append(runItems, items...)
	}

	if err := render.DownloadSummaryTable(os.Stdout, rows); err != nil {
		return err
	}

	runPath, err := store.WriteRunSummary(params.destRoot, manifest.Payload{
		BaseURL:     params.baseURL,
		CompletedAt: isoNow(),
		Courses:     runCourses,
		Items:       runItems,
		RunID:       runID,
		Sources:     params.sourceTypes,
		StartedAt:   startedAt,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Run summary: %s\n", runPath)

	if hadFailures {
		return errHadFailures
	}
	return nil
}

// resolveOverwrite merges the textual --overwrite flag with --force.
func resolveOverwrite(overwrite string, force bool) (bool, error) {
	if overwrite == "" {
		return force, nil
	}
	parsed, err := parseBoolText(overwrite, "--overwrite")
	if err != nil {
		return false, err
	}
	if force && !parsed {
		return false, fmt.Errorf("conflicting options: --force and --overwrite=false cannot be used together")
	}
	return parsed || force, nil
}

func init() {
	downloadRunCmd.Flags().StringArrayP("course", "c", nil, "Course ID or course code; repeatable (required)")
	downloadRunCmd.Flags().StringArrayP("source", "s", nil, "Source type(s): files, assignments, discussions, pages, modules; defaults to all")
	downloadRunCmd.Flags().String("dest", "", "Destination root directory")
	downloadRunCmd.Flags().Bool("export-dest", false, "Persist --dest as the default download path")
	downloadRunCmd.Flags().Bool("force", false, "Overwrite existing files")
	downloadRunCmd.Flags().String("overwrite", "", "Overwrite existing files (true/false)")
	downloadRunCmd.Flags().Int("concurrency", 0, "Parallel download workers (default from config)")
	downloadRunCmd.Flags().String("base-url", "", "Canvas instance URL override")
	downloadRunCmd.MarkFlagRequired("course")

	downloadResumeCmd.Flags().String("manifest", "", "Path to a prior run summary or course manifest JSON")
	downloadResumeCmd.MarkFlagRequired("manifest")

	downloadCmd.AddCommand(downloadRunCmd)
	downloadCmd.AddCommand(downloadResumeCmd)
}
