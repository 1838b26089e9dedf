// Package render writes plain-data tables and JSON to the console.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"canvasctl/internal/domain"
	"canvasctl/internal/manifest"
)

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// CoursesTable renders the course listing.
func CoursesTable(w io.Writer, courses []domain.CourseSummary) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCODE\tNAME\tSTATE\tTERM\tSTART\tEND")
	for _, c := range courses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.CourseCode, c.Name, c.WorkflowState, c.TermName, c.StartAt, c.EndAt)
	}
	return tw.Flush()
}

// GradesSummaryTable renders course-level grades.
func GradesSummaryTable(w io.Writer, grades []domain.CourseGrade) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCODE\tNAME\tGRADE\tSCORE")
	for _, g := range grades {
		score := "N/A"
		if g.CurrentScore != nil {
			score = fmt.Sprintf("%.1f", *g.CurrentScore)
		}
		letter := g.CurrentGrade
		if letter == "" {
			letter = "N/A"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", g.CourseID, g.CourseCode, g.CourseName, letter, score)
	}
	return tw.Flush()
}

// DetailedGradesTable renders per-assignment grades for one course.
func DetailedGradesTable(w io.Writer, course domain.CourseGrade, assignments []domain.AssignmentGrade) error {
	fmt.Fprintf(w, "Grades: %s - %s\n", course.CourseCode, course.CourseName)
	tw := newTable(w)
	fmt.Fprintln(tw, "ASSIGNMENT\tSCORE\tPOSSIBLE\tGRADE\tSTATUS")
	for _, a := range assignments {
		score, possible := "-", "-"
		if a.Score != nil {
			score = fmt.Sprintf("%g", *a.Score)
		}
		if a.PointsPossible != nil {
			possible = fmt.Sprintf("%g", *a.PointsPossible)
		}
		grade := a.Grade
		if grade == "" {
			grade = "-"
		}
		state := a.WorkflowState
		if state == "" {
			state = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.AssignmentName, score, possible, grade, state)
	}

	overallScore := "N/A"
	if course.CurrentScore != nil {
		overallScore = fmt.Sprintf("%.1f%%", *course.CurrentScore)
	}
	overallGrade := course.CurrentGrade
	if overallGrade == "" {
		overallGrade = "N/A"
	}
	fmt.Fprintf(tw, "OVERALL\t%s\t\t%s\t\n", overallScore, overallGrade)
	return tw.Flush()
}

// DownloadSummaryRow is one course's line of the download summary.
type DownloadSummaryRow struct {
	Course       string
	Counts       manifest.Counts
	Unresolved   int
	ManifestPath string
}

// DownloadSummaryTable renders per-course download outcomes.
func DownloadSummaryTable(w io.Writer, rows []DownloadSummaryRow) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "COURSE\tDOWNLOADED\tSKIPPED\tFAILED\tUNRESOLVED\tMANIFEST")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
			row.Course, row.Counts.Downloaded, row.Counts.Skipped, row.Counts.Failed, row.Unresolved, row.ManifestPath)
	}
	return tw.Flush()
}
