package grading

import (
	"fmt"
	"strconv"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/pkg/export"
)

// Report column headers, in print order.
const (
	ColNumber      = "#"
	ColAssignment  = "Assignment"
	ColDueDate     = "Due Date"
	ColStatus      = "Status"
	ColScore       = "Score"
	ColMaxScore    = "Max Score"
	ColTeacherNote = "Teacher Note"
)

// ReportHeaders lists the grade report columns.
var ReportHeaders = []string{ColNumber, ColAssignment, ColDueDate, ColStatus, ColScore, ColMaxScore, ColTeacherNote}

// ReportColumnWidths sizes the PDF columns in millimetres.
var ReportColumnWidths = map[string]float64{
	ColNumber:      10,
	ColAssignment:  50,
	ColDueDate:     25,
	ColStatus:      22,
	ColScore:       15,
	ColMaxScore:    20,
	ColTeacherNote: 48,
}

var statusLabels = map[models.SubmissionStatus]string{
	models.StatusPending:   "Pending",
	models.StatusSubmitted: "Submitted",
	models.StatusGraded:    "Graded",
}

// ReportTitle is the heading printed on grade reports.
func ReportTitle(student models.User) string {
	year := "-"
	if student.Year != nil {
		year = strconv.Itoa(*student.Year)
	}
	return fmt.Sprintf("Student Grade Report: %s (Year %s)", student.Username, year)
}

// ReportDataset renders one student's submissions as a table with total and weighted lines.
func ReportDataset(views []models.SubmissionView) export.Dataset {
	rows := make([]map[string]string, 0, len(views))
	var total, maxTotal float64
	graded := 0
	for i, v := range views {
		score := "-"
		if v.Score != nil {
			score = formatScore(*v.Score)
			total += *v.Score
			maxTotal += v.Assignment.MaxScore
			graded++
		}
		due := "-"
		if !v.Assignment.DueDate.IsZero() {
			due = v.Assignment.DueDate.Format("02/01/2006")
		}
		note := "-"
		if v.TeacherNote != nil && *v.TeacherNote != "" {
			note = *v.TeacherNote
		}
		status, ok := statusLabels[v.Status]
		if !ok {
			status = string(v.Status)
		}
		rows = append(rows, map[string]string{
			ColNumber:      strconv.Itoa(i + 1),
			ColAssignment:  v.Assignment.Title,
			ColDueDate:     due,
			ColStatus:      status,
			ColScore:       score,
			ColMaxScore:    formatScore(v.Assignment.MaxScore),
			ColTeacherNote: note,
		})
	}

	ds := export.Dataset{Headers: ReportHeaders, Rows: rows}
	if graded > 0 {
		ds.Footer = append(ds.Footer, fmt.Sprintf("Total Score: %.1f / %.1f", total, maxTotal))
	}
	if pct, ok := WeightedPercentage(views); ok {
		ds.Footer = append(ds.Footer, fmt.Sprintf("Weighted Score: %.1f%%", pct))
	}
	return ds
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
