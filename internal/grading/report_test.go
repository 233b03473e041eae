package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

func TestReportDataset(t *testing.T) {
	note := "Good work"
	quiz := graded(8, 10, 20)
	quiz.Assignment.Title = "Quiz 1"
	quiz.Assignment.DueDate = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	quiz.TeacherNote = &note
	homework := models.SubmissionView{
		Submission: models.Submission{Status: models.StatusPending},
		Assignment: models.Assignment{Title: "Homework 1", MaxScore: 10, Weight: f(10)},
	}

	ds := ReportDataset([]models.SubmissionView{quiz, homework})

	require.Equal(t, ReportHeaders, ds.Headers)
	require.Len(t, ds.Rows, 2)
	require.Equal(t, "01/09/2024", ds.Rows[0][ColDueDate])
	require.Equal(t, "8", ds.Rows[0][ColScore])
	require.Equal(t, "Good work", ds.Rows[0][ColTeacherNote])
	require.Equal(t, "-", ds.Rows[1][ColScore])
	require.Equal(t, "Pending", ds.Rows[1][ColStatus])
	require.Equal(t, []string{"Total Score: 8.0 / 10.0", "Weighted Score: 80.0%"}, ds.Footer)
}

func TestReportTitle(t *testing.T) {
	year := 3
	require.Equal(t, "Student Grade Report: mock_student (Year 3)", ReportTitle(models.User{Username: "mock_student", Year: &year}))
	require.Equal(t, "Student Grade Report: teacher (Year -)", ReportTitle(models.User{Username: "teacher"}))
}
