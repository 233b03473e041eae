package service

import (
	"time"

	"github.com/noah-isme/sma-gradebook/internal/dto"
	"github.com/noah-isme/sma-gradebook/internal/grading"
	"github.com/noah-isme/sma-gradebook/internal/models"
)

// fileLinker turns a stored file answer into a download link.
type fileLinker interface {
	DownloadURL(name string) (string, bool)
}

func buildGradebook(studentID int64, views []models.SubmissionView, now time.Time, linker fileLinker) *dto.Gradebook {
	book := &dto.Gradebook{
		StudentID:   studentID,
		Items:       make([]dto.GradebookItem, 0, len(views)),
		Counts:      grading.Tally(views, now),
		GeneratedAt: now.UTC(),
	}
	if pct, ok := grading.WeightedPercentage(views); ok {
		book.WeightedPercentage = &pct
	}

	for _, v := range views {
		item := dto.GradebookItem{
			SubmissionView: v,
			Overdue:        models.IsOverdue(v.Submission, v.Assignment, now),
		}
		if v.Answer != nil {
			item.AnswerDisplay = models.DisplayAnswer(v.Assignment, v.Answer)
		}
		if v.Status == models.StatusGraded && v.Score != nil && v.Assignment.Weight != nil && v.Assignment.MaxScore > 0 {
			points := *v.Score / v.Assignment.MaxScore * *v.Assignment.Weight
			item.WeightedPoints = &points
		}
		if file, ok := v.Answer.(models.FileAnswer); ok && linker != nil {
			if url, ok := linker.DownloadURL(file.Name); ok {
				item.DownloadURL = url
			}
		}
		book.Items = append(book.Items, item)
	}
	return book
}

func findByAssignment(views []models.SubmissionView, assignmentID int64) (models.SubmissionView, bool) {
	for _, v := range views {
		if v.AssignmentID == assignmentID {
			return v, true
		}
	}
	return models.SubmissionView{}, false
}

func findBySubmission(views []models.SubmissionView, submissionID int64) (models.SubmissionView, bool) {
	for _, v := range views {
		if v.ID == submissionID {
			return v, true
		}
	}
	return models.SubmissionView{}, false
}
