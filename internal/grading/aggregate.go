// Package grading computes score aggregates and grade reports from submission views.
package grading

import (
	"time"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

// WeightedPercentage returns the weight adjusted percentage over graded submissions.
// Only graded submissions with a score, a weight and a positive max score count. The
// second result is false when nothing counts or the counted weights sum to zero. The
// value is not rounded.
func WeightedPercentage(views []models.SubmissionView) (float64, bool) {
	var weighted, weights float64
	for _, v := range views {
		if !counts(v) {
			continue
		}
		w := *v.Assignment.Weight
		weighted += (*v.Score / v.Assignment.MaxScore) * w
		weights += w
	}
	if weights <= 0 {
		return 0, false
	}
	return weighted / weights * 100, true
}

func counts(v models.SubmissionView) bool {
	return v.Status == models.StatusGraded &&
		v.Score != nil &&
		v.Assignment.Weight != nil &&
		v.Assignment.MaxScore > 0
}

// Counts summarises a submission list by status.
type Counts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Submitted int `json:"submitted"`
	Graded    int `json:"graded"`
	Overdue   int `json:"overdue"`
}

// Tally counts submissions per status. Overdue is evaluated at now.
func Tally(views []models.SubmissionView, now time.Time) Counts {
	c := Counts{Total: len(views)}
	for _, v := range views {
		switch v.Status {
		case models.StatusPending:
			c.Pending++
		case models.StatusSubmitted:
			c.Submitted++
		case models.StatusGraded:
			c.Graded++
		}
		if models.IsOverdue(v.Submission, v.Assignment, now) {
			c.Overdue++
		}
	}
	return c
}
