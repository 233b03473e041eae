package dto

import (
	"time"

	"github.com/noah-isme/sma-gradebook/internal/grading"
	"github.com/noah-isme/sma-gradebook/internal/models"
)

// GradebookItem is one submission as shown on a dashboard.
type GradebookItem struct {
	models.SubmissionView
	Overdue       bool   `json:"overdue"`
	AnswerDisplay string `json:"answer_display,omitempty"`
	// WeightedPoints is score/max*weight for graded items.
	WeightedPoints *float64 `json:"weighted_points,omitempty"`
	// DownloadURL links file answers stored by this gateway.
	DownloadURL string `json:"download_url,omitempty"`
}

// Gradebook is a student's submission list with aggregates.
type Gradebook struct {
	StudentID          int64           `json:"student_id"`
	Items              []GradebookItem `json:"items"`
	WeightedPercentage *float64        `json:"weighted_percentage"`
	Counts             grading.Counts  `json:"counts"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// MutationResult reports a write and the state fetched after it.
type MutationResult struct {
	Message string `json:"message"`
	// Degraded is set when the write was acknowledged without reaching the grade service.
	Degraded    bool                `json:"degraded"`
	Gradebook   *Gradebook          `json:"gradebook,omitempty"`
	Assignments []models.Assignment `json:"assignments,omitempty"`
}
