package models

import (
	"fmt"
	"math"
	"time"

	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// SubmissionStatus is the lifecycle state of a submission.
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusSubmitted SubmissionStatus = "submitted"
	StatusGraded    SubmissionStatus = "graded"
)

// Valid reports whether s is a known status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSubmitted, StatusGraded:
		return true
	}
	return false
}

// CanTransition reports whether a submission may move from one status to another.
// Status only moves forward, and graded may be graded again.
func CanTransition(from, to SubmissionStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusSubmitted
	case StatusSubmitted, StatusGraded:
		return to == StatusGraded
	}
	return false
}

// Submission is one student's slot for one assignment. It exists as pending from the
// moment the assignment is created and is never deleted.
type Submission struct {
	ID           int64            `json:"id"`
	AssignmentID int64            `json:"assignment_id"`
	StudentID    int64            `json:"student_id"`
	Status       SubmissionStatus `json:"status"`
	Answer       Answer           `json:"answer,omitempty"`
	Score        *float64         `json:"score"`
	TeacherNote  *string          `json:"teacher_note,omitempty"`
	StudentNote  *string          `json:"student_note,omitempty"`
	SubmittedAt  *time.Time       `json:"submitted_at,omitempty"`
}

// SubmissionView pairs a submission with its assignment.
type SubmissionView struct {
	Submission
	Assignment Assignment `json:"assignment"`
	// Synthesized marks rows served from fallback data. Their student_id is the fixture's
	// and says nothing about who is asking.
	Synthesized bool `json:"-"`
}

// Submit records the student's answer. It is only allowed while pending.
func (s *Submission) Submit(a Assignment, ans Answer, now time.Time) error {
	if !CanTransition(s.Status, StatusSubmitted) {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot submit a %s submission", s.Status))
	}
	if a.ID != s.AssignmentID {
		return appErrors.Clone(appErrors.ErrValidation, "assignment does not belong to submission")
	}
	if err := ValidateAnswer(a, ans); err != nil {
		return err
	}
	submittedAt := now.UTC()
	s.Status = StatusSubmitted
	s.Answer = ans
	s.SubmittedAt = &submittedAt
	return nil
}

// Grade sets the score and teacher note, overwriting earlier values.
func (s *Submission) Grade(a Assignment, score float64, note *string) error {
	if !CanTransition(s.Status, StatusGraded) {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot grade a %s submission", s.Status))
	}
	if err := ValidateScore(a, score); err != nil {
		return err
	}
	s.Status = StatusGraded
	s.Score = &score
	s.TeacherNote = note
	return nil
}

// ValidateScore checks 0 <= score <= max score.
func ValidateScore(a Assignment, score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return appErrors.Clone(appErrors.ErrValidation, "score must be a finite number")
	}
	if score < 0 || score > a.MaxScore {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("score %g out of range [0,%g]", score, a.MaxScore))
	}
	return nil
}

// IsOverdue reports a pending submission past its due date.
func IsOverdue(s Submission, a Assignment, now time.Time) bool {
	return s.Status == StatusPending && !a.DueDate.IsZero() && a.DueDate.Before(now)
}
