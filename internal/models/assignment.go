package models

import "time"

// SubmissionType selects the answer shape an assignment accepts.
type SubmissionType string

const (
	SubmissionText           SubmissionType = "text"
	SubmissionMultipleChoice SubmissionType = "multiple_choice"
	SubmissionFile           SubmissionType = "file"
)

// Valid reports whether t is a known submission type.
func (t SubmissionType) Valid() bool {
	switch t {
	case SubmissionText, SubmissionMultipleChoice, SubmissionFile:
		return true
	}
	return false
}

// Label is the human readable name of t.
func (t SubmissionType) Label() string {
	switch t {
	case SubmissionText:
		return "Text"
	case SubmissionMultipleChoice:
		return "Multiple choice"
	case SubmissionFile:
		return "File upload"
	}
	return string(t)
}

// DefaultMaxScore applies when neither the assignment nor the submission carries one.
const DefaultMaxScore = 100.0

// Assignment is created by a teacher and never mutated by students. Choices is
// only populated for multiple choice assignments.
type Assignment struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Description    *string        `json:"description,omitempty"`
	DueDate        time.Time      `json:"due_date"`
	SubmissionType SubmissionType `json:"submission_type"`
	Question       *string        `json:"question,omitempty"`
	Choices        []string       `json:"choices,omitempty"`
	Weight         *float64       `json:"weight,omitempty"`
	MaxScore       float64        `json:"max_score"`
}
