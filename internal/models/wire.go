package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// AssignmentRecord is an assignment as encoded by the grade service. Choices arrive
// either as a JSON array or as a string holding one.
type AssignmentRecord struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Description    *string         `json:"description"`
	DueDate        Timestamp       `json:"due_date"`
	SubmissionType string          `json:"submission_type"`
	Question       *string         `json:"question"`
	Choices        json.RawMessage `json:"choices"`
	Weight         *float64        `json:"weight"`
	MaxScore       *float64        `json:"max_score"`
}

// SubmissionRecord is a submission with its embedded assignment as encoded by the grade service.
type SubmissionRecord struct {
	ID             int64             `json:"id"`
	AssignmentID   int64             `json:"assignment_id"`
	StudentID      int64             `json:"student_id"`
	Status         string            `json:"status"`
	SubmittedAt    Timestamp         `json:"submitted_at"`
	Score          *float64          `json:"score"`
	MaxScore       *float64          `json:"max_score"`
	TeacherNote    *string           `json:"teacher_note"`
	StudentNote    *string           `json:"student_note"`
	AnswerText     *string           `json:"answer_text"`
	SelectedChoice *int              `json:"selected_choice"`
	FileName       *string           `json:"file_name"`
	Assignment     *AssignmentRecord `json:"assignment"`
}

func corrupt(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if err == nil {
		return appErrors.Clone(appErrors.ErrDataCorrupt, msg)
	}
	return appErrors.Wrap(err, appErrors.ErrDataCorrupt.Code, appErrors.ErrDataCorrupt.Status, msg)
}

// DecodeChoices turns the encoded choice list into an ordered slice.
func DecodeChoices(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, err
		}
		if strings.TrimSpace(inner) == "" {
			return nil, nil
		}
		trimmed = []byte(inner)
	}
	var choices []string
	if err := json.Unmarshal(trimmed, &choices); err != nil {
		return nil, err
	}
	return choices, nil
}

// EncodeChoices produces the string encoded choice list the grade service stores.
func EncodeChoices(choices []string) (*string, error) {
	if len(choices) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(choices)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

// Assignment converts the record. fallbackMax is used when the record has no max score.
func (r AssignmentRecord) Assignment(fallbackMax *float64) (Assignment, error) {
	kind := SubmissionType(r.SubmissionType)
	if kind == "" {
		kind = SubmissionText
	}
	if !kind.Valid() {
		return Assignment{}, corrupt(nil, "assignment %d has unknown submission type %q", r.ID, r.SubmissionType)
	}

	choices, err := DecodeChoices(r.Choices)
	if err != nil {
		return Assignment{}, corrupt(err, "assignment %d has an unreadable choice list", r.ID)
	}
	if kind == SubmissionMultipleChoice && len(choices) == 0 {
		return Assignment{}, corrupt(nil, "multiple choice assignment %d has no choices", r.ID)
	}
	if kind != SubmissionMultipleChoice {
		choices = nil
	}

	if r.Weight != nil && (*r.Weight < 0 || *r.Weight > 100) {
		return Assignment{}, corrupt(nil, "assignment %d has weight %g outside [0,100]", r.ID, *r.Weight)
	}

	maxScore := DefaultMaxScore
	switch {
	case r.MaxScore != nil:
		maxScore = *r.MaxScore
	case fallbackMax != nil:
		maxScore = *fallbackMax
	}
	if maxScore < 0 {
		return Assignment{}, corrupt(nil, "assignment %d has negative max score", r.ID)
	}

	return Assignment{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		DueDate:        r.DueDate.Time,
		SubmissionType: kind,
		Question:       r.Question,
		Choices:        choices,
		Weight:         r.Weight,
		MaxScore:       maxScore,
	}, nil
}

// View converts the record into a typed submission and assignment pair.
func (r SubmissionRecord) View() (SubmissionView, error) {
	status := SubmissionStatus(r.Status)
	if !status.Valid() {
		return SubmissionView{}, corrupt(nil, "submission %d has unknown status %q", r.ID, r.Status)
	}
	if r.Assignment == nil {
		return SubmissionView{}, corrupt(nil, "submission %d has no assignment", r.ID)
	}
	assignment, err := r.Assignment.Assignment(r.MaxScore)
	if err != nil {
		return SubmissionView{}, err
	}

	sub := Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		StudentID:    r.StudentID,
		Status:       status,
		TeacherNote:  r.TeacherNote,
		StudentNote:  r.StudentNote,
		SubmittedAt:  r.SubmittedAt.Ptr(),
	}
	if sub.AssignmentID == 0 {
		sub.AssignmentID = assignment.ID
	}
	if status == StatusGraded {
		sub.Score = r.Score
	}

	switch assignment.SubmissionType {
	case SubmissionText:
		if r.AnswerText != nil {
			sub.Answer = TextAnswer{Text: *r.AnswerText}
		}
	case SubmissionMultipleChoice:
		if r.SelectedChoice != nil {
			sub.Answer = ChoiceAnswer{Index: *r.SelectedChoice}
		}
	case SubmissionFile:
		if r.FileName != nil {
			sub.Answer = FileAnswer{Name: *r.FileName}
		}
	}

	return SubmissionView{Submission: sub, Assignment: assignment}, nil
}

// DecodeSubmissions decodes a submission list body, preserving order.
func DecodeSubmissions(body []byte) ([]SubmissionView, error) {
	var records []SubmissionRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, corrupt(err, "submission list is not valid")
	}
	views := make([]SubmissionView, 0, len(records))
	for _, rec := range records {
		view, err := rec.View()
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// DecodeUsers decodes a user list body.
func DecodeUsers(body []byte) ([]User, error) {
	var users []User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, corrupt(err, "user list is not valid")
	}
	for _, u := range users {
		if u.Role != "" && !u.Role.Valid() {
			return nil, corrupt(nil, "user %d has unknown role %q", u.ID, u.Role)
		}
	}
	return users, nil
}

// DecodeUser decodes a single identity.
func DecodeUser(body []byte) (User, error) {
	var u User
	if err := json.Unmarshal(body, &u); err != nil {
		return User{}, corrupt(err, "user is not valid")
	}
	if !u.Role.Valid() {
		return User{}, corrupt(nil, "user %d has unknown role %q", u.ID, u.Role)
	}
	return u, nil
}

// AssignmentPayload is the create assignment body sent to the grade service.
type AssignmentPayload struct {
	Title          string         `json:"title"`
	Description    *string        `json:"description"`
	DueDate        time.Time      `json:"due_date"`
	MaxScore       float64        `json:"max_score"`
	Weight         float64        `json:"weight"`
	SubmissionType SubmissionType `json:"submission_type"`
	Question       *string        `json:"question"`
	// Choices holds the JSON encoded choice list, or nil for other submission types.
	Choices *string `json:"choices"`
}

// DecodeAssignments decodes a teacher's assignment list.
func DecodeAssignments(body []byte) ([]Assignment, error) {
	var records []AssignmentRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, corrupt(err, "assignment list is not valid")
	}
	out := make([]Assignment, 0, len(records))
	for _, rec := range records {
		a, err := rec.Assignment(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
