package models

import (
	"encoding/json"
	"fmt"
	"strings"

	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
)

// Answer is the student's response to one assignment. The concrete type must
// match the assignment's submission type.
type Answer interface {
	Type() SubmissionType
	isAnswer()
}

// TextAnswer is a free text response.
type TextAnswer struct {
	Text string
}

// ChoiceAnswer selects one of the assignment's choices by zero based index.
type ChoiceAnswer struct {
	Index int
}

// FileAnswer references an uploaded file by name.
type FileAnswer struct {
	Name string
}

func (TextAnswer) Type() SubmissionType   { return SubmissionText }
func (ChoiceAnswer) Type() SubmissionType { return SubmissionMultipleChoice }
func (FileAnswer) Type() SubmissionType   { return SubmissionFile }

func (TextAnswer) isAnswer()   {}
func (ChoiceAnswer) isAnswer() {}
func (FileAnswer) isAnswer()   {}

func (a TextAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type SubmissionType `json:"type"`
		Text string         `json:"text"`
	}{a.Type(), a.Text})
}

func (a ChoiceAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  SubmissionType `json:"type"`
		Index int            `json:"index"`
	}{a.Type(), a.Index})
}

func (a FileAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type SubmissionType `json:"type"`
		Name string         `json:"name"`
	}{a.Type(), a.Name})
}

// AnswerFromFields builds an Answer from the flat wire fields. Exactly one field must be set.
func AnswerFromFields(text *string, choice *int, fileName *string) (Answer, error) {
	set := 0
	var ans Answer
	if text != nil {
		set++
		ans = TextAnswer{Text: *text}
	}
	if choice != nil {
		set++
		ans = ChoiceAnswer{Index: *choice}
	}
	if fileName != nil {
		set++
		ans = FileAnswer{Name: *fileName}
	}
	if set != 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of answer_text, selected_choice or file_name is required")
	}
	return ans, nil
}

// AnswerPayload renders ans as the submit body expected by the grade service.
func AnswerPayload(ans Answer) map[string]interface{} {
	switch a := ans.(type) {
	case TextAnswer:
		return map[string]interface{}{"answer_text": a.Text}
	case ChoiceAnswer:
		return map[string]interface{}{"selected_choice": a.Index}
	case FileAnswer:
		return map[string]interface{}{"file_name": a.Name}
	}
	return map[string]interface{}{}
}

// CheckAnswer validates the parts of ans that do not depend on the assignment.
func CheckAnswer(ans Answer) error {
	switch v := ans.(type) {
	case nil:
		return appErrors.Clone(appErrors.ErrValidation, "answer is required")
	case TextAnswer:
		if strings.TrimSpace(v.Text) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "answer text must not be empty")
		}
	case ChoiceAnswer:
		if v.Index < 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("selected choice %d is negative", v.Index))
		}
	case FileAnswer:
		if strings.TrimSpace(v.Name) == "" {
			return appErrors.Clone(appErrors.ErrValidation, "file name must not be empty")
		}
	}
	return nil
}

// ValidateAnswer checks that ans fits the assignment.
func ValidateAnswer(a Assignment, ans Answer) error {
	if err := CheckAnswer(ans); err != nil {
		return err
	}
	if ans.Type() != a.SubmissionType {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("answer type %s does not match assignment type %s", ans.Type(), a.SubmissionType))
	}
	if c, ok := ans.(ChoiceAnswer); ok && c.Index >= len(a.Choices) {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("selected choice %d out of range [0,%d)", c.Index, len(a.Choices)))
	}
	return nil
}

// DisplayAnswer renders ans for people. Choices are shown one based.
func DisplayAnswer(a Assignment, ans Answer) string {
	switch v := ans.(type) {
	case TextAnswer:
		return v.Text
	case ChoiceAnswer:
		if v.Index >= 0 && v.Index < len(a.Choices) {
			return fmt.Sprintf("(%d) %s", v.Index+1, a.Choices[v.Index])
		}
		return fmt.Sprintf("choice %d", v.Index+1)
	case FileAnswer:
		return v.Name
	}
	return ""
}
