package dto

import "time"

// SubmitAnswerRequest carries exactly one answer field matching the assignment type.
type SubmitAnswerRequest struct {
	AnswerText     *string `json:"answer_text"`
	SelectedChoice *int    `json:"selected_choice"`
	FileName       *string `json:"file_name"`
}

// StudentNoteRequest updates the student's note on a submission.
type StudentNoteRequest struct {
	StudentNote string `json:"student_note" validate:"max=2000"`
}

// GradeRequest grades one submission of a student.
type GradeRequest struct {
	StudentID   int64    `json:"student_id" validate:"required,gt=0"`
	Score       *float64 `json:"score" validate:"required"`
	TeacherNote *string  `json:"teacher_note" validate:"omitempty,max=2000"`
}

// CreateAssignmentRequest is validated before it is sent to the grade service.
type CreateAssignmentRequest struct {
	Title          string    `json:"title" validate:"required,notblank,max=200"`
	Description    *string   `json:"description" validate:"omitempty,max=5000"`
	DueDate        time.Time `json:"due_date" validate:"required"`
	MaxScore       float64   `json:"max_score" validate:"gt=0"`
	Weight         float64   `json:"weight" validate:"gte=0,lte=100"`
	SubmissionType string    `json:"submission_type" validate:"required,oneof=text multiple_choice file"`
	Question       *string   `json:"question" validate:"omitempty,max=2000"`
	Choices        []string  `json:"choices" validate:"omitempty,max=10,dive,max=500"`
}

// UploadResult describes a stored answer file.
type UploadResult struct {
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
