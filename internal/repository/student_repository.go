package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/transport"
)

// StudentRepository calls the student endpoints of the grade service.
type StudentRepository struct {
	client dispatcher
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(client dispatcher) *StudentRepository {
	return &StudentRepository{client: client}
}

// ListAssignments returns the student's submissions with their assignments.
func (r *StudentRepository) ListAssignments(ctx context.Context, studentID int64) ([]models.SubmissionView, error) {
	resp, err := r.client.Send(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "student/assignments",
		Query:  idQuery("student_id", studentID),
	})
	if err != nil {
		return nil, upstreamError(err, "list assignments")
	}
	return decodeViews(resp)
}

// Submit sends the answer for one assignment.
func (r *StudentRepository) Submit(ctx context.Context, studentID, assignmentID int64, answer models.Answer) (models.Ack, error) {
	resp, err := r.client.Send(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("student/submissions/%d/submit", assignmentID),
		Query:  idQuery("student_id", studentID),
		Body:   models.AnswerPayload(answer),
	})
	if err != nil {
		return models.Ack{}, upstreamError(err, "submit answer")
	}
	return decodeAck(resp, "submitted"), nil
}

// UpdateNote replaces the student's note on a submission.
func (r *StudentRepository) UpdateNote(ctx context.Context, studentID, submissionID int64, note string) (models.Ack, error) {
	resp, err := r.client.Send(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("student/submissions/%d/note", submissionID),
		Query:  idQuery("student_id", studentID),
		Body:   map[string]string{"student_note": note},
	})
	if err != nil {
		return models.Ack{}, upstreamError(err, "update note")
	}
	return decodeAck(resp, "note saved"), nil
}

// ExportPDF downloads the student's grade report.
func (r *StudentRepository) ExportPDF(ctx context.Context, studentID int64) (models.Document, error) {
	resp, err := r.client.Send(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "student/export/pdf",
		Query:  idQuery("student_id", studentID),
		Header: http.Header{"Accept": {"application/pdf"}},
	})
	if err != nil {
		return models.Document{}, upstreamError(err, "export grade report")
	}
	contentType := resp.ContentType()
	if contentType == "" {
		contentType = "application/pdf"
	}
	return models.Document{
		Filename:    attachmentName(resp, fmt.Sprintf("grades_%d.pdf", studentID)),
		ContentType: contentType,
		Body:        resp.Body,
	}, nil
}
