package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-gradebook/internal/models"
	"github.com/noah-isme/sma-gradebook/internal/transport"
)

// TeacherRepository calls the teacher endpoints of the grade service.
type TeacherRepository struct {
	client dispatcher
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(client dispatcher) *TeacherRepository {
	return &TeacherRepository{client: client}
}

// ListStudents returns every student visible to the teacher.
func (r *TeacherRepository) ListStudents(ctx context.Context, teacherID int64) ([]models.User, error) {
	resp, err := r.client.Send(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "teacher/students",
		Query:  idQuery("teacher_id", teacherID),
	})
	if err != nil {
		return nil, upstreamError(err, "list students")
	}
	return models.DecodeUsers(resp.Body)
}

// ListStudentSubmissions returns one student's submissions.
func (r *TeacherRepository) ListStudentSubmissions(ctx context.Context, teacherID, studentID int64) ([]models.SubmissionView, error) {
	resp, err := r.client.Send(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("teacher/students/%d/submissions", studentID),
		Query:  idQuery("teacher_id", teacherID),
	})
	if err != nil {
		return nil, upstreamError(err, "list student submissions")
	}
	return decodeViews(resp)
}

// ListAssignments returns the assignments the teacher created.
func (r *TeacherRepository) ListAssignments(ctx context.Context, teacherID int64) ([]models.Assignment, error) {
	resp, err := r.client.Send(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "teacher/assignments",
		Query:  idQuery("teacher_id", teacherID),
	})
	if err != nil {
		return nil, upstreamError(err, "list assignments")
	}
	return models.DecodeAssignments(resp.Body)
}

// CreateAssignment creates an assignment. The grade service opens a pending submission
// for every student.
func (r *TeacherRepository) CreateAssignment(ctx context.Context, teacherID int64, payload models.AssignmentPayload) (models.Ack, error) {
	resp, err := r.client.Send(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "teacher/assignments",
		Query:  idQuery("teacher_id", teacherID),
		Body:   payload,
	})
	if err != nil {
		return models.Ack{}, upstreamError(err, "create assignment")
	}
	return decodeAck(resp, "assignment created"), nil
}

// Grade stores a score and note for a submission.
func (r *TeacherRepository) Grade(ctx context.Context, teacherID, submissionID int64, score float64, note *string) (models.Ack, error) {
	resp, err := r.client.Send(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("teacher/submissions/%d/grade", submissionID),
		Query:  idQuery("teacher_id", teacherID),
		Body: map[string]interface{}{
			"score":        score,
			"teacher_note": note,
		},
	})
	if err != nil {
		return models.Ack{}, upstreamError(err, "grade submission")
	}
	return decodeAck(resp, "graded"), nil
}
