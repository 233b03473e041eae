package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/dto"
	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/validation"
)

type studentRemote interface {
	ListAssignments(ctx context.Context, studentID int64) ([]models.SubmissionView, error)
	Submit(ctx context.Context, studentID, assignmentID int64, answer models.Answer) (models.Ack, error)
	UpdateNote(ctx context.Context, studentID, submissionID int64, note string) (models.Ack, error)
	ExportPDF(ctx context.Context, studentID int64) (models.Document, error)
}

// StudentService implements the student's dashboard and submission flows.
type StudentService struct {
	remote    studentRemote
	links     fileLinker
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs a StudentService. links may be nil.
func NewStudentService(remote studentRemote, links fileLinker, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.Validate
	}
	return &StudentService{remote: remote, links: links, validator: validate, logger: logger, now: time.Now}
}

// Dashboard returns the student's submissions with overdue flags and the weighted percentage.
func (s *StudentService) Dashboard(ctx context.Context, sess models.Session) (*dto.Gradebook, error) {
	if err := requireRole(sess, models.RoleStudent); err != nil {
		return nil, err
	}
	views, err := s.remote.ListAssignments(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}
	return buildGradebook(sess.User.ID, views, s.now(), s.links), nil
}

// SubmitAnswer resolves the submission for assignmentID and submits the answer to it.
// Answer checks that need no assignment run before any remote call.
func (s *StudentService) SubmitAnswer(ctx context.Context, sess models.Session, assignmentID int64, req dto.SubmitAnswerRequest) (*dto.MutationResult, error) {
	if err := requireRole(sess, models.RoleStudent); err != nil {
		return nil, err
	}
	ans, err := models.AnswerFromFields(req.AnswerText, req.SelectedChoice, req.FileName)
	if err != nil {
		return nil, err
	}
	if err := models.CheckAnswer(ans); err != nil {
		return nil, err
	}

	views, err := s.remote.ListAssignments(ctx, sess.User.ID)
	if err != nil {
		return nil, err
	}
	view, ok := findByAssignment(views, assignmentID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("assignment %d not found", assignmentID))
	}
	return s.Submit(ctx, sess, view, ans)
}

// Submit applies the submit transition locally and sends it only when the guard passes.
// The dashboard is fetched again after the write.
func (s *StudentService) Submit(ctx context.Context, sess models.Session, view models.SubmissionView, ans models.Answer) (*dto.MutationResult, error) {
	if err := requireRole(sess, models.RoleStudent); err != nil {
		return nil, err
	}
	if !view.Synthesized && view.StudentID != sess.User.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "submission belongs to another student")
	}

	next := view.Submission
	if err := next.Submit(view.Assignment, ans, s.now()); err != nil {
		return nil, err
	}

	ack, err := s.remote.Submit(ctx, sess.User.ID, view.AssignmentID, ans)
	if err != nil {
		return nil, err
	}
	s.logger.Info("answer submitted",
		zap.Int64("student_id", sess.User.ID),
		zap.Int64("assignment_id", view.AssignmentID),
		zap.String("type", string(ans.Type())),
		zap.Bool("degraded", ack.Degraded),
	)
	return s.afterWrite(ctx, sess, ack), nil
}

// UpdateNote replaces the student's note on one of their submissions.
func (s *StudentService) UpdateNote(ctx context.Context, sess models.Session, submissionID int64, req dto.StudentNoteRequest) (*dto.MutationResult, error) {
	if err := requireRole(sess, models.RoleStudent); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Wrap(err, "invalid note payload")
	}
	if submissionID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission id must be positive")
	}

	ack, err := s.remote.UpdateNote(ctx, sess.User.ID, submissionID, req.StudentNote)
	if err != nil {
		return nil, err
	}
	return s.afterWrite(ctx, sess, ack), nil
}

// ExportPDF returns the student's grade report.
func (s *StudentService) ExportPDF(ctx context.Context, sess models.Session) (models.Document, error) {
	if err := requireRole(sess, models.RoleStudent); err != nil {
		return models.Document{}, err
	}
	doc, err := s.remote.ExportPDF(ctx, sess.User.ID)
	if err != nil {
		return models.Document{}, err
	}
	if len(doc.Body) == 0 {
		return models.Document{}, appErrors.Clone(appErrors.ErrDataCorrupt, "grade service returned an empty report")
	}
	return doc, nil
}

// afterWrite re-reads the dashboard. A failed read does not undo the write, so the
// result then carries the acknowledgement only.
func (s *StudentService) afterWrite(ctx context.Context, sess models.Session, ack models.Ack) *dto.MutationResult {
	result := &dto.MutationResult{Message: ack.Message, Degraded: ack.Degraded}
	views, err := s.remote.ListAssignments(ctx, sess.User.ID)
	if err != nil {
		s.logger.Warn("failed to refresh dashboard after write", zap.Int64("student_id", sess.User.ID), zap.Error(err))
		return result
	}
	result.Gradebook = buildGradebook(sess.User.ID, views, s.now(), s.links)
	return result
}

func requireRole(sess models.Session, role models.UserRole) error {
	if sess.ID == "" {
		return appErrors.ErrUnauthorized
	}
	if sess.User.Role != role {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("%s role required", role))
	}
	return nil
}
