package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gradebook/internal/dto"
	"github.com/noah-isme/sma-gradebook/internal/grading"
	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/export"
	"github.com/noah-isme/sma-gradebook/pkg/validation"
)

type teacherRemote interface {
	ListStudents(ctx context.Context, teacherID int64) ([]models.User, error)
	ListStudentSubmissions(ctx context.Context, teacherID, studentID int64) ([]models.SubmissionView, error)
	ListAssignments(ctx context.Context, teacherID int64) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, teacherID int64, payload models.AssignmentPayload) (models.Ack, error)
	Grade(ctx context.Context, teacherID, submissionID int64, score float64, note *string) (models.Ack, error)
}

const minChoices = 2

// TeacherService implements the teacher's student overview, assignment and grading flows.
type TeacherService struct {
	remote    teacherRemote
	links     fileLinker
	csv       *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTeacherService constructs a TeacherService. links may be nil.
func NewTeacherService(remote teacherRemote, links fileLinker, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.Validate
	}
	return &TeacherService{
		remote:    remote,
		links:     links,
		csv:       export.NewCSVExporter(),
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Students lists every student.
func (s *TeacherService) Students(ctx context.Context, sess models.Session) ([]models.User, error) {
	if err := requireRole(sess, models.RoleTeacher); err != nil {
		return nil, err
	}
	return s.remote.ListStudents(ctx, sess.User.ID)
}

// StudentGradebook returns one student's submissions with the weighted percentage.
func (s *TeacherService) StudentGradebook(ctx context.Context, sess models.Session, studentID int64) (*dto.Gradebook, error) {
	views, err := s.studentViews(ctx, sess, studentID)
	if err != nil {
		return nil, err
	}
	return buildGradebook(studentID, views, s.now(), s.links), nil
}

// Assignments lists the assignments the teacher created.
func (s *TeacherService) Assignments(ctx context.Context, sess models.Session) ([]models.Assignment, error) {
	if err := requireRole(sess, models.RoleTeacher); err != nil {
		return nil, err
	}
	return s.remote.ListAssignments(ctx, sess.User.ID)
}

// CreateAssignment validates the request and creates the assignment. Multiple choice
// assignments need at least two non-blank choices. Other types drop any choices.
func (s *TeacherService) CreateAssignment(ctx context.Context, sess models.Session, req dto.CreateAssignmentRequest) (*dto.MutationResult, error) {
	if err := requireRole(sess, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Wrap(err, "invalid assignment payload")
	}

	payload := models.AssignmentPayload{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		DueDate:        req.DueDate.UTC(),
		MaxScore:       req.MaxScore,
		Weight:         req.Weight,
		SubmissionType: models.SubmissionType(req.SubmissionType),
		Question:       req.Question,
	}
	if payload.SubmissionType == models.SubmissionMultipleChoice {
		choices := make([]string, 0, len(req.Choices))
		for _, c := range req.Choices {
			if trimmed := strings.TrimSpace(c); trimmed != "" {
				choices = append(choices, trimmed)
			}
		}
		if len(choices) < minChoices {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("multiple choice assignments need at least %d choices", minChoices))
		}
		encoded, err := models.EncodeChoices(choices)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode choices")
		}
		payload.Choices = encoded
	}

	ack, err := s.remote.CreateAssignment(ctx, sess.User.ID, payload)
	if err != nil {
		return nil, err
	}
	s.logger.Info("assignment created",
		zap.Int64("teacher_id", sess.User.ID),
		zap.String("title", payload.Title),
		zap.String("type", string(payload.SubmissionType)),
		zap.Bool("degraded", ack.Degraded),
	)

	result := &dto.MutationResult{Message: ack.Message, Degraded: ack.Degraded}
	assignments, err := s.remote.ListAssignments(ctx, sess.User.ID)
	if err != nil {
		s.logger.Warn("failed to refresh assignments after create", zap.Int64("teacher_id", sess.User.ID), zap.Error(err))
		return result, nil
	}
	result.Assignments = assignments
	return result, nil
}

// GradeSubmission resolves submissionID among the student's submissions and grades it.
func (s *TeacherService) GradeSubmission(ctx context.Context, sess models.Session, submissionID int64, req dto.GradeRequest) (*dto.MutationResult, error) {
	if err := requireRole(sess, models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validation.Wrap(err, "invalid grade payload")
	}

	views, err := s.remote.ListStudentSubmissions(ctx, sess.User.ID, req.StudentID)
	if err != nil {
		return nil, err
	}
	view, ok := findBySubmission(views, submissionID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("submission %d not found", submissionID))
	}
	return s.Grade(ctx, sess, req.StudentID, view, *req.Score, req.TeacherNote)
}

// Grade applies the grade transition locally and sends it only when the guard passes.
// The submissions of studentID are fetched again after the write.
func (s *TeacherService) Grade(ctx context.Context, sess models.Session, studentID int64, view models.SubmissionView, score float64, note *string) (*dto.MutationResult, error) {
	if err := requireRole(sess, models.RoleTeacher); err != nil {
		return nil, err
	}
	if !view.Synthesized && view.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("submission %d does not belong to student %d", view.ID, studentID))
	}

	next := view.Submission
	if err := next.Grade(view.Assignment, score, note); err != nil {
		return nil, err
	}

	ack, err := s.remote.Grade(ctx, sess.User.ID, view.ID, score, note)
	if err != nil {
		return nil, err
	}
	s.logger.Info("submission graded",
		zap.Int64("teacher_id", sess.User.ID),
		zap.Int64("student_id", studentID),
		zap.Int64("submission_id", view.ID),
		zap.Float64("score", score),
		zap.Bool("degraded", ack.Degraded),
	)

	result := &dto.MutationResult{Message: ack.Message, Degraded: ack.Degraded}
	views, err := s.remote.ListStudentSubmissions(ctx, sess.User.ID, studentID)
	if err != nil {
		s.logger.Warn("failed to refresh submissions after grade", zap.Int64("student_id", studentID), zap.Error(err))
		return result, nil
	}
	result.Gradebook = buildGradebook(studentID, views, s.now(), s.links)
	return result, nil
}

// ExportCSV renders one student's grade report as CSV.
func (s *TeacherService) ExportCSV(ctx context.Context, sess models.Session, studentID int64) (models.Document, error) {
	views, err := s.studentViews(ctx, sess, studentID)
	if err != nil {
		return models.Document{}, err
	}
	body, err := s.csv.Render(grading.ReportDataset(views))
	if err != nil {
		return models.Document{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return models.Document{
		Filename:    fmt.Sprintf("grades_%d.csv", studentID),
		ContentType: "text/csv",
		Body:        body,
	}, nil
}

func (s *TeacherService) studentViews(ctx context.Context, sess models.Session, studentID int64) ([]models.SubmissionView, error) {
	if err := requireRole(sess, models.RoleTeacher); err != nil {
		return nil, err
	}
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id must be positive")
	}
	return s.remote.ListStudentSubmissions(ctx, sess.User.ID, studentID)
}
