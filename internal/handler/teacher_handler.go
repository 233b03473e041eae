package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-gradebook/internal/dto"
	"github.com/noah-isme/sma-gradebook/internal/middleware"
	"github.com/noah-isme/sma-gradebook/internal/models"
	appErrors "github.com/noah-isme/sma-gradebook/pkg/errors"
	"github.com/noah-isme/sma-gradebook/pkg/response"
)

type teacherService interface {
	Students(ctx context.Context, sess models.Session) ([]models.User, error)
	StudentGradebook(ctx context.Context, sess models.Session, studentID int64) (*dto.Gradebook, error)
	Assignments(ctx context.Context, sess models.Session) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, sess models.Session, req dto.CreateAssignmentRequest) (*dto.MutationResult, error)
	GradeSubmission(ctx context.Context, sess models.Session, submissionID int64, req dto.GradeRequest) (*dto.MutationResult, error)
	ExportCSV(ctx context.Context, sess models.Session, studentID int64) (models.Document, error)
}

// TeacherHandler exposes the teacher's student, assignment and grading endpoints.
type TeacherHandler struct {
	service teacherService
}

// NewTeacherHandler constructs the handler.
func NewTeacherHandler(service teacherService) *TeacherHandler {
	return &TeacherHandler{service: service}
}

// Students godoc
// @Summary List students
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teacher/students [get]
func (h *TeacherHandler) Students(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.service.Students(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, middleware.ExtractMeta(c))
}

// StudentSubmissions godoc
// @Summary One student's gradebook
// @Tags Teacher
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teacher/students/{id}/submissions [get]
func (h *TeacherHandler) StudentSubmissions(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	book, err := h.service.StudentGradebook(c.Request.Context(), sess, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, middleware.ExtractMeta(c))
}

// ExportCSV godoc
// @Summary Download one student's grades as CSV
// @Tags Teacher
// @Produce text/csv
// @Param id path int true "Student ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /teacher/students/{id}/export/csv [get]
func (h *TeacherHandler) ExportCSV(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	studentID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.service.ExportCSV(c.Request.Context(), sess, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}

// Assignments godoc
// @Summary List the teacher's assignments
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /teacher/assignments [get]
func (h *TeacherHandler) Assignments(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignments, err := h.service.Assignments(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, middleware.ExtractMeta(c))
}

// CreateAssignment godoc
// @Summary Create an assignment
// @Description Opens a pending submission for every student
// @Tags Teacher
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /teacher/assignments [post]
func (h *TeacherHandler) CreateAssignment(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	result, err := h.service.CreateAssignment(c.Request.Context(), sess, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetDegraded(c, result.Degraded)
	response.Created(c, result, middleware.ExtractMeta(c))
}

// Grade godoc
// @Summary Grade a submission
// @Tags Teacher
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param payload body dto.GradeRequest true "Score and note"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /teacher/submissions/{id}/grade [put]
func (h *TeacherHandler) Grade(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	submissionID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}
	result, err := h.service.GradeSubmission(c.Request.Context(), sess, submissionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeMutation(c, result)
}
