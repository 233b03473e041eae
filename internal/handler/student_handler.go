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

type studentService interface {
	Dashboard(ctx context.Context, sess models.Session) (*dto.Gradebook, error)
	SubmitAnswer(ctx context.Context, sess models.Session, assignmentID int64, req dto.SubmitAnswerRequest) (*dto.MutationResult, error)
	UpdateNote(ctx context.Context, sess models.Session, submissionID int64, req dto.StudentNoteRequest) (*dto.MutationResult, error)
	ExportPDF(ctx context.Context, sess models.Session) (models.Document, error)
}

// StudentHandler exposes the student dashboard and submission endpoints.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service studentService) *StudentHandler {
	return &StudentHandler{service: service}
}

// Assignments godoc
// @Summary Student dashboard
// @Description Submissions with overdue flags and the weighted percentage
// @Tags Student
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Security BearerAuth
// @Router /student/assignments [get]
func (h *StudentHandler) Assignments(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	book, err := h.service.Dashboard(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, middleware.ExtractMeta(c))
}

// Submit godoc
// @Summary Submit an answer
// @Description Exactly one of answer_text, selected_choice or file_name, matching the assignment type
// @Tags Student
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body dto.SubmitAnswerRequest true "Answer"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /student/submissions/{id}/submit [post]
func (h *StudentHandler) Submit(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignmentID, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answer payload"))
		return
	}

	result, err := h.service.SubmitAnswer(c.Request.Context(), sess, assignmentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeMutation(c, result)
}

// UpdateNote godoc
// @Summary Update the student note
// @Tags Student
// @Accept json
// @Produce json
// @Param id path int true "Submission ID"
// @Param payload body dto.StudentNoteRequest true "Note"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /student/submissions/{id}/note [put]
func (h *StudentHandler) UpdateNote(c *gin.Context) {
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
	var req dto.StudentNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
		return
	}

	result, err := h.service.UpdateNote(c.Request.Context(), sess, submissionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeMutation(c, result)
}

// ExportPDF godoc
// @Summary Download the grade report
// @Tags Student
// @Produce application/pdf
// @Success 200 {file} file
// @Failure 503 {object} response.Envelope
// @Security BearerAuth
// @Router /student/export/pdf [get]
func (h *StudentHandler) ExportPDF(c *gin.Context) {
	sess, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.service.ExportPDF(c.Request.Context(), sess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}

func writeMutation(c *gin.Context, result *dto.MutationResult) {
	middleware.SetDegraded(c, result.Degraded)
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}

func writeAck(c *gin.Context, status int, ack models.Ack) {
	middleware.SetDegraded(c, ack.Degraded)
	response.JSON(c, status, ack, middleware.ExtractMeta(c))
}
