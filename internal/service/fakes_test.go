package service

import (
	"context"
	"time"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

var (
	testNow      = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	studentSess  = models.Session{ID: "sess-student", User: models.User{ID: 101, Username: "mock_student", Role: models.RoleStudent}}
	teacherSess  = models.Session{ID: "sess-teacher", User: models.User{ID: 1, Username: "mock_teacher", Role: models.RoleTeacher}}
	defaultFloat = func(v float64) *float64 { return &v }
)

func sampleViews() []models.SubmissionView {
	return []models.SubmissionView{
		{
			Submission: models.Submission{ID: 11, AssignmentID: 1, StudentID: 101, Status: models.StatusPending},
			Assignment: models.Assignment{
				ID: 1, Title: "Essay", SubmissionType: models.SubmissionText,
				DueDate: testNow.Add(-24 * time.Hour), MaxScore: 10, Weight: defaultFloat(10),
			},
		},
		{
			Submission: models.Submission{ID: 12, AssignmentID: 2, StudentID: 101, Status: models.StatusGraded,
				Score: defaultFloat(8), Answer: models.ChoiceAnswer{Index: 1}},
			Assignment: models.Assignment{
				ID: 2, Title: "Quiz", SubmissionType: models.SubmissionMultipleChoice,
				Choices: []string{"1", "2", "3", "4"}, DueDate: testNow.Add(-48 * time.Hour),
				MaxScore: 10, Weight: defaultFloat(20),
			},
		},
		{
			Submission: models.Submission{ID: 13, AssignmentID: 3, StudentID: 101, Status: models.StatusSubmitted,
				Answer: models.FileAnswer{Name: "101/0b6a6c2e-1a4e-4a8e-9a59-3a3f5f7c8d10_lab.pdf"}},
			Assignment: models.Assignment{
				ID: 3, Title: "Lab", SubmissionType: models.SubmissionFile,
				DueDate: testNow.Add(24 * time.Hour), MaxScore: 20, Weight: defaultFloat(30),
			},
		},
	}
}

type submitCall struct {
	studentID    int64
	assignmentID int64
	answer       models.Answer
}

type fakeStudentRemote struct {
	views     []models.SubmissionView
	listErr   error
	listCalls int
	submits   []submitCall
	notes     []string
	ack       models.Ack
	writeErr  error
	doc       models.Document
}

func (f *fakeStudentRemote) ListAssignments(_ context.Context, _ int64) ([]models.SubmissionView, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.views, nil
}

func (f *fakeStudentRemote) Submit(_ context.Context, studentID, assignmentID int64, answer models.Answer) (models.Ack, error) {
	f.submits = append(f.submits, submitCall{studentID: studentID, assignmentID: assignmentID, answer: answer})
	if f.writeErr != nil {
		return models.Ack{}, f.writeErr
	}
	return f.ack, nil
}

func (f *fakeStudentRemote) UpdateNote(_ context.Context, _ int64, _ int64, note string) (models.Ack, error) {
	f.notes = append(f.notes, note)
	if f.writeErr != nil {
		return models.Ack{}, f.writeErr
	}
	return f.ack, nil
}

func (f *fakeStudentRemote) ExportPDF(_ context.Context, _ int64) (models.Document, error) {
	return f.doc, f.writeErr
}

func (f *fakeStudentRemote) calls() int {
	return f.listCalls + len(f.submits) + len(f.notes)
}

type gradeCall struct {
	submissionID int64
	score        float64
	note         *string
}

type fakeTeacherRemote struct {
	students    []models.User
	views       []models.SubmissionView
	assignments []models.Assignment
	listCalls   int
	created     []models.AssignmentPayload
	grades      []gradeCall
	ack         models.Ack
	err         error
}

func (f *fakeTeacherRemote) ListStudents(_ context.Context, _ int64) ([]models.User, error) {
	f.listCalls++
	return f.students, f.err
}

func (f *fakeTeacherRemote) ListStudentSubmissions(_ context.Context, _ int64, studentID int64) ([]models.SubmissionView, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.SubmissionView, 0, len(f.views))
	for _, v := range f.views {
		if v.StudentID == studentID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeTeacherRemote) ListAssignments(_ context.Context, _ int64) ([]models.Assignment, error) {
	f.listCalls++
	return f.assignments, f.err
}

func (f *fakeTeacherRemote) CreateAssignment(_ context.Context, _ int64, payload models.AssignmentPayload) (models.Ack, error) {
	f.created = append(f.created, payload)
	return f.ack, f.err
}

func (f *fakeTeacherRemote) Grade(_ context.Context, _ int64, submissionID int64, score float64, note *string) (models.Ack, error) {
	f.grades = append(f.grades, gradeCall{submissionID: submissionID, score: score, note: note})
	return f.ack, f.err
}

type staticLinker map[string]string

func (l staticLinker) DownloadURL(name string) (string, bool) {
	url, ok := l[name]
	return url, ok
}
