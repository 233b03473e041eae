package fallback

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

// Fixed identities served while the grade service is unreachable.
var (
	TeacherIdentity = models.User{ID: 1, Username: "mock_teacher", Role: models.RoleTeacher}
	StudentIdentity = models.User{ID: 101, Username: "mock_student", Role: models.RoleStudent, Year: intPtr(3)}
)

// reportDate pins the creation date of the synthesized PDF report.
var reportDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func students() []models.User {
	return []models.User{
		StudentIdentity,
		{ID: 102, Username: "Somchai Jaidee", Role: models.RoleStudent, Year: intPtr(2)},
		{ID: 103, Username: "Somying Rakrian", Role: models.RoleStudent, Year: intPtr(1)},
	}
}

// submissions covers every answer type and the pending, submitted and graded states.
func submissions() []models.SubmissionRecord {
	at := func(y int, m time.Month, d, h, min int) models.Timestamp {
		return models.Timestamp{Time: time.Date(y, m, d, h, min, 0, 0, time.UTC)}
	}
	return []models.SubmissionRecord{
		{
			ID: 1, AssignmentID: 1, StudentID: StudentIdentity.ID,
			Status:   string(models.StatusPending),
			MaxScore: floatPtr(10),
			Assignment: &models.AssignmentRecord{
				ID:             1,
				Title:          "Homework 1: Python Basics",
				Description:    strPtr("Write a Hello World program"),
				DueDate:        at(2031, time.June, 30, 23, 59),
				SubmissionType: string(models.SubmissionText),
				Question:       strPtr("Summarise what you learned today"),
				Weight:         floatPtr(10),
				MaxScore:       floatPtr(10),
			},
		},
		{
			ID: 2, AssignmentID: 2, StudentID: StudentIdentity.ID,
			Status:         string(models.StatusGraded),
			SubmittedAt:    at(2024, time.August, 30, 9, 15),
			Score:          floatPtr(8),
			MaxScore:       floatPtr(10),
			TeacherNote:    strPtr("Very good work"),
			SelectedChoice: intPtr(1),
			Assignment: &models.AssignmentRecord{
				ID:             2,
				Title:          "Quiz 1: Variables and Arithmetic",
				Description:    strPtr("Short quiz on variables"),
				DueDate:        at(2024, time.September, 1, 0, 0),
				SubmissionType: string(models.SubmissionMultipleChoice),
				Question:       strPtr("What is 1 + 1?"),
				Choices:        encodedChoices("1", "2", "3", "4"),
				Weight:         floatPtr(20),
				MaxScore:       floatPtr(10),
			},
		},
		{
			ID: 3, AssignmentID: 3, StudentID: StudentIdentity.ID,
			Status:      string(models.StatusSubmitted),
			SubmittedAt: at(2024, time.October, 14, 16, 40),
			MaxScore:    floatPtr(20),
			StudentNote: strPtr("Submitted one day early"),
			FileName:    strPtr("lab-report.pdf"),
			Assignment: &models.AssignmentRecord{
				ID:             3,
				Title:          "Lab 1: Control Flow Report",
				DueDate:        at(2024, time.October, 15, 23, 59),
				SubmissionType: string(models.SubmissionFile),
				Question:       strPtr("Upload your lab report as a PDF"),
				Weight:         floatPtr(30),
				MaxScore:       floatPtr(20),
			},
		},
	}
}

// encodedChoices stores the list as a JSON string, the way the grade service does.
func encodedChoices(choices ...string) json.RawMessage {
	inner, _ := json.Marshal(choices)
	outer, _ := json.Marshal(string(inner))
	return outer
}
