package grading

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gradebook/internal/models"
)

func f(v float64) *float64 { return &v }

func graded(score, max, weight float64) models.SubmissionView {
	return models.SubmissionView{
		Submission: models.Submission{Status: models.StatusGraded, Score: f(score)},
		Assignment: models.Assignment{MaxScore: max, Weight: f(weight)},
	}
}

func TestWeightedPercentage(t *testing.T) {
	pct, ok := WeightedPercentage([]models.SubmissionView{graded(8, 10, 20), graded(5, 10, 10)})
	require.True(t, ok)
	require.InDelta(t, 70.0, pct, 1e-9)
}

func TestWeightedPercentageNone(t *testing.T) {
	_, ok := WeightedPercentage(nil)
	require.False(t, ok)

	pending := []models.SubmissionView{
		{Submission: models.Submission{Status: models.StatusPending}, Assignment: models.Assignment{MaxScore: 10, Weight: f(10)}},
		{Submission: models.Submission{Status: models.StatusSubmitted}, Assignment: models.Assignment{MaxScore: 10, Weight: f(30)}},
	}
	_, ok = WeightedPercentage(pending)
	require.False(t, ok)

	_, ok = WeightedPercentage([]models.SubmissionView{graded(3, 10, 0)})
	require.False(t, ok)
}

func TestWeightedPercentageSkipsIneligible(t *testing.T) {
	noWeight := graded(10, 10, 0)
	noWeight.Assignment.Weight = nil
	zeroMax := graded(5, 0, 50)

	pct, ok := WeightedPercentage([]models.SubmissionView{graded(6, 12, 40), noWeight, zeroMax})
	require.True(t, ok)
	require.InDelta(t, 50.0, pct, 1e-9)
	require.False(t, math.IsNaN(pct))
}

func TestWeightedPercentageKeepsPrecision(t *testing.T) {
	pct, ok := WeightedPercentage([]models.SubmissionView{graded(1, 3, 10)})
	require.True(t, ok)
	third := 1.0 / 3.0
	require.Equal(t, third*10/10*100, pct)
}

func TestTally(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	overdue := models.SubmissionView{
		Submission: models.Submission{Status: models.StatusPending},
		Assignment: models.Assignment{DueDate: now.Add(-time.Hour)},
	}
	c := Tally([]models.SubmissionView{overdue, graded(1, 2, 3)}, now)
	require.Equal(t, Counts{Total: 2, Pending: 1, Graded: 1, Overdue: 1}, c)
}
