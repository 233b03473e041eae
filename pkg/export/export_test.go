package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"#", "Assignment", "Score"},
		Rows: []map[string]string{
			{"#": "1", "Assignment": "Quiz 1", "Score": "8"},
			{"#": "2", "Assignment": "Homework 1, part A", "Score": "-"},
		},
		Footer: []string{"Total Score: 8 / 20"},
	}
}

func TestCSVRenderWithFooter(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Equal(t, "#,Assignment,Score", lines[0])
	require.Equal(t, `2,"Homework 1, part A",-`, lines[2])
	require.Equal(t, "Total Score: 8 / 20", lines[len(lines)-1])
}

func TestCSVRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRenderIsStableForFixedDate(t *testing.T) {
	exp := &PDFExporter{
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ColumnWidths: map[string]float64{"#": 10},
	}
	first, err := exp.Render(sampleDataset(), "Grade Report")
	require.NoError(t, err)
	second, err := exp.Render(sampleDataset(), "Grade Report")
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(first, []byte("%PDF-")))
	require.Equal(t, first, second)
}

func TestPDFWidthsShareRemainder(t *testing.T) {
	exp := &PDFExporter{ColumnWidths: map[string]float64{"#": 10}}
	widths := exp.widths([]string{"#", "A", "B"})
	require.Equal(t, []float64{10, 90, 90}, widths)
}
