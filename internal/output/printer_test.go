package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcvision-go/internal/core/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		Image: "test.jpg",
		Labels: []models.Label{
			{Description: "cat", Score: 0.98},
			{Description: "pet", Score: 0.87},
		},
		Faces: []models.Face{
			{
				Box:      []models.Vertex{{X: 10, Y: 20}, {X: 100, Y: 20}, {X: 100, Y: 120}, {X: 10, Y: 120}},
				Score:    0.97,
				Joy:      "VERY_LIKELY",
				Sorrow:   "VERY_UNLIKELY",
				Anger:    "VERY_UNLIKELY",
				Surprise: "UNLIKELY",
			},
		},
		Web: &models.WebReport{
			Entities:      []models.WebEntity{{Description: "Cat", Score: 1.2}},
			BestGuesses:   []string{"cat picture"},
			MatchingPages: []string{"https://example.com/cats"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, format)

	format, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	_, err = ParseFormat("xml")
	require.Error(t, err)
}

func TestPrintText(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatText)

	require.NoError(t, printer.Print(sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "-------- labels ---")
	assert.Contains(t, out, "Number of labels: 2")
	assert.Contains(t, out, "1) cat (score: 0.98)")
	assert.Contains(t, out, "Number of faces: 1")
	assert.Contains(t, out, "joy: VERY_LIKELY")
	assert.Contains(t, out, "box: (10,20) (100,20) (100,120) (10,120)")
	assert.Contains(t, out, "Number of web entities: 1")
	assert.Contains(t, out, "Best guess: cat picture")
	assert.Contains(t, out, "  - https://example.com/cats")

	// sections that were not requested are omitted
	assert.NotContains(t, out, "logos")
	assert.NotContains(t, out, "landmarks")
}

func TestPrintTextEmptySection(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatText)

	// requested but empty: the section still prints with a zero count
	require.NoError(t, printer.Print(&models.Report{
		Image: "empty.jpg",
		Logos: []models.Logo{},
	}))

	assert.Contains(t, buf.String(), "Number of logos: 0")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatJSON)

	require.NoError(t, printer.Print(sampleReport()))

	var decoded models.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "test.jpg", decoded.Image)
	require.Len(t, decoded.Labels, 2)
	assert.Equal(t, "cat", decoded.Labels[0].Description)
	require.NotNil(t, decoded.Web)
	assert.Equal(t, []string{"cat picture"}, decoded.Web.BestGuesses)
}
