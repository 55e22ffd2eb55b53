package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gcvision-go/internal/core/models"
)

// Format selects the console output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text or json)", s)
	}
}

// Printer writes annotation reports to a writer.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a printer for the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Print writes one report. Sections that were not requested are omitted;
// requested sections with no results still print with a zero count.
func (p *Printer) Print(report *models.Report) error {
	if p.format == FormatJSON {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.Labels != nil {
		p.section("labels")
		fmt.Fprintf(p.w, "Number of labels: %d\n", len(report.Labels))
		for i, label := range report.Labels {
			fmt.Fprintf(p.w, "%d) %s (score: %.2f)\n", i+1, label.Description, label.Score)
		}
	}

	if report.Texts != nil {
		p.section("text")
		fmt.Fprintf(p.w, "Number of text items: %d\n", len(report.Texts))
		for i, text := range report.Texts {
			fmt.Fprintf(p.w, "%d) %s\n", i+1, text.Text)
		}
	}

	if report.Faces != nil {
		p.section("faces")
		fmt.Fprintf(p.w, "Number of faces: %d\n", len(report.Faces))
		for i, face := range report.Faces {
			fmt.Fprintf(p.w, "\nface %d:\n", i+1)
			fmt.Fprintf(p.w, "  score: %.2f\n", face.Score)
			fmt.Fprintf(p.w, "  joy: %s\n", face.Joy)
			fmt.Fprintf(p.w, "  sorrow: %s\n", face.Sorrow)
			fmt.Fprintf(p.w, "  anger: %s\n", face.Anger)
			fmt.Fprintf(p.w, "  surprise: %s\n", face.Surprise)
			fmt.Fprint(p.w, "  box:")
			for _, v := range face.Box {
				fmt.Fprintf(p.w, " (%d,%d)", v.X, v.Y)
			}
			fmt.Fprintln(p.w)
		}
	}

	if report.Logos != nil {
		p.section("logos")
		fmt.Fprintf(p.w, "Number of logos: %d\n", len(report.Logos))
		for i, logo := range report.Logos {
			fmt.Fprintf(p.w, "%d) %s (score: %.2f)\n", i+1, logo.Description, logo.Score)
		}
	}

	if report.Landmarks != nil {
		p.section("landmarks")
		fmt.Fprintf(p.w, "Number of landmarks: %d\n", len(report.Landmarks))
		for i, landmark := range report.Landmarks {
			if landmark.Latitude != 0 || landmark.Longitude != 0 {
				fmt.Fprintf(p.w, "%d) %s (score: %.2f, lat: %.4f, lng: %.4f)\n",
					i+1, landmark.Description, landmark.Score, landmark.Latitude, landmark.Longitude)
			} else {
				fmt.Fprintf(p.w, "%d) %s (score: %.2f)\n", i+1, landmark.Description, landmark.Score)
			}
		}
	}

	if report.Web != nil {
		p.section("web")
		fmt.Fprintf(p.w, "Number of web entities: %d\n", len(report.Web.Entities))
		for i, entity := range report.Web.Entities {
			fmt.Fprintf(p.w, "%d) %s (score: %.2f)\n", i+1, entity.Description, entity.Score)
		}
		for _, guess := range report.Web.BestGuesses {
			fmt.Fprintf(p.w, "Best guess: %s\n", guess)
		}
		if len(report.Web.MatchingPages) > 0 {
			fmt.Fprintln(p.w, "Matching pages:")
			for _, page := range report.Web.MatchingPages {
				fmt.Fprintf(p.w, "  - %s\n", page)
			}
		}
	}

	return nil
}

func (p *Printer) section(name string) {
	fmt.Fprintf(p.w, "\n-------- %s -----------------\n", name)
}
