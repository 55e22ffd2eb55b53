package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Mode identifies one detection feature of the annotation service.
type Mode string

const (
	ModeLabels    Mode = "labels"
	ModeText      Mode = "text"
	ModeFaces     Mode = "faces"
	ModeLogos     Mode = "logos"
	ModeLandmarks Mode = "landmarks"
	ModeWeb       Mode = "web"
	ModeAll       Mode = "all"
)

// allModes is the fixed feature order used by ModeAll.
var allModes = []Mode{ModeLabels, ModeText, ModeFaces, ModeLogos, ModeLandmarks, ModeWeb}

// ParseMode validates a user-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeLabels, ModeText, ModeFaces, ModeLogos, ModeLandmarks, ModeWeb, ModeAll:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (expected one of: labels, text, faces, logos, landmarks, web, all)", s)
	}
}

// Features expands a mode into the list of features to request.
func (m Mode) Features() []Mode {
	if m == ModeAll {
		features := make([]Mode, len(allModes))
		copy(features, allModes)
		return features
	}
	return []Mode{m}
}

// Label is one entity label returned for an image.
type Label struct {
	Description string  `json:"description"`
	Score       float32 `json:"score"`
}

// TextBlock is one piece of text found in an image.
type TextBlock struct {
	Text   string `json:"text"`
	Locale string `json:"locale,omitempty"`
}

// Vertex is one corner of a bounding box in pixel coordinates.
type Vertex struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Face describes one detected face with its sentiment likelihoods.
type Face struct {
	Box      []Vertex `json:"box"`
	Score    float32  `json:"score"`
	Joy      string   `json:"joy"`
	Sorrow   string   `json:"sorrow"`
	Anger    string   `json:"anger"`
	Surprise string   `json:"surprise"`
}

// Logo is one detected brand logo.
type Logo struct {
	Description string  `json:"description"`
	Score       float32 `json:"score"`
}

// Landmark is one detected landmark, with coordinates when the service
// returns a location for it.
type Landmark struct {
	Description string  `json:"description"`
	Score       float32 `json:"score"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
}

// WebEntity is one web entity inferred from similar images on the web.
type WebEntity struct {
	Description string  `json:"description"`
	Score       float32 `json:"score"`
}

// WebReport groups the results of web detection.
type WebReport struct {
	Entities      []WebEntity `json:"entities"`
	BestGuesses   []string    `json:"best_guesses"`
	MatchingPages []string    `json:"matching_pages"`
}

// Report is the combined result of one annotation run for one image.
// Sections are nil when their feature was not requested and empty when the
// service returned nothing for it.
type Report struct {
	Image       string      `json:"image"`
	Labels      []Label     `json:"labels,omitempty"`
	Texts       []TextBlock `json:"texts,omitempty"`
	Faces       []Face      `json:"faces,omitempty"`
	Logos       []Logo      `json:"logos,omitempty"`
	Landmarks   []Landmark  `json:"landmarks,omitempty"`
	Web         *WebReport  `json:"web,omitempty"`
	AnnotatedAt time.Time   `json:"annotated_at"`
	DurationMs  int64       `json:"duration_ms"`
}

// ResultCount returns the total number of results across all sections.
func (r *Report) ResultCount() int {
	count := len(r.Labels) + len(r.Texts) + len(r.Faces) + len(r.Logos) + len(r.Landmarks)
	if r.Web != nil {
		count += len(r.Web.Entities)
	}
	return count
}

// Annotation is one recorded annotation run in the history database.
type Annotation struct {
	gorm.Model
	ImagePath   string         `gorm:"index;not null" json:"image_path"`
	StoredPath  string         `json:"stored_path,omitempty"` // copy kept by the API upload handler, if any
	ContentHash string         `gorm:"index" json:"content_hash"`
	Source      string         `gorm:"index" json:"source"` // cli, batch or api
	Modes       string         `gorm:"index" json:"modes"`  // comma-joined requested modes
	ResultCount int            `json:"result_count"`
	DurationMs  int64          `json:"duration_ms"`
	Report      datatypes.JSON `gorm:"type:json" json:"report"`
}

// Statistics summarizes the annotation history.
type Statistics struct {
	TotalAnnotations int64        `json:"total_annotations"`
	TotalResults     int64        `json:"total_results"`
	LatestAnnotation time.Time    `json:"latest_annotation"`
	Recent           []Annotation `json:"recent,omitempty"`
}

// JoinModes renders a mode list the way it is stored on an Annotation.
func JoinModes(modes []Mode) string {
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = string(m)
	}
	return strings.Join(parts, ",")
}
