package gvision

import (
	"strings"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"

	"gcvision-go/internal/core/models"
)

// The converters below tolerate partial responses: missing annotation lists
// become empty collections and nil nested objects degrade to zero values.

func labelsFromEntities(annotations []*visionpb.EntityAnnotation) []models.Label {
	labels := make([]models.Label, 0, len(annotations))
	for _, a := range annotations {
		if a == nil {
			continue
		}
		labels = append(labels, models.Label{
			Description: a.Description,
			Score:       a.Score,
		})
	}
	return labels
}

func textsFromEntities(annotations []*visionpb.EntityAnnotation) []models.TextBlock {
	texts := make([]models.TextBlock, 0, len(annotations))
	for _, a := range annotations {
		if a == nil {
			continue
		}
		texts = append(texts, models.TextBlock{
			Text:   strings.TrimSpace(a.Description),
			Locale: a.Locale,
		})
	}
	return texts
}

func facesFromAnnotations(annotations []*visionpb.FaceAnnotation) []models.Face {
	faces := make([]models.Face, 0, len(annotations))
	for _, a := range annotations {
		if a == nil {
			continue
		}
		faces = append(faces, models.Face{
			Box:      verticesFromPoly(a.BoundingPoly),
			Score:    a.DetectionConfidence,
			Joy:      a.JoyLikelihood.String(),
			Sorrow:   a.SorrowLikelihood.String(),
			Anger:    a.AngerLikelihood.String(),
			Surprise: a.SurpriseLikelihood.String(),
		})
	}
	return faces
}

func logosFromEntities(annotations []*visionpb.EntityAnnotation) []models.Logo {
	logos := make([]models.Logo, 0, len(annotations))
	for _, a := range annotations {
		if a == nil {
			continue
		}
		logos = append(logos, models.Logo{
			Description: a.Description,
			Score:       a.Score,
		})
	}
	return logos
}

func landmarksFromEntities(annotations []*visionpb.EntityAnnotation) []models.Landmark {
	landmarks := make([]models.Landmark, 0, len(annotations))
	for _, a := range annotations {
		if a == nil {
			continue
		}
		landmark := models.Landmark{
			Description: a.Description,
			Score:       a.Score,
		}
		// The service may return the landmark without a resolved location
		if len(a.Locations) > 0 && a.Locations[0] != nil && a.Locations[0].LatLng != nil {
			landmark.Latitude = a.Locations[0].LatLng.Latitude
			landmark.Longitude = a.Locations[0].LatLng.Longitude
		}
		landmarks = append(landmarks, landmark)
	}
	return landmarks
}

func webFromDetection(detection *visionpb.WebDetection) *models.WebReport {
	report := &models.WebReport{
		Entities:      []models.WebEntity{},
		BestGuesses:   []string{},
		MatchingPages: []string{},
	}
	if detection == nil {
		return report
	}

	for _, e := range detection.WebEntities {
		if e == nil || e.Description == "" {
			continue
		}
		report.Entities = append(report.Entities, models.WebEntity{
			Description: e.Description,
			Score:       e.Score,
		})
	}

	for _, l := range detection.BestGuessLabels {
		if l == nil || l.Label == "" {
			continue
		}
		report.BestGuesses = append(report.BestGuesses, l.Label)
	}

	for _, p := range detection.PagesWithMatchingImages {
		if p == nil || p.Url == "" {
			continue
		}
		report.MatchingPages = append(report.MatchingPages, p.Url)
	}

	return report
}

func verticesFromPoly(poly *visionpb.BoundingPoly) []models.Vertex {
	if poly == nil {
		return []models.Vertex{}
	}
	vertices := make([]models.Vertex, 0, len(poly.Vertices))
	for _, v := range poly.Vertices {
		if v == nil {
			continue
		}
		vertices = append(vertices, models.Vertex{X: v.X, Y: v.Y})
	}
	return vertices
}
