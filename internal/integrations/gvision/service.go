package gvision

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	log "github.com/sirupsen/logrus"

	"gcvision-go/config"
	"gcvision-go/internal/core/models"
)

// Service runs annotation requests against the Vision client and assembles
// the per-image report.
type Service struct {
	client            *Client
	defaultMaxResults int
}

// NewService creates a new annotation service.
func NewService(client *Client, cfg config.VisionConfig) *Service {
	return &Service{
		client:            client,
		defaultMaxResults: cfg.MaxResults,
	}
}

// AnnotateFile reads an image file and annotates it with the requested mode.
func (s *Service) AnnotateFile(ctx context.Context, path string, mode models.Mode, maxResults int) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return s.AnnotateBytes(ctx, data, path, mode, maxResults)
}

// AnnotateBytes annotates in-memory image data. The name is only used for
// the report and for logging.
func (s *Service) AnnotateBytes(ctx context.Context, data []byte, name string, mode models.Mode, maxResults int) (*models.Report, error) {
	if maxResults <= 0 {
		maxResults = s.defaultMaxResults
	}

	img, err := vision.NewImageFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build image payload: %w", err)
	}

	report := &models.Report{Image: name}
	start := time.Now()

	for _, feature := range mode.Features() {
		log.Debugf("Requesting %s detection for %s (max results: %d)", feature, name, maxResults)

		switch feature {
		case models.ModeLabels:
			report.Labels, err = s.client.DetectLabels(ctx, img, maxResults)
		case models.ModeText:
			report.Texts, err = s.client.DetectTexts(ctx, img, maxResults)
		case models.ModeFaces:
			report.Faces, err = s.client.DetectFaces(ctx, img, maxResults)
		case models.ModeLogos:
			report.Logos, err = s.client.DetectLogos(ctx, img, maxResults)
		case models.ModeLandmarks:
			report.Landmarks, err = s.client.DetectLandmarks(ctx, img, maxResults)
		case models.ModeWeb:
			report.Web, err = s.client.DetectWeb(ctx, img)
		default:
			err = fmt.Errorf("unsupported mode %q", feature)
		}
		if err != nil {
			return nil, err
		}
	}

	report.AnnotatedAt = time.Now()
	report.DurationMs = time.Since(start).Milliseconds()

	log.Infof("Annotated %s: %d result(s) in %dms", name, report.ResultCount(), report.DurationMs)

	return report, nil
}
