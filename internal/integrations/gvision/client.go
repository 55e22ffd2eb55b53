package gvision

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"gcvision-go/config"
	"gcvision-go/internal/core/models"
)

// annotatorAPI is the subset of *vision.ImageAnnotatorClient this package
// uses. Tests substitute their own implementation.
type annotatorAPI interface {
	DetectLabels(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int, opts ...gax.CallOption) ([]*visionpb.EntityAnnotation, error)
	DetectTexts(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int, opts ...gax.CallOption) ([]*visionpb.EntityAnnotation, error)
	DetectFaces(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int, opts ...gax.CallOption) ([]*visionpb.FaceAnnotation, error)
	DetectLogos(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int, opts ...gax.CallOption) ([]*visionpb.EntityAnnotation, error)
	DetectLandmarks(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int, opts ...gax.CallOption) ([]*visionpb.EntityAnnotation, error)
	DetectWeb(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, opts ...gax.CallOption) (*visionpb.WebDetection, error)
	Close() error
}

// Client wraps the Vision image annotator for the detection features the
// application supports.
type Client struct {
	api     annotatorAPI
	timeout time.Duration
}

// NewClient creates a Vision API client. Credentials come from the
// configured service account file, or from application default credentials
// when none is configured.
func NewClient(ctx context.Context, cfg config.VisionConfig) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	api, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	log.Debug("Vision API client created")

	return &Client{
		api:     api,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.api.Close()
}

// callContext applies the configured per-call timeout.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// DetectLabels returns entity labels describing the image content.
func (c *Client) DetectLabels(ctx context.Context, img *visionpb.Image, maxResults int) ([]models.Label, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	annotations, err := c.api.DetectLabels(ctx, img, nil, maxResults)
	if err != nil {
		return nil, fmt.Errorf("label detection failed: %w", err)
	}
	return labelsFromEntities(annotations), nil
}

// DetectTexts returns text found in the image. The service does not honor
// maxResults for text detection; it is passed through regardless.
func (c *Client) DetectTexts(ctx context.Context, img *visionpb.Image, maxResults int) ([]models.TextBlock, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	annotations, err := c.api.DetectTexts(ctx, img, nil, maxResults)
	if err != nil {
		return nil, fmt.Errorf("text detection failed: %w", err)
	}
	return textsFromEntities(annotations), nil
}

// DetectFaces returns detected faces with bounding box and sentiment
// likelihoods.
func (c *Client) DetectFaces(ctx context.Context, img *visionpb.Image, maxResults int) ([]models.Face, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	annotations, err := c.api.DetectFaces(ctx, img, nil, maxResults)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}
	return facesFromAnnotations(annotations), nil
}

// DetectLogos returns detected brand logos.
func (c *Client) DetectLogos(ctx context.Context, img *visionpb.Image, maxResults int) ([]models.Logo, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	annotations, err := c.api.DetectLogos(ctx, img, nil, maxResults)
	if err != nil {
		return nil, fmt.Errorf("logo detection failed: %w", err)
	}
	return logosFromEntities(annotations), nil
}

// DetectLandmarks returns detected landmarks with their coordinates where
// available.
func (c *Client) DetectLandmarks(ctx context.Context, img *visionpb.Image, maxResults int) ([]models.Landmark, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	annotations, err := c.api.DetectLandmarks(ctx, img, nil, maxResults)
	if err != nil {
		return nil, fmt.Errorf("landmark detection failed: %w", err)
	}
	return landmarksFromEntities(annotations), nil
}

// DetectWeb returns web entities and related pages for the image. The
// service applies its own result limits for web detection.
func (c *Client) DetectWeb(ctx context.Context, img *visionpb.Image) (*models.WebReport, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	detection, err := c.api.DetectWeb(ctx, img, nil)
	if err != nil {
		return nil, fmt.Errorf("web detection failed: %w", err)
	}
	return webFromDetection(detection), nil
}
