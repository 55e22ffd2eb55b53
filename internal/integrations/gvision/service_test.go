package gvision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gcvision-go/config"
	"gcvision-go/internal/core/models"
)

// fakeAnnotator implements annotatorAPI for tests.
type fakeAnnotator struct {
	labels    []*visionpb.EntityAnnotation
	texts     []*visionpb.EntityAnnotation
	faces     []*visionpb.FaceAnnotation
	logos     []*visionpb.EntityAnnotation
	landmarks []*visionpb.EntityAnnotation
	web       *visionpb.WebDetection
	err       error

	lastMaxResults int
	calls          []string
}

func (f *fakeAnnotator) DetectLabels(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int, opts ...gax.CallOption) ([]*visionpb.EntityAnnotation, error) {
	f.calls = append(f.calls, "labels")
	f.lastMaxResults = maxResults
	return f.labels, f.err
}

func (f *fakeAnnotator) DetectTexts(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int, opts ...gax.CallOption) ([]*visionpb.EntityAnnotation, error) {
	f.calls = append(f.calls, "text")
	f.lastMaxResults = maxResults
	return f.texts, f.err
}

func (f *fakeAnnotator) DetectFaces(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int, opts ...gax.CallOption) ([]*visionpb.FaceAnnotation, error) {
	f.calls = append(f.calls, "faces")
	f.lastMaxResults = maxResults
	return f.faces, f.err
}

func (f *fakeAnnotator) DetectLogos(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int, opts ...gax.CallOption) ([]*visionpb.EntityAnnotation, error) {
	f.calls = append(f.calls, "logos")
	f.lastMaxResults = maxResults
	return f.logos, f.err
}

func (f *fakeAnnotator) DetectLandmarks(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int, opts ...gax.CallOption) ([]*visionpb.EntityAnnotation, error) {
	f.calls = append(f.calls, "landmarks")
	f.lastMaxResults = maxResults
	return f.landmarks, f.err
}

func (f *fakeAnnotator) DetectWeb(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, opts ...gax.CallOption) (*visionpb.WebDetection, error) {
	f.calls = append(f.calls, "web")
	return f.web, f.err
}

func (f *fakeAnnotator) Close() error { return nil }

func newTestService(fake *fakeAnnotator) *Service {
	client := &Client{api: fake, timeout: time.Second}
	return NewService(client, config.VisionConfig{TimeoutSeconds: 1, MaxResults: 5})
}

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0644))
	return path
}

func TestAnnotateFileLabels(t *testing.T) {
	fake := &fakeAnnotator{
		labels: []*visionpb.EntityAnnotation{
			{Description: "cat", Score: 0.98},
		},
	}
	service := newTestService(fake)

	report, err := service.AnnotateFile(context.Background(), writeTestImage(t), models.ModeLabels, 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"labels"}, fake.calls)
	assert.Equal(t, 3, fake.lastMaxResults)
	require.Len(t, report.Labels, 1)
	assert.Equal(t, "cat", report.Labels[0].Description)
	assert.Nil(t, report.Faces, "unrequested sections stay nil")
	assert.False(t, report.AnnotatedAt.IsZero())
}

func TestAnnotateFileMissingFile(t *testing.T) {
	service := newTestService(&fakeAnnotator{})

	_, err := service.AnnotateFile(context.Background(), "/nonexistent/image.jpg", models.ModeLabels, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read image file")
}

func TestAnnotateBytesAllRunsEveryFeatureInOrder(t *testing.T) {
	fake := &fakeAnnotator{web: &visionpb.WebDetection{}}
	service := newTestService(fake)

	report, err := service.AnnotateBytes(context.Background(), []byte("img"), "img.jpg", models.ModeAll, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"labels", "text", "faces", "logos", "landmarks", "web"}, fake.calls)

	// every requested section present, even when empty
	assert.NotNil(t, report.Labels)
	assert.NotNil(t, report.Texts)
	assert.NotNil(t, report.Faces)
	assert.NotNil(t, report.Logos)
	assert.NotNil(t, report.Landmarks)
	assert.NotNil(t, report.Web)
	assert.Equal(t, 0, report.ResultCount())
}

func TestAnnotateBytesDefaultMaxResults(t *testing.T) {
	fake := &fakeAnnotator{}
	service := newTestService(fake)

	_, err := service.AnnotateBytes(context.Background(), []byte("img"), "img.jpg", models.ModeLabels, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, fake.lastMaxResults, "non-positive max results falls back to the configured default")
}

func TestAnnotateBytesPropagatesAPIError(t *testing.T) {
	fake := &fakeAnnotator{err: errors.New("quota exceeded")}
	service := newTestService(fake)

	_, err := service.AnnotateBytes(context.Background(), []byte("img"), "img.jpg", models.ModeFaces, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "face detection failed")
	assert.Contains(t, err.Error(), "quota exceeded")
}
