package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gcvision-go/config"
	"gcvision-go/internal/core/models"
	"gcvision-go/internal/core/processor"
	"gcvision-go/internal/db/repository"
	"gcvision-go/internal/integrations/mqtt"
	"gcvision-go/internal/utils"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// APIHandler handles the JSON API of the serve mode.
type APIHandler struct {
	cfg       *config.Config
	repo      repository.Repository
	pool      *processor.WorkerPool
	publisher *mqtt.Publisher
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(cfg *config.Config, repo repository.Repository, pool *processor.WorkerPool, publisher *mqtt.Publisher) *APIHandler {
	return &APIHandler{
		cfg:       cfg,
		repo:      repo,
		pool:      pool,
		publisher: publisher,
	}
}

// RegisterRoutes registers all API routes.
func (h *APIHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/annotate", h.Annotate)

	router.GET("/annotations", h.ListAnnotations)
	router.GET("/annotations/:id", h.GetAnnotation)
	router.DELETE("/annotations/:id", h.DeleteAnnotation)

	router.GET("/status", h.GetStatus)
}

// Annotate accepts a multipart image upload and runs it through the
// annotation pool.
func (h *APIHandler) Annotate(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded or invalid form data"})
		return
	}
	defer file.Close()

	mode := models.ModeLabels
	if modeParam := c.PostForm("mode"); modeParam != "" {
		mode, err = models.ParseMode(modeParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	maxResults := 0
	if maxParam := c.PostForm("max_results"); maxParam != "" {
		maxResults, err = strconv.Atoi(maxParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_results must be an integer"})
			return
		}
	}
	if maxResults <= 0 {
		maxResults = h.cfg.Vision.MaxResults
	}

	// Keep a copy of the upload so history entries stay inspectable
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s", timestamp, filepath.Base(header.Filename))
	storedPath := filepath.Join(h.cfg.Server.UploadDir, filename)

	if err := os.MkdirAll(filepath.Dir(storedPath), 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to create upload directory: %v", err)})
		return
	}

	outFile, err := os.Create(storedPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to create file: %v", err)})
		return
	}

	hash := sha256.New()
	if _, err = io.Copy(io.MultiWriter(outFile, hash), file); err != nil {
		outFile.Close()
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to save file: %v", err)})
		return
	}
	outFile.Close()

	ctx := c.Request.Context()
	report, err := h.pool.AnnotateImage(ctx, storedPath, mode, maxResults)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Annotation failed: %v", err)})
		return
	}
	report.Image = header.Filename

	annotation, err := h.saveAnnotation(report, header.Filename, storedPath, hex.EncodeToString(hash.Sum(nil)), mode)
	if err != nil {
		log.Errorf("Failed to save annotation record: %v", err)
	}

	if err := h.publisher.PublishReport(report); err != nil {
		log.Warnf("Failed to publish report for %s: %v", header.Filename, err)
	}

	response := gin.H{
		"message": "Image annotated successfully",
		"report":  report,
	}
	if annotation != nil {
		response["annotation_id"] = annotation.ID
	}

	c.JSON(http.StatusOK, response)
}

func (h *APIHandler) saveAnnotation(report *models.Report, imagePath, storedPath, contentHash string, mode models.Mode) (*models.Annotation, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	annotation := &models.Annotation{
		ImagePath:   imagePath,
		StoredPath:  storedPath,
		ContentHash: contentHash,
		Source:      "api",
		Modes:       models.JoinModes(mode.Features()),
		ResultCount: report.ResultCount(),
		DurationMs:  report.DurationMs,
		Report:      raw,
	}
	if err := h.repo.SaveAnnotation(annotation); err != nil {
		return nil, err
	}
	return annotation, nil
}

// ListAnnotations returns a paginated slice of the annotation history.
func (h *APIHandler) ListAnnotations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	source := c.Query("source")

	annotations, total, err := h.repo.GetAnnotations(pageSize, offset, source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to list annotations: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"annotations": annotations,
		"total":       total,
		"page":        page,
		"pageSize":    pageSize,
	})
}

// GetAnnotation returns one annotation record.
func (h *APIHandler) GetAnnotation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid annotation ID"})
		return
	}

	annotation, err := h.repo.GetAnnotationByID(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to load annotation: %v", err)})
		return
	}
	if annotation == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Annotation not found"})
		return
	}

	c.JSON(http.StatusOK, annotation)
}

// DeleteAnnotation removes one annotation record and its stored upload.
func (h *APIHandler) DeleteAnnotation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid annotation ID"})
		return
	}

	annotation, err := h.repo.GetAnnotationByID(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to load annotation: %v", err)})
		return
	}
	if annotation == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Annotation not found"})
		return
	}

	if err := h.repo.DeleteAnnotation(annotation.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to delete annotation: %v", err)})
		return
	}

	if annotation.StoredPath != "" {
		if err := os.Remove(annotation.StoredPath); err != nil && !os.IsNotExist(err) {
			log.Warnf("Failed to delete stored file '%s': %v", annotation.StoredPath, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Annotation deleted"})
}

// GetStatus returns system statistics and history totals.
func (h *APIHandler) GetStatus(c *gin.Context) {
	stats, err := h.repo.GetStatistics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to load statistics: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"system":  utils.GetSystemStats(h.pool),
		"history": stats,
	})
}
