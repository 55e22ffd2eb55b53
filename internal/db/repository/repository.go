package repository

import (
	"errors"
	"time"

	"gcvision-go/internal/core/models"

	"gorm.io/gorm"
)

// Repository defines the database operations for the annotation history.
type Repository interface {
	SaveAnnotation(annotation *models.Annotation) error
	GetAnnotationByID(id uint) (*models.Annotation, error)
	GetAnnotations(limit, offset int, source string) ([]models.Annotation, int64, error)
	DeleteAnnotation(id uint) error
	FindOlderThan(cutoff time.Time) ([]models.Annotation, error)
	GetStatistics() (models.Statistics, error)
}

// SQLiteRepository implements Repository on top of gorm.
type SQLiteRepository struct {
	db *gorm.DB
}

// NewSQLiteRepository creates a new repository instance.
func NewSQLiteRepository(db *gorm.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveAnnotation stores an annotation record.
func (r *SQLiteRepository) SaveAnnotation(annotation *models.Annotation) error {
	return r.db.Save(annotation).Error
}

// GetAnnotationByID fetches an annotation by ID. Returns nil without error
// when the record does not exist.
func (r *SQLiteRepository) GetAnnotationByID(id uint) (*models.Annotation, error) {
	var annotation models.Annotation
	result := r.db.First(&annotation, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &annotation, nil
}

// GetAnnotations fetches annotations with pagination, newest first,
// optionally filtered by source.
func (r *SQLiteRepository) GetAnnotations(limit, offset int, source string) ([]models.Annotation, int64, error) {
	var annotations []models.Annotation
	var total int64

	query := r.db.Model(&models.Annotation{})
	if source != "" {
		query = query.Where("source = ?", source)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&annotations)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return annotations, total, nil
}

// DeleteAnnotation removes an annotation record.
func (r *SQLiteRepository) DeleteAnnotation(id uint) error {
	return r.db.Delete(&models.Annotation{}, id).Error
}

// FindOlderThan returns all annotations created before the cutoff.
func (r *SQLiteRepository) FindOlderThan(cutoff time.Time) ([]models.Annotation, error) {
	var annotations []models.Annotation
	result := r.db.Where("created_at < ?", cutoff).Find(&annotations)
	if result.Error != nil {
		return nil, result.Error
	}
	return annotations, nil
}

// GetStatistics summarizes the stored history.
func (r *SQLiteRepository) GetStatistics() (models.Statistics, error) {
	var stats models.Statistics

	if err := r.db.Model(&models.Annotation{}).Count(&stats.TotalAnnotations).Error; err != nil {
		return stats, err
	}

	if err := r.db.Model(&models.Annotation{}).
		Select("COALESCE(SUM(result_count), 0)").
		Scan(&stats.TotalResults).Error; err != nil {
		return stats, err
	}

	var latest models.Annotation
	if err := r.db.Order("created_at DESC").First(&latest).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return stats, err
		}
	} else {
		stats.LatestAnnotation = latest.CreatedAt
	}

	if err := r.db.Order("created_at DESC").Limit(5).Find(&stats.Recent).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return stats, err
		}
	}

	return stats, nil
}
