package cleanup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gcvision-go/internal/core/models"
	"gcvision-go/internal/db"
	"gcvision-go/internal/db/repository"
)

func newTestStore(t *testing.T) (*gorm.DB, repository.Repository) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return database, repository.NewSQLiteRepository(database)
}

func agedAnnotation(t *testing.T, database *gorm.DB, repo repository.Repository, image string, ageDays int, storedPath string) *models.Annotation {
	t.Helper()
	annotation := &models.Annotation{
		ImagePath:  image,
		StoredPath: storedPath,
		Source:     "api",
		Modes:      "labels",
	}
	require.NoError(t, repo.SaveAnnotation(annotation))
	if ageDays > 0 {
		aged := time.Now().AddDate(0, 0, -ageDays)
		require.NoError(t, database.Model(annotation).Update("created_at", aged).Error)
	}
	return annotation
}

func TestNewServiceDisabled(t *testing.T) {
	_, repo := newTestStore(t)

	assert.Nil(t, NewService(repo, 0, time.Hour))
	assert.Nil(t, NewService(nil, 7, time.Hour))
}

func TestRunCleanupCycle(t *testing.T) {
	database, repo := newTestStore(t)

	agedAnnotation(t, database, repo, "old.jpg", 10, "")
	agedAnnotation(t, database, repo, "older.jpg", 30, "")
	fresh := agedAnnotation(t, database, repo, "fresh.jpg", 0, "")

	service := NewService(repo, 7, time.Hour)
	require.NotNil(t, service)

	deleted := service.RunCleanupCycle()
	assert.Equal(t, 2, deleted)

	remaining, total, err := repo.GetAnnotations(10, 0, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}

func TestRunCleanupCycleRemovesStoredFiles(t *testing.T) {
	database, repo := newTestStore(t)

	storedPath := filepath.Join(t.TempDir(), "upload.jpg")
	require.NoError(t, os.WriteFile(storedPath, []byte("x"), 0644))

	agedAnnotation(t, database, repo, "old.jpg", 10, storedPath)

	service := NewService(repo, 7, time.Hour)
	deleted := service.RunCleanupCycle()
	assert.Equal(t, 1, deleted)

	_, err := os.Stat(storedPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRunCleanupCycleNothingToDo(t *testing.T) {
	database, repo := newTestStore(t)
	agedAnnotation(t, database, repo, "fresh.jpg", 0, "")

	service := NewService(repo, 7, time.Hour)
	assert.Equal(t, 0, service.RunCleanupCycle())
}

func TestStopBackgroundCleanupIsIdempotent(t *testing.T) {
	_, repo := newTestStore(t)

	service := NewService(repo, 7, time.Hour)
	service.StartBackgroundCleanup()
	service.StopBackgroundCleanup()
	service.StopBackgroundCleanup() // must not panic

	var nilService *Service
	nilService.StartBackgroundCleanup() // nil service is a no-op
	nilService.StopBackgroundCleanup()
}
