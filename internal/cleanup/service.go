package cleanup

import (
	"errors"
	"os"
	"time"

	"gcvision-go/internal/core/models"
	"gcvision-go/internal/db/repository"

	log "github.com/sirupsen/logrus"
)

// Service handles the automatic cleanup of old annotation history.
type Service struct {
	repo          repository.Repository
	retentionDays int
	checkInterval time.Duration
	stopChan      chan struct{}
}

// NewService creates a new cleanup service. Returns nil when cleanup is
// disabled via retention_days <= 0.
func NewService(repo repository.Repository, retentionDays int, checkInterval time.Duration) *Service {
	if retentionDays <= 0 {
		log.Info("Automatic cleanup disabled (retention_days <= 0).")
		return nil
	}
	if repo == nil {
		log.Error("Cannot initialize cleanup service: repository is nil")
		return nil
	}
	log.Infof("Initializing cleanup service: RetentionDays=%d, CheckInterval=%s", retentionDays, checkInterval)
	return &Service{
		repo:          repo,
		retentionDays: retentionDays,
		checkInterval: checkInterval,
		stopChan:      make(chan struct{}),
	}
}

// StartBackgroundCleanup starts a goroutine that periodically runs the
// cleanup cycle.
func (s *Service) StartBackgroundCleanup() {
	if s == nil {
		return
	}
	log.Info("Starting background cleanup routine...")

	go func() {
		s.RunCleanupCycle()
	}()

	ticker := time.NewTicker(s.checkInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunCleanupCycle()
			case <-s.stopChan:
				log.Info("Stopping background cleanup routine.")
				return
			}
		}
	}()
}

// StopBackgroundCleanup signals the background cleanup routine to stop.
func (s *Service) StopBackgroundCleanup() {
	if s == nil || s.stopChan == nil {
		return
	}
	select {
	case <-s.stopChan:
		// already closed
	default:
		close(s.stopChan)
	}
}

// RunCleanupCycle deletes annotations older than the retention period and
// returns the number of deleted records.
func (s *Service) RunCleanupCycle() int {
	if s == nil || s.retentionDays <= 0 {
		return 0
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	log.Debugf("Cleanup: deleting annotations older than %s", cutoff.Format(time.RFC3339))

	old, err := s.repo.FindOlderThan(cutoff)
	if err != nil {
		log.Errorf("Cleanup: error finding old annotations: %v", err)
		return 0
	}
	if len(old) == 0 {
		log.Debug("Cleanup: no old annotations found.")
		return 0
	}

	deleted := 0
	failed := 0
	for _, annotation := range old {
		if err := s.deleteAnnotation(annotation); err != nil {
			log.Errorf("Cleanup: failed to delete annotation ID %d: %v", annotation.ID, err)
			failed++
		} else {
			deleted++
		}
	}

	log.Infof("Cleanup cycle finished. Deleted: %d, Failed: %d", deleted, failed)
	return deleted
}

// deleteAnnotation removes a single record and, where the API kept a copy
// of the uploaded file, the stored file as well.
func (s *Service) deleteAnnotation(annotation models.Annotation) error {
	if err := s.repo.DeleteAnnotation(annotation.ID); err != nil {
		return err
	}

	if annotation.StoredPath != "" {
		if err := os.Remove(annotation.StoredPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			// DB record is gone; a leftover file is only worth a warning
			log.Warnf("Cleanup: failed to delete stored file '%s' for annotation ID %d: %v",
				annotation.StoredPath, annotation.ID, err)
		}
	}

	return nil
}
