package database

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/glimpse/glimpse/internal/models"
)

// ErrNotFound is returned when a record does not exist or has been
// soft-deleted.
var ErrNotFound = errors.New("capture record not found")

// ErrDuplicateID is returned when an insert collides with an existing
// record id.
var ErrDuplicateID = errors.New("duplicate capture record id")

// Repository handles all database operations for capture records.
// Soft-deleted rows are retained for audit but excluded from every read
// path.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a new capture record. The caller must have written the
// backing image file first; a committed record never references a file
// that was not yet on disk.
func (r *Repository) Insert(record *models.CaptureRecord) error {
	result := r.db.Create(record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateID
		}
		return errors.Wrap(result.Error, "failed to insert capture record")
	}
	return nil
}

// ListRecent returns non-deleted records newest first, capped at limit.
func (r *Repository) ListRecent(limit int) ([]models.CaptureRecord, error) {
	var records []models.CaptureRecord
	result := r.db.
		Where("deleted = ?", false).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to list capture records")
	}

	return records, nil
}

// GetByID retrieves a capture record by its id. Soft-deleted records are
// reported as not found.
func (r *Repository) GetByID(id string) (*models.CaptureRecord, error) {
	var record models.CaptureRecord
	result := r.db.Where("id = ? AND deleted = ?", id, false).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(result.Error, "failed to get capture record")
	}
	return &record, nil
}

// Search returns non-deleted records whose title or app name contains the
// query substring, case-insensitively, newest first.
func (r *Repository) Search(query string, limit int) ([]models.CaptureRecord, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var records []models.CaptureRecord
	result := r.db.
		Where("deleted = ? AND (LOWER(window_title) LIKE ? OR LOWER(app_name) LIKE ?)",
			false, pattern, pattern).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to search capture records")
	}

	return records, nil
}

// DeleteRecent soft-deletes every non-deleted record captured within the
// last age window, removing each backing image file first. File removal
// is best-effort: a file that cannot be removed does not keep its record
// visible, since stale metadata is worse than an invisible orphan file.
// Returns the number of records processed.
func (r *Repository) DeleteRecent(age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)

	var victims []models.CaptureRecord
	result := r.db.
		Select("id", "image_path").
		Where("deleted = ? AND timestamp >= ?", false, cutoff).
		Find(&victims)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to find records to erase")
	}

	var deleted int64
	for _, record := range victims {
		if err := os.Remove(record.ImagePath); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove image %s: %v", record.ImagePath, err)
		}

		update := r.db.Model(&models.CaptureRecord{}).
			Where("id = ?", record.ID).
			Update("deleted", true)
		if update.Error != nil {
			return deleted, errors.Wrapf(update.Error, "failed to mark record %s deleted", record.ID)
		}
		deleted++
	}

	return deleted, nil
}

// CountActive returns the number of non-deleted records.
func (r *Repository) CountActive() (int64, error) {
	var count int64
	result := r.db.Model(&models.CaptureRecord{}).Where("deleted = ?", false).Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count capture records")
	}
	return count, nil
}

// Latest returns the most recent non-deleted record, or nil when the
// store is empty.
func (r *Repository) Latest() (*models.CaptureRecord, error) {
	var record models.CaptureRecord
	result := r.db.Where("deleted = ?", false).Order("timestamp DESC").First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest record")
	}
	return &record, nil
}
