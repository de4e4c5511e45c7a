// Package store persists reconciliation entities in Postgres through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"

	"github.com/tally-dev/tally/internal/model"
)

// ErrNotFound means no reconciliation exists for the given id.
var ErrNotFound = errors.New("reconciliation not found")

// Store wraps the database handle.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and returns a Store.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the reconciliations table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&model.Reconciliation{}).Error; err != nil {
		return fmt.Errorf("migrating reconciliations: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new reconciliation, defaulting its status to pending.
func (s *Store) Create(ctx context.Context, rec *model.Reconciliation) error {
	if rec.Status == "" {
		rec.Status = model.StatusPending
	}
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("creating reconciliation: %w", err)
	}
	return nil
}

// Get loads a reconciliation by id.
func (s *Store) Get(ctx context.Context, id uint) (*model.Reconciliation, error) {
	var rec model.Reconciliation
	if err := s.db.First(&rec, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading reconciliation %d: %w", id, err)
	}
	return &rec, nil
}

// List returns all reconciliations, most recent first.
func (s *Store) List(ctx context.Context) ([]model.Reconciliation, error) {
	var recs []model.Reconciliation
	if err := s.db.Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing reconciliations: %w", err)
	}
	return recs, nil
}

// PendingIDs returns ids of pending reconciliations, oldest first.
func (s *Store) PendingIDs(ctx context.Context) ([]uint, error) {
	var recs []model.Reconciliation
	if err := s.db.
		Select("id").
		Where("status = ?", model.StatusPending).
		Order("created_at asc").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("listing pending reconciliations: %w", err)
	}

	ids := make([]uint, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// MarkProcessing transitions pending -> processing with a conditional
// update, so at most one concurrent invocation per entity wins the claim.
func (s *Store) MarkProcessing(ctx context.Context, id uint) (bool, error) {
	res := s.db.
		Model(&model.Reconciliation{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Update("status", model.StatusProcessing)
	if res.Error != nil {
		return false, fmt.Errorf("claiming reconciliation %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Complete writes the terminal completed state: the four counts, the report
// payload, and the processed timestamp, in one update.
func (s *Store) Complete(ctx context.Context, id uint, counts model.Counts, report []byte, processedAt time.Time) error {
	res := s.db.
		Model(&model.Reconciliation{}).
		Where("id = ? AND status = ?", id, model.StatusProcessing).
		Updates(map[string]interface{}{
			"status":               model.StatusCompleted,
			"matched_count":        counts.Matched,
			"bank_only_count":      counts.BankOnly,
			"processor_only_count": counts.ProcessorOnly,
			"discrepancy_count":    counts.Discrepancies,
			"report":               string(report),
			"processed_at":         processedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("completing reconciliation %d: %w", id, res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("completing reconciliation %d: entity not in processing", id)
	}
	return nil
}

// Fail writes the terminal failed state: the error message and the
// processed timestamp. Counts are never set on a failed run.
func (s *Store) Fail(ctx context.Context, id uint, message string, processedAt time.Time) error {
	res := s.db.
		Model(&model.Reconciliation{}).
		Where("id = ? AND status = ?", id, model.StatusProcessing).
		Updates(map[string]interface{}{
			"status":        model.StatusFailed,
			"error_message": message,
			"processed_at":  processedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failing reconciliation %d: %w", id, res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("failing reconciliation %d: entity not in processing", id)
	}
	return nil
}
