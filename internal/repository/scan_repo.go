package repository

import (
	"go-gluten-scan/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScanJournal is the append-only log of scan events. Records are immutable
// once written.
type ScanJournal interface {
	Record(event *model.ScanEvent) error
	FindByUser(userID uuid.UUID, limit int) ([]model.ScanEvent, error)
}

type scanRepo struct {
	db *gorm.DB
}

func NewScanRepo(db *gorm.DB) ScanJournal {
	return &scanRepo{db}
}

func (r *scanRepo) Record(event *model.ScanEvent) error {
	return r.db.Create(event).Error
}

func (r *scanRepo) FindByUser(userID uuid.UUID, limit int) ([]model.ScanEvent, error) {
	var events []model.ScanEvent
	err := r.db.Preload("Product").
		Where("user_id = ?", userID).
		Order("scanned_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
