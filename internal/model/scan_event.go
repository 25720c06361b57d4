package model

import (
	"time"

	"github.com/google/uuid"
)

// ScanEvent is one entry in a user's scan journal. Events are append-only and
// only ever written after the product for the barcode exists.
type ScanEvent struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id" validate:"uuid_required"`
	Barcode   string    `gorm:"type:varchar(64);not null;index" json:"barcode" validate:"required"`
	ScannedAt time.Time `gorm:"not null" json:"scanned_at"`

	Product *Product `gorm:"foreignKey:Barcode;references:Barcode" json:"product,omitempty" validate:"-"`
}
