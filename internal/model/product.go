package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StatusLabel is the gluten verdict stored on a product.
type StatusLabel string

const (
	StatusGlutenFree     StatusLabel = "GLUTEN_FREE"
	StatusContainsGluten StatusLabel = "CONTAINS_GLUTEN"
	StatusUnknown        StatusLabel = "UNKNOWN"
)

// ParseStatusLabel maps free-form classifier output onto a known label,
// falling back to UNKNOWN.
func ParseStatusLabel(s string) StatusLabel {
	switch StatusLabel(s) {
	case StatusGlutenFree, StatusContainsGluten:
		return StatusLabel(s)
	default:
		return StatusUnknown
	}
}

// ProductSource records which resolution path created the record.
type ProductSource string

const (
	SourceExternalCatalog ProductSource = "EXTERNAL_CATALOG"
	SourceCommunity       ProductSource = "COMMUNITY"
)

// IngredientList is an ordered list of ingredient names, persisted as a JSON
// array column.
type IngredientList []string

func (l IngredientList) Value() (driver.Value, error) {
	if l == nil {
		l = IngredientList{}
	}
	return json.Marshal(l)
}

func (l *IngredientList) Scan(value interface{}) error {
	if value == nil {
		*l = IngredientList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for IngredientList")
	}
}

// Product is the catalog record for one barcode. The barcode is the identity
// key and never changes; the status fields are the only mutable part and only
// the staleness classifier writes them after creation.
type Product struct {
	BaseModel
	Barcode     string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"barcode" validate:"required"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Ingredients IngredientList `gorm:"type:jsonb" json:"ingredients"`
	PictureURL  string         `gorm:"type:text" json:"picture_url,omitempty"`
	Source      ProductSource  `gorm:"type:varchar(32);not null" json:"source"`

	StatusLabel       StatusLabel `gorm:"type:varchar(20);not null;default:'UNKNOWN'" json:"status_label"`
	StatusExplanation string      `gorm:"type:text" json:"status_explanation"`
	LastEvaluatedAt   time.Time   `gorm:"not null" json:"last_evaluated_at"`
}

// IsStale reports whether the product's classification is older than the
// freshness window at the given instant.
func (p *Product) IsStale(window time.Duration, now time.Time) bool {
	return now.Sub(p.LastEvaluatedAt) >= window
}
