package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AvailabilityOverride is a per-property, per-date record that takes
// precedence over the property defaults for that single date. No row for a
// date means the date is available at the property's nightly price; a row
// with a null price only toggles availability.
type AvailabilityOverride struct {
	ID          uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	PropertyID  uuid.UUID           `gorm:"not null;uniqueIndex:idx_property_date" json:"property_id"`
	Date        time.Time           `gorm:"type:date;not null;uniqueIndex:idx_property_date" json:"date"`
	IsAvailable bool                `gorm:"not null;default:true" json:"is_available"`
	Price       decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"price"`
	Notes       *string             `gorm:"size:255" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
