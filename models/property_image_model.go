package models

import (
	"time"

	"github.com/google/uuid"
)

type PropertyImage struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PropertyID uuid.UUID `gorm:"not null" json:"property_id"`
	URL        string    `gorm:"size:512;not null" json:"url"`
	PublicID   string    `gorm:"size:255" json:"public_id"`
	Position   int       `gorm:"default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
}
