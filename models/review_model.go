package models

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BookingID  uuid.UUID `gorm:"not null;unique" json:"booking_id"`
	PropertyID uuid.UUID `gorm:"not null;index" json:"property_id"`
	GuestID    uuid.UUID `gorm:"not null" json:"guest_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment"`

	Booking  Booking  `gorm:"foreignkey:BookingID" json:"-"`
	Property Property `gorm:"foreignkey:PropertyID" json:"-"`
	Guest    User     `gorm:"foreignkey:GuestID" json:"guest,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
