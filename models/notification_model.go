package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID  `gorm:"not null;index" json:"user_id"`
	BookingID *uuid.UUID `json:"booking_id,omitempty"`
	Type      string     `gorm:"size:50;not null" json:"type"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Body      string     `gorm:"type:text" json:"body"`
	IsRead    bool       `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
}
