package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
	BookingStatusRejected  = "rejected"
)

// A booking occupies every calendar date in [CheckInDate, CheckOutDate).
// The checkout day is a transition day, not a billed night.
type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PropertyID uuid.UUID `gorm:"not null;index" json:"property_id"`
	GuestID    uuid.UUID `gorm:"not null;index" json:"guest_id"`

	CheckInDate  time.Time `gorm:"type:date;not null" json:"check_in_date"`
	CheckOutDate time.Time `gorm:"type:date;not null" json:"check_out_date"`
	Guests       int       `gorm:"not null;default:1" json:"guests"`

	TotalPrice decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_price"`
	Currency   string          `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Status     string          `gorm:"size:20;not null;default:'pending';index" json:"status"`

	// Human-facing confirmation code shown on receipts and emails.
	Reference string `gorm:"size:10;unique" json:"reference"`

	ReceiptURL *string `gorm:"size:512" json:"receipt_url,omitempty"`

	// Set when the host has been nudged about an unanswered request.
	NudgedAt *time.Time `json:"nudged_at,omitempty"`

	Property Property  `gorm:"foreignkey:PropertyID" json:"property,omitempty"`
	Guest    User      `gorm:"foreignkey:GuestID" json:"guest,omitempty"`
	Payments []Payment `gorm:"foreignkey:BookingID" json:"payments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
