package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BookingID uuid.UUID       `gorm:"not null;index" json:"booking_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency  string          `gorm:"size:3;not null" json:"currency"`
	Provider  string          `gorm:"size:50" json:"provider"`
	Status    string          `gorm:"size:20;not null;default:'pending'" json:"status"`

	ProviderOrderID   *string `gorm:"size:255;unique" json:"provider_order_id,omitempty"`
	MerchantRequestID *string `gorm:"size:255;unique" json:"-"`
	ProviderTxnID     *string `gorm:"size:255;unique" json:"provider_txn_id,omitempty"`
	RefundReason      *string `gorm:"type:text" json:"refund_reason,omitempty"`

	Booking Booking `gorm:"foreignkey:BookingID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
