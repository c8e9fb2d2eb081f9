package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Property struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	HostID    uuid.UUID  `gorm:"not null" json:"host_id"`
	ManagerID *uuid.UUID `json:"manager_id,omitempty"`

	Title       string  `gorm:"size:255;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	City        string  `gorm:"size:100;not null" json:"city"`
	Country     string  `gorm:"size:100;not null" json:"country"`
	Address     *string `gorm:"size:255" json:"address,omitempty"`

	NightlyPrice decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"nightly_price"`
	CleaningFee  decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"cleaning_fee"`
	ServiceFee   decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"service_fee"`
	Currency     string              `gorm:"size:3;not null;default:'USD'" json:"currency"`

	MaxGuests   int  `gorm:"not null;default:1" json:"max_guests"`
	Bedrooms    int  `gorm:"default:1" json:"bedrooms"`
	IsPublished bool `gorm:"default:false" json:"is_published"`

	Host    User            `gorm:"foreignkey:HostID" json:"host,omitempty"`
	Manager *User           `gorm:"foreignkey:ManagerID" json:"manager,omitempty"`
	Images  []PropertyImage `gorm:"foreignkey:PropertyID" json:"images,omitempty"`

	AvgRating float64 `gorm:"default:0" json:"avg_rating"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
