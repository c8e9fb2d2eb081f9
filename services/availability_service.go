package services

import (
	"errors"
	"time"

	"github.com/dmutua84/nyumba_stays/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidDateRange = errors.New("check-out date must be after check-in date")
	ErrCheckInInPast    = errors.New("check-in date cannot be in the past")
	ErrDatesUnavailable = errors.New("the selected dates are not available")
)

const dateLayout = "2006-01-02"

// NormalizeDate truncates a timestamp to midnight UTC. All date-range
// comparisons in the booking path operate on normalized calendar dates.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func Today() time.Time {
	return NormalizeDate(time.Now().UTC())
}

func ValidateStayDates(checkIn, checkOut time.Time) error {
	if !NormalizeDate(checkOut).After(NormalizeDate(checkIn)) {
		return ErrInvalidDateRange
	}
	if NormalizeDate(checkIn).Before(Today()) {
		return ErrCheckInInPast
	}
	return nil
}

// CheckAvailability reports whether [checkIn, checkOut) is bookable for the
// property. A pending or confirmed booking occupying any night in the range,
// or a host-blocked override date, makes the range unavailable. The check is
// read-only; CreateBooking re-runs it inside its transaction.
func CheckAvailability(db *gorm.DB, propertyID uuid.UUID, checkIn, checkOut time.Time) error {
	if err := ValidateStayDates(checkIn, checkOut); err != nil {
		return err
	}

	checkIn = NormalizeDate(checkIn)
	checkOut = NormalizeDate(checkOut)

	activeStatuses := []string{models.BookingStatusPending, models.BookingStatusConfirmed}

	var overlapping int64
	err := db.Model(&models.Booking{}).
		Where("property_id = ? AND status IN ? AND check_in_date < ? AND check_out_date > ?",
			propertyID, activeStatuses, checkOut, checkIn).
		Count(&overlapping).Error
	if err != nil {
		return err
	}
	if overlapping > 0 {
		return ErrDatesUnavailable
	}

	var blocked int64
	err = db.Model(&models.AvailabilityOverride{}).
		Where("property_id = ? AND date >= ? AND date < ? AND is_available = ?",
			propertyID, checkIn, checkOut, false).
		Count(&blocked).Error
	if err != nil {
		return err
	}
	if blocked > 0 {
		return ErrDatesUnavailable
	}

	return nil
}

type PriceBreakdown struct {
	Nights      int             `json:"nights"`
	NightsTotal decimal.Decimal `json:"nights_total"`
	CleaningFee decimal.Decimal `json:"cleaning_fee"`
	ServiceFee  decimal.Decimal `json:"service_fee"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
}

// QuotePrice computes the total charge for a stay. Each night in
// [checkIn, checkOut) is priced at the override price for that date when one
// is set, otherwise at the property's nightly price. Flat cleaning and
// service fees are added once. Pure read; no side effects.
func QuotePrice(db *gorm.DB, property *models.Property, checkIn, checkOut time.Time) (*PriceBreakdown, error) {
	checkIn = NormalizeDate(checkIn)
	checkOut = NormalizeDate(checkOut)
	if !checkOut.After(checkIn) {
		return nil, ErrInvalidDateRange
	}

	var overrides []models.AvailabilityOverride
	err := db.Where("property_id = ? AND date >= ? AND date < ?", property.ID, checkIn, checkOut).
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}

	priceByDate := make(map[string]decimal.Decimal, len(overrides))
	for _, o := range overrides {
		if o.Price.Valid {
			priceByDate[NormalizeDate(o.Date).Format(dateLayout)] = o.Price.Decimal
		}
	}

	nightsTotal := decimal.Zero
	nights := 0
	for d := checkIn; d.Before(checkOut); d = d.AddDate(0, 0, 1) {
		nightly := property.NightlyPrice
		if override, ok := priceByDate[d.Format(dateLayout)]; ok {
			nightly = override
		}
		nightsTotal = nightsTotal.Add(nightly)
		nights++
	}

	breakdown := &PriceBreakdown{
		Nights:      nights,
		NightsTotal: nightsTotal,
		CleaningFee: decimal.Zero,
		ServiceFee:  decimal.Zero,
		Currency:    property.Currency,
	}
	if property.CleaningFee.Valid {
		breakdown.CleaningFee = property.CleaningFee.Decimal
	}
	if property.ServiceFee.Valid {
		breakdown.ServiceFee = property.ServiceFee.Decimal
	}
	breakdown.Total = nightsTotal.Add(breakdown.CleaningFee).Add(breakdown.ServiceFee)

	return breakdown, nil
}

type CalendarDay struct {
	Date        string          `json:"date"`
	IsAvailable bool            `json:"is_available"`
	Price       decimal.Decimal `json:"price"`
	IsBooked    bool            `json:"is_booked"`
	BookingID   *uuid.UUID      `json:"booking_id,omitempty"`
}

// BuildCalendar returns the per-date projection served by the availability
// endpoint. Both start and end are included.
func BuildCalendar(db *gorm.DB, property *models.Property, start, end time.Time) ([]CalendarDay, error) {
	start = NormalizeDate(start)
	end = NormalizeDate(end)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	var overrides []models.AvailabilityOverride
	err := db.Where("property_id = ? AND date >= ? AND date <= ?", property.ID, start, end).
		Find(&overrides).Error
	if err != nil {
		return nil, err
	}
	overrideByDate := make(map[string]models.AvailabilityOverride, len(overrides))
	for _, o := range overrides {
		overrideByDate[NormalizeDate(o.Date).Format(dateLayout)] = o
	}

	activeStatuses := []string{models.BookingStatusPending, models.BookingStatusConfirmed}
	var bookings []models.Booking
	err = db.Where("property_id = ? AND status IN ? AND check_in_date <= ? AND check_out_date > ?",
		property.ID, activeStatuses, end, start).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	days := make([]CalendarDay, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := CalendarDay{
			Date:        d.Format(dateLayout),
			IsAvailable: true,
			Price:       property.NightlyPrice,
		}
		if o, ok := overrideByDate[day.Date]; ok {
			day.IsAvailable = o.IsAvailable
			if o.Price.Valid {
				day.Price = o.Price.Decimal
			}
		}
		for i := range bookings {
			if !bookings[i].CheckInDate.After(d) && bookings[i].CheckOutDate.After(d) {
				day.IsBooked = true
				day.IsAvailable = false
				id := bookings[i].ID
				day.BookingID = &id
				break
			}
		}
		days = append(days, day)
	}

	return days, nil
}
