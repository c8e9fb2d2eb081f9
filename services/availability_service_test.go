package services

import (
	"strings"
	"testing"
	"time"

	"github.com/dmutua84/nyumba_stays/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.PropertyImage{},
		&models.AvailabilityOverride{},
		&models.Booking{},
		&models.Payment{},
		&models.Notification{},
		&models.Review{},
	)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()

	user := &models.User{
		FullName: "Test " + role,
		Email:    uuid.New().String() + "@example.com",
		Password: "not-a-real-hash",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// createTestProperty sets up a published listing at 100/night with a 20
// cleaning fee and a 10 service fee.
func createTestProperty(t *testing.T, db *gorm.DB, host *models.User) *models.Property {
	t.Helper()

	property := &models.Property{
		HostID:       host.ID,
		Title:        "Diani Beach Cottage",
		City:         "Diani",
		Country:      "Kenya",
		NightlyPrice: decimal.NewFromInt(100),
		CleaningFee:  decimal.NewNullDecimal(decimal.NewFromInt(20)),
		ServiceFee:   decimal.NewNullDecimal(decimal.NewFromInt(10)),
		Currency:     "USD",
		MaxGuests:    4,
		Bedrooms:     2,
		IsPublished:  true,
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

func createTestBooking(t *testing.T, db *gorm.DB, property *models.Property, guest *models.User, status string, checkIn, checkOut time.Time) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		PropertyID:   property.ID,
		GuestID:      guest.ID,
		CheckInDate:  NormalizeDate(checkIn),
		CheckOutDate: NormalizeDate(checkOut),
		Guests:       2,
		TotalPrice:   decimal.NewFromInt(330),
		Currency:     "USD",
		Status:       status,
		Reference:    strings.ToUpper(uuid.New().String()[:8]),
	}
	require.NoError(t, db.Create(booking).Error)
	booking.Property = *property
	booking.Guest = *guest
	return booking
}

func daysFromNow(n int) time.Time {
	return Today().AddDate(0, 0, n)
}

func TestValidateStayDates(t *testing.T) {
	checkIn := daysFromNow(10)

	assert.NoError(t, ValidateStayDates(checkIn, checkIn.AddDate(0, 0, 1)))
	assert.ErrorIs(t, ValidateStayDates(checkIn, checkIn), ErrInvalidDateRange)
	assert.ErrorIs(t, ValidateStayDates(checkIn, checkIn.AddDate(0, 0, -2)), ErrInvalidDateRange)
	assert.ErrorIs(t, ValidateStayDates(daysFromNow(-1), daysFromNow(2)), ErrCheckInInPast)

	// today counts as bookable
	assert.NoError(t, ValidateStayDates(Today(), daysFromNow(2)))
}

func TestCheckAvailabilityRejectsOverlaps(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	property := createTestProperty(t, db, host)

	// existing pending booking occupies nights 12, 13, 14
	createTestBooking(t, db, property, guest, models.BookingStatusPending, daysFromNow(12), daysFromNow(15))

	overlapping := [][2]time.Time{
		{daysFromNow(12), daysFromNow(15)}, // identical
		{daysFromNow(10), daysFromNow(13)}, // overlaps the front
		{daysFromNow(14), daysFromNow(18)}, // overlaps the back
		{daysFromNow(13), daysFromNow(14)}, // strictly inside
		{daysFromNow(10), daysFromNow(20)}, // engulfs
	}
	for _, r := range overlapping {
		err := CheckAvailability(db, property.ID, r[0], r[1])
		assert.ErrorIs(t, err, ErrDatesUnavailable, "range %s to %s should conflict",
			r[0].Format(dateLayout), r[1].Format(dateLayout))
	}

	assert.NoError(t, CheckAvailability(db, property.ID, daysFromNow(16), daysFromNow(18)))
}

func TestCheckAvailabilityCheckoutDayIsFree(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	property := createTestProperty(t, db, host)

	createTestBooking(t, db, property, guest, models.BookingStatusConfirmed, daysFromNow(12), daysFromNow(15))

	// back-to-back stays share the transition day without conflict
	assert.NoError(t, CheckAvailability(db, property.ID, daysFromNow(15), daysFromNow(17)))
	assert.NoError(t, CheckAvailability(db, property.ID, daysFromNow(10), daysFromNow(12)))
}

func TestCheckAvailabilityIgnoresInactiveBookings(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	property := createTestProperty(t, db, host)

	createTestBooking(t, db, property, guest, models.BookingStatusCancelled, daysFromNow(12), daysFromNow(15))
	createTestBooking(t, db, property, guest, models.BookingStatusRejected, daysFromNow(12), daysFromNow(15))

	assert.NoError(t, CheckAvailability(db, property.ID, daysFromNow(12), daysFromNow(15)))
}

func TestCheckAvailabilityBlockedOverride(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	property := createTestProperty(t, db, host)

	require.NoError(t, db.Create(&models.AvailabilityOverride{
		PropertyID:  property.ID,
		Date:        daysFromNow(13),
		IsAvailable: false,
	}).Error)

	assert.ErrorIs(t, CheckAvailability(db, property.ID, daysFromNow(12), daysFromNow(15)), ErrDatesUnavailable)

	// a block on the checkout day does not touch the stay's nights
	assert.NoError(t, CheckAvailability(db, property.ID, daysFromNow(11), daysFromNow(13)))
}

func TestQuotePriceBaseRate(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	property := createTestProperty(t, db, host)

	quote, err := QuotePrice(db, property, daysFromNow(10), daysFromNow(13))
	require.NoError(t, err)

	assert.Equal(t, 3, quote.Nights)
	assert.True(t, quote.NightsTotal.Equal(decimal.NewFromInt(300)), "nights total was %s", quote.NightsTotal)
	assert.True(t, quote.CleaningFee.Equal(decimal.NewFromInt(20)))
	assert.True(t, quote.ServiceFee.Equal(decimal.NewFromInt(10)))
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(330)), "total was %s", quote.Total)
	assert.Equal(t, "USD", quote.Currency)
}

func TestQuotePriceOverridePrecedence(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	property := createTestProperty(t, db, host)

	// middle night priced at 150, the rest at the 100 base rate
	require.NoError(t, db.Create(&models.AvailabilityOverride{
		PropertyID:  property.ID,
		Date:        daysFromNow(11),
		IsAvailable: true,
		Price:       decimal.NewNullDecimal(decimal.NewFromInt(150)),
	}).Error)

	// an override on the checkout day must not be billed
	require.NoError(t, db.Create(&models.AvailabilityOverride{
		PropertyID:  property.ID,
		Date:        daysFromNow(13),
		IsAvailable: true,
		Price:       decimal.NewNullDecimal(decimal.NewFromInt(999)),
	}).Error)

	quote, err := QuotePrice(db, property, daysFromNow(10), daysFromNow(13))
	require.NoError(t, err)

	assert.True(t, quote.NightsTotal.Equal(decimal.NewFromInt(350)), "nights total was %s", quote.NightsTotal)
	assert.True(t, quote.Total.Equal(decimal.NewFromInt(380)), "total was %s", quote.Total)
}

func TestQuotePriceIsDeterministic(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	property := createTestProperty(t, db, host)

	require.NoError(t, db.Create(&models.AvailabilityOverride{
		PropertyID:  property.ID,
		Date:        daysFromNow(11),
		IsAvailable: true,
		Price:       decimal.NewNullDecimal(decimal.RequireFromString("149.99")),
	}).Error)

	first, err := QuotePrice(db, property, daysFromNow(10), daysFromNow(14))
	require.NoError(t, err)
	second, err := QuotePrice(db, property, daysFromNow(10), daysFromNow(14))
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, first.Total.String(), second.Total.String())
}

func TestQuotePriceWithoutFees(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	property := createTestProperty(t, db, host)
	property.CleaningFee = decimal.NullDecimal{}
	property.ServiceFee = decimal.NullDecimal{}
	require.NoError(t, db.Save(property).Error)

	quote, err := QuotePrice(db, property, daysFromNow(10), daysFromNow(12))
	require.NoError(t, err)

	assert.True(t, quote.Total.Equal(decimal.NewFromInt(200)), "total was %s", quote.Total)
}

func TestBuildCalendar(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	property := createTestProperty(t, db, host)

	booking := createTestBooking(t, db, property, guest, models.BookingStatusConfirmed, daysFromNow(11), daysFromNow(13))
	require.NoError(t, db.Create(&models.AvailabilityOverride{
		PropertyID:  property.ID,
		Date:        daysFromNow(14),
		IsAvailable: false,
	}).Error)
	require.NoError(t, db.Create(&models.AvailabilityOverride{
		PropertyID:  property.ID,
		Date:        daysFromNow(15),
		IsAvailable: true,
		Price:       decimal.NewNullDecimal(decimal.NewFromInt(175)),
	}).Error)

	days, err := BuildCalendar(db, property, daysFromNow(10), daysFromNow(15))
	require.NoError(t, err)
	require.Len(t, days, 6)

	// plain day at the base rate
	assert.True(t, days[0].IsAvailable)
	assert.False(t, days[0].IsBooked)
	assert.True(t, days[0].Price.Equal(decimal.NewFromInt(100)))

	// booked nights
	for _, i := range []int{1, 2} {
		assert.False(t, days[i].IsAvailable, "day %d", i)
		assert.True(t, days[i].IsBooked, "day %d", i)
		require.NotNil(t, days[i].BookingID)
		assert.Equal(t, booking.ID, *days[i].BookingID)
	}

	// checkout day is free again
	assert.True(t, days[3].IsAvailable)
	assert.False(t, days[3].IsBooked)

	// host block
	assert.False(t, days[4].IsAvailable)
	assert.False(t, days[4].IsBooked)

	// price override
	assert.True(t, days[5].IsAvailable)
	assert.True(t, days[5].Price.Equal(decimal.NewFromInt(175)))

	_, err = BuildCalendar(db, property, daysFromNow(15), daysFromNow(10))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}
