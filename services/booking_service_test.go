package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dmutua84/nyumba_stays/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateBooking(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	property := createTestProperty(t, db, host)

	booking, err := CreateBooking(db, guest.ID, CreateBookingInput{
		PropertyID: property.ID,
		CheckIn:    daysFromNow(10),
		CheckOut:   daysFromNow(13),
		Guests:     2,
	})
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.True(t, booking.TotalPrice.Equal(decimal.NewFromInt(330)), "total was %s", booking.TotalPrice)
	assert.Equal(t, "USD", booking.Currency)
	assert.Len(t, booking.Reference, 8)

	// the pending payment rides in the same transaction
	var payment models.Payment
	require.NoError(t, db.First(&payment, "booking_id = ?", booking.ID).Error)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.True(t, payment.Amount.Equal(booking.TotalPrice))

	// so does the host's notification row
	var notification models.Notification
	require.NoError(t, db.First(&notification, "booking_id = ?", booking.ID).Error)
	assert.Equal(t, host.ID, notification.UserID)
	assert.Equal(t, "booking_requested", notification.Type)

	// the host association is populated, so the request email has a real
	// recipient instead of a zero-valued user
	assert.Equal(t, host.Email, booking.Property.Host.Email)
	assert.Equal(t, host.FullName, booking.Property.Host.FullName)
}

func TestSerializationFailureIsAConflict(t *testing.T) {
	serr := &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}

	assert.True(t, isSerializationFailure(serr))
	assert.True(t, isSerializationFailure(fmt.Errorf("commit failed: %w", serr)))

	assert.False(t, isSerializationFailure(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isSerializationFailure(errors.New("some other failure")))
	assert.False(t, isSerializationFailure(nil))
}

func TestCreateBookingRejectsConflicts(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	other := createTestUser(t, db, "guest")
	property := createTestProperty(t, db, host)

	_, err := CreateBooking(db, guest.ID, CreateBookingInput{
		PropertyID: property.ID,
		CheckIn:    daysFromNow(10),
		CheckOut:   daysFromNow(13),
		Guests:     2,
	})
	require.NoError(t, err)

	// a pending request already blocks the dates
	_, err = CreateBooking(db, other.ID, CreateBookingInput{
		PropertyID: property.ID,
		CheckIn:    daysFromNow(12),
		CheckOut:   daysFromNow(14),
		Guests:     1,
	})
	assert.ErrorIs(t, err, ErrDatesUnavailable)

	// back-to-back is fine
	_, err = CreateBooking(db, other.ID, CreateBookingInput{
		PropertyID: property.ID,
		CheckIn:    daysFromNow(13),
		CheckOut:   daysFromNow(14),
		Guests:     1,
	})
	assert.NoError(t, err)
}

func TestCreateBookingValidation(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	property := createTestProperty(t, db, host)

	_, err := CreateBooking(db, guest.ID, CreateBookingInput{
		PropertyID: property.ID,
		CheckIn:    daysFromNow(10),
		CheckOut:   daysFromNow(13),
		Guests:     property.MaxGuests + 1,
	})
	assert.ErrorIs(t, err, ErrGuestCountInvalid)

	_, err = CreateBooking(db, host.ID, CreateBookingInput{
		PropertyID: property.ID,
		CheckIn:    daysFromNow(10),
		CheckOut:   daysFromNow(13),
		Guests:     2,
	})
	assert.ErrorIs(t, err, ErrOwnProperty)

	property.IsPublished = false
	require.NoError(t, db.Save(property).Error)
	_, err = CreateBooking(db, guest.ID, CreateBookingInput{
		PropertyID: property.ID,
		CheckIn:    daysFromNow(10),
		CheckOut:   daysFromNow(13),
		Guests:     2,
	})
	assert.ErrorIs(t, err, ErrPropertyNotBookable)

	_, err = CreateBooking(db, guest.ID, CreateBookingInput{
		PropertyID: uuid.New(),
		CheckIn:    daysFromNow(10),
		CheckOut:   daysFromNow(13),
		Guests:     2,
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestResolveBookingRole(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	manager := createTestUser(t, db, "host")
	admin := createTestUser(t, db, "admin")
	stranger := createTestUser(t, db, "guest")

	property := createTestProperty(t, db, host)
	property.ManagerID = &manager.ID
	require.NoError(t, db.Save(property).Error)

	booking := createTestBooking(t, db, property, guest, models.BookingStatusPending, daysFromNow(10), daysFromNow(13))

	role, ok := ResolveBookingRole(booking, guest.ID, "guest")
	assert.True(t, ok)
	assert.Equal(t, RoleGuest, role)

	role, ok = ResolveBookingRole(booking, host.ID, "host")
	assert.True(t, ok)
	assert.Equal(t, RoleHost, role)

	role, ok = ResolveBookingRole(booking, manager.ID, "host")
	assert.True(t, ok)
	assert.Equal(t, RoleManager, role)

	role, ok = ResolveBookingRole(booking, admin.ID, "admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = ResolveBookingRole(booking, stranger.ID, "guest")
	assert.False(t, ok)
}

func TestTransitionPendingBooking(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	property := createTestProperty(t, db, host)

	t.Run("host confirms", func(t *testing.T) {
		booking := createTestBooking(t, db, property, guest, models.BookingStatusPending, daysFromNow(10), daysFromNow(13))
		require.NoError(t, TransitionBooking(db, booking, RoleHost, models.BookingStatusConfirmed))
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)

		var stored models.Booking
		require.NoError(t, db.First(&stored, "id = ?", booking.ID).Error)
		assert.Equal(t, models.BookingStatusConfirmed, stored.Status)

		// guest is told
		var notification models.Notification
		require.NoError(t, db.First(&notification, "booking_id = ?", booking.ID).Error)
		assert.Equal(t, guest.ID, notification.UserID)
	})

	t.Run("host rejects", func(t *testing.T) {
		booking := createTestBooking(t, db, property, guest, models.BookingStatusPending, daysFromNow(20), daysFromNow(22))
		require.NoError(t, TransitionBooking(db, booking, RoleHost, models.BookingStatusRejected))
		assert.Equal(t, models.BookingStatusRejected, booking.Status)
	})

	t.Run("guest cancels", func(t *testing.T) {
		booking := createTestBooking(t, db, property, guest, models.BookingStatusPending, daysFromNow(30), daysFromNow(32))
		require.NoError(t, TransitionBooking(db, booking, RoleGuest, models.BookingStatusCancelled))
	})

	t.Run("guest cannot confirm own request", func(t *testing.T) {
		booking := createTestBooking(t, db, property, guest, models.BookingStatusPending, daysFromNow(40), daysFromNow(42))
		err := TransitionBooking(db, booking, RoleGuest, models.BookingStatusConfirmed)
		assert.ErrorIs(t, err, ErrNotAllowed)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
	})

	t.Run("nobody completes a pending booking", func(t *testing.T) {
		booking := createTestBooking(t, db, property, guest, models.BookingStatusPending, daysFromNow(50), daysFromNow(52))
		err := TransitionBooking(db, booking, RoleAdmin, models.BookingStatusCompleted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestTransitionConfirmedBooking(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	property := createTestProperty(t, db, host)

	t.Run("guest cancel refunds payments", func(t *testing.T) {
		booking := createTestBooking(t, db, property, guest, models.BookingStatusConfirmed, daysFromNow(10), daysFromNow(13))
		require.NoError(t, db.Create(&models.Payment{
			BookingID: booking.ID,
			Amount:    booking.TotalPrice,
			Currency:  "USD",
			Status:    models.PaymentStatusCompleted,
		}).Error)

		require.NoError(t, TransitionBooking(db, booking, RoleGuest, models.BookingStatusCancelled))

		var payment models.Payment
		require.NoError(t, db.First(&payment, "booking_id = ?", booking.ID).Error)
		assert.Equal(t, models.PaymentStatusRefunded, payment.Status)
	})

	t.Run("host cannot cancel a confirmed stay", func(t *testing.T) {
		booking := createTestBooking(t, db, property, guest, models.BookingStatusConfirmed, daysFromNow(20), daysFromNow(22))
		err := TransitionBooking(db, booking, RoleHost, models.BookingStatusCancelled)
		assert.ErrorIs(t, err, ErrNotAllowed)

		err = TransitionBooking(db, booking, RoleManager, models.BookingStatusCancelled)
		assert.ErrorIs(t, err, ErrNotAllowed)

		// but an admin can
		require.NoError(t, TransitionBooking(db, booking, RoleAdmin, models.BookingStatusCancelled))
	})

	t.Run("completion waits for checkout", func(t *testing.T) {
		booking := createTestBooking(t, db, property, guest, models.BookingStatusConfirmed, daysFromNow(30), daysFromNow(32))
		err := TransitionBooking(db, booking, RoleHost, models.BookingStatusCompleted)
		assert.ErrorIs(t, err, ErrStayNotEnded)
	})

	t.Run("host completes a past stay", func(t *testing.T) {
		booking := createTestBooking(t, db, property, guest, models.BookingStatusConfirmed, daysFromNow(-5), daysFromNow(-2))

		require.NoError(t, TransitionBooking(db, booking, RoleHost, models.BookingStatusCompleted))
		assert.Equal(t, models.BookingStatusCompleted, booking.Status)

		// completion never touches the money
		var refunded int64
		db.Model(&models.Payment{}).
			Where("booking_id = ? AND status = ?", booking.ID, models.PaymentStatusRefunded).
			Count(&refunded)
		assert.Zero(t, refunded)
	})

	t.Run("cannot reject after confirming", func(t *testing.T) {
		booking := createTestBooking(t, db, property, guest, models.BookingStatusConfirmed, daysFromNow(40), daysFromNow(42))
		err := TransitionBooking(db, booking, RoleHost, models.BookingStatusRejected)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestTerminalStatesAreSinks(t *testing.T) {
	db := setupTestDB(t)
	host := createTestUser(t, db, "host")
	guest := createTestUser(t, db, "guest")
	property := createTestProperty(t, db, host)

	terminal := []string{
		models.BookingStatusCancelled,
		models.BookingStatusRejected,
		models.BookingStatusCompleted,
	}
	targets := []string{
		models.BookingStatusPending,
		models.BookingStatusConfirmed,
		models.BookingStatusCancelled,
		models.BookingStatusCompleted,
	}

	offset := 10
	for _, status := range terminal {
		booking := createTestBooking(t, db, property, guest, status, daysFromNow(offset), daysFromNow(offset+2))
		offset += 10
		for _, next := range targets {
			if next == status {
				continue
			}
			err := TransitionBooking(db, booking, RoleAdmin, next)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s should be rejected", status, next)
		}
	}
}
