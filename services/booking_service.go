package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmutua84/nyumba_stays/models"
	"github.com/dmutua84/nyumba_stays/notifications"
	"github.com/dmutua84/nyumba_stays/utils"
	"github.com/dmutua84/nyumba_stays/websocket"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Actor roles as resolved against a specific booking, not global user roles.
// A user with the global "host" role is still just a guest on somebody
// else's property.
const (
	RoleGuest   = "guest"
	RoleHost    = "host"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

var (
	ErrPropertyNotBookable = errors.New("property is not open for bookings")
	ErrGuestCountInvalid   = errors.New("guest count must be between 1 and the property maximum")
	ErrOwnProperty         = errors.New("hosts cannot book their own property")
	ErrInvalidTransition   = errors.New("status change not permitted from the current state")
	ErrNotAllowed          = errors.New("you are not allowed to perform this action")
	ErrStayNotEnded        = errors.New("cannot complete a booking before its checkout date")
)

// allowedTransitions encodes the full lifecycle in one table: current status
// and booking-relative role determine the permitted next statuses. Anything
// not listed fails. Note the asymmetry on confirmed bookings: the guest may
// still cancel, the host and manager may not. That protects guests from
// late host-side cancellations and is intentional.
var allowedTransitions = map[string]map[string][]string{
	models.BookingStatusPending: {
		RoleGuest:   {models.BookingStatusCancelled},
		RoleHost:    {models.BookingStatusConfirmed, models.BookingStatusRejected, models.BookingStatusCancelled},
		RoleManager: {models.BookingStatusConfirmed, models.BookingStatusRejected, models.BookingStatusCancelled},
		RoleAdmin:   {models.BookingStatusConfirmed, models.BookingStatusRejected, models.BookingStatusCancelled},
	},
	models.BookingStatusConfirmed: {
		RoleGuest:   {models.BookingStatusCancelled},
		RoleHost:    {models.BookingStatusCompleted},
		RoleManager: {models.BookingStatusCompleted},
		RoleAdmin:   {models.BookingStatusCancelled, models.BookingStatusCompleted},
	},
}

// ResolveBookingRole maps a user onto their role for one booking. The
// booking must have its Property association loaded. Returns false when the
// user has no relationship to the booking at all.
func ResolveBookingRole(booking *models.Booking, userID uuid.UUID, userRole string) (string, bool) {
	if userRole == "admin" {
		return RoleAdmin, true
	}
	if booking.Property.HostID == userID {
		return RoleHost, true
	}
	if booking.Property.ManagerID != nil && *booking.Property.ManagerID == userID {
		return RoleManager, true
	}
	if booking.GuestID == userID {
		return RoleGuest, true
	}
	return "", false
}

type CreateBookingInput struct {
	PropertyID uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
}

// CreateBooking runs the availability check, the price quote and both
// inserts inside one serializable transaction, so two concurrent requests
// for overlapping ranges cannot both slip past the availability check.
func CreateBooking(db *gorm.DB, guestID uuid.UUID, input CreateBookingInput) (*models.Booking, error) {
	if err := ValidateStayDates(input.CheckIn, input.CheckOut); err != nil {
		return nil, err
	}

	var booking *models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		// Host must ride along: the request email goes to the host after commit.
		var property models.Property
		if err := tx.Preload("Host").First(&property, "id = ?", input.PropertyID).Error; err != nil {
			return err
		}
		if !property.IsPublished {
			return ErrPropertyNotBookable
		}
		if property.HostID == guestID {
			return ErrOwnProperty
		}
		if input.Guests < 1 || input.Guests > property.MaxGuests {
			return ErrGuestCountInvalid
		}

		if err := CheckAvailability(tx, property.ID, input.CheckIn, input.CheckOut); err != nil {
			return err
		}

		quote, err := QuotePrice(tx, &property, input.CheckIn, input.CheckOut)
		if err != nil {
			return err
		}

		reference, err := utils.GenerateBookingReference(tx)
		if err != nil {
			return err
		}

		booking = &models.Booking{
			PropertyID:   property.ID,
			GuestID:      guestID,
			CheckInDate:  NormalizeDate(input.CheckIn),
			CheckOutDate: NormalizeDate(input.CheckOut),
			Guests:       input.Guests,
			TotalPrice:   quote.Total,
			Currency:     quote.Currency,
			Status:       models.BookingStatusPending,
			Reference:    reference,
		}
		if err := tx.Create(booking).Error; err != nil {
			return err
		}

		payment := models.Payment{
			BookingID: booking.ID,
			Amount:    quote.Total,
			Currency:  quote.Currency,
			Status:    models.PaymentStatusPending,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		booking.Payments = []models.Payment{payment}
		booking.Property = property

		notification := models.Notification{
			UserID:    property.HostID,
			BookingID: &booking.ID,
			Type:      "booking_requested",
			Title:     "New booking request",
			Body:      fmt.Sprintf("Booking %s requested for %s.", reference, property.Title),
		}
		if err := tx.Create(&notification).Error; err != nil {
			return err
		}
		websocket.Notify(&notification)

		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	if err != nil {
		if isSerializationFailure(err) {
			return nil, ErrDatesUnavailable
		}
		return nil, err
	}

	go notifyBookingRequested(booking)

	return booking, nil
}

// TransitionBooking applies one status change on behalf of an actor. The
// booking must have its Property association loaded. The stored status only
// changes when the transition table permits it for this actor; payment
// refunds ride in the same transaction, while emails and websocket pushes
// are best-effort afterwards.
func TransitionBooking(db *gorm.DB, booking *models.Booking, actorRole, next string) error {
	byRole, ok := allowedTransitions[booking.Status]
	if !ok {
		// cancelled, completed and rejected are sinks
		return ErrInvalidTransition
	}

	reachable := false
	for _, targets := range byRole {
		if containsStatus(targets, next) {
			reachable = true
			break
		}
	}
	if !reachable {
		return ErrInvalidTransition
	}
	if !containsStatus(byRole[actorRole], next) {
		return ErrNotAllowed
	}
	if next == models.BookingStatusCompleted && Today().Before(NormalizeDate(booking.CheckOutDate)) {
		return ErrStayNotEnded
	}

	previous := booking.Status
	var notification *models.Notification

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Booking{}).Where("id = ?", booking.ID).
			Update("status", next).Error; err != nil {
			return err
		}

		if next == models.BookingStatusCancelled {
			err := tx.Model(&models.Payment{}).
				Where("booking_id = ? AND status IN ?", booking.ID,
					[]string{models.PaymentStatusPending, models.PaymentStatusCompleted}).
				Update("status", models.PaymentStatusRefunded).Error
			if err != nil {
				return err
			}
		}

		notification = &models.Notification{
			UserID:    counterpartyID(booking, actorRole),
			BookingID: &booking.ID,
			Type:      "booking_" + next,
			Title:     statusChangeTitle(next),
			Body:      fmt.Sprintf("Booking %s is now %s.", booking.Reference, next),
		}
		return tx.Create(notification).Error
	})
	if err != nil {
		return err
	}

	booking.Status = next
	websocket.Notify(notification)
	go notifyStatusChanged(booking, previous, next)

	return nil
}

// isSerializationFailure reports whether the database aborted the commit
// because a concurrent transaction touched the same rows (SQLSTATE 40001).
// Under serializable isolation the losing side of a double-booking race ends
// up here, so the caller treats it as a date conflict, not a server fault.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func containsStatus(list []string, status string) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

// counterpartyID picks who gets told about a change: host-side actors notify
// the guest, everyone else notifies the host.
func counterpartyID(booking *models.Booking, actorRole string) uuid.UUID {
	switch actorRole {
	case RoleHost, RoleManager, RoleAdmin:
		return booking.GuestID
	default:
		return booking.Property.HostID
	}
}

func statusChangeTitle(next string) string {
	switch next {
	case models.BookingStatusConfirmed:
		return "Booking confirmed"
	case models.BookingStatusRejected:
		return "Booking declined"
	case models.BookingStatusCancelled:
		return "Booking cancelled"
	case models.BookingStatusCompleted:
		return "Stay completed"
	default:
		return "Booking updated"
	}
}

func notifyBookingRequested(booking *models.Booking) {
	notifications.SendEmail(
		booking.Property.Host.FullName,
		booking.Property.Host.Email,
		"You Have a New Booking Request!",
		fmt.Sprintf("<h1>New Request</h1><p>A guest has requested to book <b>%s</b> (%s &rarr; %s). Confirm or decline it from your dashboard.</p>",
			booking.Property.Title,
			booking.CheckInDate.Format(dateLayout),
			booking.CheckOutDate.Format(dateLayout)),
	)
}

func notifyStatusChanged(booking *models.Booking, previous, next string) {
	subject := statusChangeTitle(next)
	body := fmt.Sprintf("<h1>%s</h1><p>Booking <b>%s</b> for %s moved from %s to %s.</p>",
		subject, booking.Reference, booking.Property.Title, previous, next)

	notifications.SendEmail(booking.Guest.FullName, booking.Guest.Email, subject, body)
	notifications.SendEmail(booking.Property.Host.FullName, booking.Property.Host.Email, subject, body)
}
