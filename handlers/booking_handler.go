package handlers

import (
	"errors"
	"time"

	"github.com/dmutua84/nyumba_stays/database"
	"github.com/dmutua84/nyumba_stays/models"
	"github.com/dmutua84/nyumba_stays/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateBookingRequest struct {
	PropertyID     string `json:"property_id" validate:"required,uuid"`
	CheckInDate    string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate   string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	NumberOfGuests int    `json:"number_of_guests" validate:"required,min=1"`
}

// bookingErrorResponse maps the service-level failures onto HTTP statuses:
// conflicts are 409, permission problems 403, everything else about the
// request itself 400.
func bookingErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrDatesUnavailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotAllowed):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
	case errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrCheckInInPast),
		errors.Is(err, services.ErrGuestCountInvalid),
		errors.Is(err, services.ErrPropertyNotBookable),
		errors.Is(err, services.ErrOwnProperty),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrStayNotEnded):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process booking"})
	}
}

func CreateBooking(c *fiber.Ctx) error {
	guestID := currentUserID(c)

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	propertyID, _ := uuid.Parse(req.PropertyID)
	checkIn, _ := time.Parse(dateLayout, req.CheckInDate)
	checkOut, _ := time.Parse(dateLayout, req.CheckOutDate)

	booking, err := services.CreateBooking(database.DB, guestID, services.CreateBookingInput{
		PropertyID: propertyID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     req.NumberOfGuests,
	})
	if err != nil {
		return bookingErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(booking)
}

func GetMyBookings(c *fiber.Ctx) error {
	guestID := currentUserID(c)

	var bookings []models.Booking
	database.DB.
		Preload("Property.Images").
		Preload("Payments").
		Where("guest_id = ?", guestID).
		Order("check_in_date desc").
		Find(&bookings)

	return c.JSON(bookings)
}

func GetHostBookings(c *fiber.Ctx) error {
	hostID := currentUserID(c)

	var bookings []models.Booking
	database.DB.
		Preload("Guest").
		Preload("Payments").
		Joins("JOIN properties ON properties.id = bookings.property_id").
		Where("properties.host_id = ? OR properties.manager_id = ?", hostID, hostID).
		Order("check_in_date desc").
		Find(&bookings)

	return c.JSON(bookings)
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed rejected cancelled completed"`
}

func UpdateBookingStatus(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var booking models.Booking
	err := database.DB.Preload("Property.Host").Preload("Guest").
		First(&booking, "id = ?", c.Params("bookingId")).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}

	var req UpdateBookingStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	actorRole, related := services.ResolveBookingRole(&booking, userID, currentUserRole(c))
	if !related {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This booking is not yours to manage"})
	}

	if err := services.TransitionBooking(database.DB, &booking, actorRole, req.Status); err != nil {
		return bookingErrorResponse(c, err)
	}

	if req.Status == models.BookingStatusCompleted {
		go services.GenerateBookingReceipt(booking)
	}

	return c.JSON(booking)
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func CreateReview(c *fiber.Ctx) error {
	guestID := currentUserID(c)
	bookingID := c.Params("bookingId")

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var newReview models.Review
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
			return errors.New("booking not found")
		}
		if booking.GuestID != guestID {
			return errors.New("you are not the guest for this booking")
		}
		if booking.Status != models.BookingStatusCompleted {
			return errors.New("reviews can only be submitted for completed stays")
		}

		var existingReview models.Review
		if err := tx.Where("booking_id = ?", bookingID).First(&existingReview).Error; err == nil {
			return errors.New("a review for this stay has already been submitted")
		}

		newReview = models.Review{
			BookingID:  booking.ID,
			PropertyID: booking.PropertyID,
			GuestID:    guestID,
			Rating:     req.Rating,
			Comment:    req.Comment,
		}
		if err := tx.Create(&newReview).Error; err != nil {
			return err
		}

		var result struct {
			Avg float64
		}
		tx.Model(&models.Review{}).Where("property_id = ?", booking.PropertyID).
			Select("avg(rating) as avg").Scan(&result)

		return tx.Model(&models.Property{}).Where("id = ?", booking.PropertyID).
			Update("avg_rating", result.Avg).Error
	})

	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(newReview)
}

func GetPropertyReviews(c *fiber.Ctx) error {
	var reviews []models.Review
	database.DB.Preload("Guest").
		Where("property_id = ?", c.Params("propertyId")).
		Order("created_at desc").
		Find(&reviews)

	return c.JSON(reviews)
}
