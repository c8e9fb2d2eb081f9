package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/dmutua84/nyumba_stays/database"
	"github.com/dmutua84/nyumba_stays/models"
	"github.com/dmutua84/nyumba_stays/notifications"
)

// NudgeStalePendingBookings reminds hosts about booking requests that have
// sat unanswered for more than 24 hours. The request stays pending; guests
// can still cancel, and the dates stay blocked until the host decides.
func NudgeStalePendingBookings() {
	log.Println("Running job: NudgeStalePendingBookings...")

	cutoff := time.Now().Add(-24 * time.Hour)

	var staleBookings []models.Booking
	err := database.DB.
		Preload("Guest").
		Preload("Property.Host").
		Where("status = ? AND created_at < ? AND (nudged_at IS NULL OR nudged_at < ?)",
			models.BookingStatusPending, cutoff, cutoff).
		Find(&staleBookings).Error
	if err != nil {
		log.Printf("Error checking for stale pending bookings: %v", err)
		return
	}

	if len(staleBookings) == 0 {
		return
	}

	for _, booking := range staleBookings {
		log.Printf("Nudging host for stale booking ID: %s", booking.ID)

		body := fmt.Sprintf(
			"<h1>Booking Request Waiting</h1><p>Hi %s,</p><p>%s requested <b>%s</b> for %s to %s over a day ago and is still waiting for your answer. Please confirm or decline from your dashboard.</p>",
			booking.Property.Host.FullName, booking.Guest.FullName, booking.Property.Title,
			booking.CheckInDate.Format("02 Jan"), booking.CheckOutDate.Format("02 Jan 2006"),
		)
		go notifications.SendEmail(booking.Property.Host.FullName, booking.Property.Host.Email,
			"A Booking Request Needs Your Attention", body)

		now := time.Now()
		database.DB.Model(&models.Booking{}).Where("id = ?", booking.ID).Update("nudged_at", &now)
	}
}
