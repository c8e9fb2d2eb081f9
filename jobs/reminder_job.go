package jobs

import (
	"fmt"
	"log"

	"github.com/dmutua84/nyumba_stays/database"
	"github.com/dmutua84/nyumba_stays/models"
	"github.com/dmutua84/nyumba_stays/notifications"
	"github.com/dmutua84/nyumba_stays/services"
)

// SendCheckInReminders emails both parties of every confirmed booking that
// checks in tomorrow.
func SendCheckInReminders() {
	log.Println("Running job: SendCheckInReminders...")

	tomorrow := services.Today().AddDate(0, 0, 1)

	var upcomingBookings []models.Booking
	err := database.DB.
		Preload("Guest").
		Preload("Property.Host").
		Where("status = ? AND check_in_date = ?", models.BookingStatusConfirmed, tomorrow).
		Find(&upcomingBookings).Error
	if err != nil {
		log.Printf("Error checking for upcoming check-ins: %v", err)
		return
	}

	if len(upcomingBookings) == 0 {
		return
	}

	for _, booking := range upcomingBookings {
		log.Printf("Sending check-in reminder for booking ID: %s", booking.ID)

		guestBody := fmt.Sprintf(
			"<h1>Check-In Reminder</h1><p>Hi %s,</p><p>Your stay at <b>%s</b> starts tomorrow, %s. Safiri salama!</p>",
			booking.Guest.FullName, booking.Property.Title, booking.CheckInDate.Format("Mon, 02 Jan 2006"),
		)
		hostBody := fmt.Sprintf(
			"<h1>Guest Arriving Tomorrow</h1><p>Hi %s,</p><p>%s checks in to <b>%s</b> tomorrow, %s (booking %s).</p>",
			booking.Property.Host.FullName, booking.Guest.FullName, booking.Property.Title,
			booking.CheckInDate.Format("Mon, 02 Jan 2006"), booking.Reference,
		)

		go notifications.SendEmail(booking.Guest.FullName, booking.Guest.Email, "Your Stay Starts Tomorrow!", guestBody)
		go notifications.SendEmail(booking.Property.Host.FullName, booking.Property.Host.Email, "Guest Check-In Tomorrow", hostBody)
	}
}
