package routes

import (
	"github.com/dmutua84/nyumba_stays/handlers"
	"github.com/dmutua84/nyumba_stays/middleware"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", handlers.GetMyBookings)
	booking.Post("", handlers.CreateBooking)
	booking.Patch("/:bookingId/status", handlers.UpdateBookingStatus)
	booking.Post("/:bookingId/review", handlers.CreateReview)

	hostBooking := api.Group("/host/bookings", middleware.Protected(), middleware.HostRequired())
	hostBooking.Get("", handlers.GetHostBookings)
}
