package routes

import (
	"github.com/dmutua84/nyumba_stays/handlers"
	"github.com/dmutua84/nyumba_stays/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/dashboard-stats", handlers.AdminDashboardStats)

	users := admin.Group("/users")
	users.Get("", handlers.AdminListUsers)
	users.Put("/:userId/status", handlers.SetUserActiveStatus)

	admin.Get("/bookings", handlers.AdminListBookings)

	properties := admin.Group("/properties")
	properties.Get("", handlers.AdminListProperties)
	properties.Post("/:propertyId/unpublish", handlers.UnpublishProperty)
}
