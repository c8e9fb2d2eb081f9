package routes

import (
	"github.com/dmutua84/nyumba_stays/handlers"
	"github.com/dmutua84/nyumba_stays/middleware"
	"github.com/gofiber/fiber/v2"
)

func PropertyRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// Public marketplace surface.
	properties := api.Group("/properties")
	properties.Get("", handlers.ListProperties)
	properties.Get("/:propertyId", handlers.GetProperty)
	properties.Get("/:propertyId/availability", handlers.GetPropertyAvailability)
	properties.Get("/:propertyId/reviews", handlers.GetPropertyReviews)
	properties.Post("/:propertyId/assistant", handlers.AskListingAssistant)

	// Host management surface.
	host := api.Group("/host/properties", middleware.Protected(), middleware.HostRequired())
	host.Get("", handlers.GetMyProperties)
	host.Post("", handlers.CreateProperty)
	host.Put("/:propertyId", handlers.UpdateProperty)
	host.Post("/:propertyId/manager", handlers.AssignPropertyManager)
	host.Post("/:propertyId/images", handlers.AddPropertyImage)
	host.Delete("/:propertyId/images/:imageId", handlers.DeletePropertyImage)
	host.Put("/:propertyId/availability", handlers.SetAvailabilityOverride)
	host.Put("/:propertyId/availability/bulk", handlers.SetBulkAvailability)
}
