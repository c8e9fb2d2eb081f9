package handlers

import (
	"log"

	"github.com/dmutua84/nyumba_stays/database"
	"github.com/dmutua84/nyumba_stays/models"
	"github.com/dmutua84/nyumba_stays/services"
	"github.com/gofiber/fiber/v2"
)

type AssistantRequest struct {
	Question string `json:"question" validate:"required,min=3,max=1000"`
}

// AskListingAssistant answers a guest question about a published listing.
func AskListingAssistant(c *fiber.Ctx) error {
	var property models.Property
	err := database.DB.First(&property, "id = ? AND is_published = ?", c.Params("propertyId"), true).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
	}

	var req AssistantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	answer, err := services.AskAssistant(&property, req.Question)
	if err != nil {
		log.Printf("🔥 Assistant request failed for property %s: %v", property.ID, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "The assistant is unavailable right now, please try again later."})
	}

	return c.JSON(fiber.Map{"answer": answer})
}
