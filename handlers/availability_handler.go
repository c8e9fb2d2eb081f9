package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmutua84/nyumba_stays/database"
	"github.com/dmutua84/nyumba_stays/models"
	"github.com/dmutua84/nyumba_stays/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// longest calendar window a single request may ask for
const maxCalendarDays = 366

type SetOverrideRequest struct {
	Date        string              `json:"date" validate:"required,datetime=2006-01-02"`
	IsAvailable bool                `json:"is_available"`
	Price       decimal.NullDecimal `json:"price"`
	Notes       *string             `json:"notes"`
}

type BulkOverrideRequest struct {
	StartDate   string              `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string              `json:"end_date" validate:"required,datetime=2006-01-02"`
	IsAvailable bool                `json:"is_available"`
	Price       decimal.NullDecimal `json:"price"`
	Notes       *string             `json:"notes"`
}

// GetPropertyAvailability serves the public calendar: one entry per date in
// [startDate, endDate], each with availability, nightly price, and the
// occupying booking if any.
func GetPropertyAvailability(c *fiber.Ctx) error {
	var property models.Property
	if err := database.DB.First(&property, "id = ?", c.Params("propertyId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
	}

	startDateStr := c.Query("startDate")
	endDateStr := c.Query("endDate")
	if startDateStr == "" || endDateStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "startDate and endDate are required"})
	}

	startDate, err := time.Parse(dateLayout, startDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid startDate format"})
	}
	endDate, err := time.Parse(dateLayout, endDateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid endDate format"})
	}
	if endDate.Sub(startDate) > maxCalendarDays*24*time.Hour {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Date range too large, maximum is %d days", maxCalendarDays),
		})
	}

	days, err := services.BuildCalendar(database.DB, &property, startDate, endDate)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDateRange) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "endDate must not be before startDate"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build calendar"})
	}

	return c.JSON(fiber.Map{"property_id": property.ID, "days": days})
}

// SetAvailabilityOverride upserts the override row for a single date.
func SetAvailabilityOverride(c *fiber.Ctx) error {
	property, err := loadOwnedProperty(c, c.Params("propertyId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not manage this property"})
	}

	var req SetOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	date, _ := time.Parse(dateLayout, req.Date)
	date = services.NormalizeDate(date)

	var override models.AvailabilityOverride
	result := database.DB.Where("property_id = ? AND date = ?", property.ID, date).First(&override)

	if result.Error == nil {
		override.IsAvailable = req.IsAvailable
		override.Price = req.Price
		override.Notes = req.Notes
		if err := database.DB.Save(&override).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update override"})
		}
		return c.JSON(override)
	}

	override = models.AvailabilityOverride{
		PropertyID:  property.ID,
		Date:        date,
		IsAvailable: req.IsAvailable,
		Price:       req.Price,
		Notes:       req.Notes,
	}
	if err := database.DB.Create(&override).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create override"})
	}

	return c.Status(fiber.StatusCreated).JSON(override)
}

// SetBulkAvailability replaces all override rows in [start_date, end_date]
// in one transaction.
func SetBulkAvailability(c *fiber.Ctx) error {
	property, err := loadOwnedProperty(c, c.Params("propertyId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not manage this property"})
	}

	var req BulkOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	startDate, _ := time.Parse(dateLayout, req.StartDate)
	endDate, _ := time.Parse(dateLayout, req.EndDate)
	startDate = services.NormalizeDate(startDate)
	endDate = services.NormalizeDate(endDate)
	if endDate.Before(startDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date must not be before start_date"})
	}

	var overrides []models.AvailabilityOverride
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		overrides = append(overrides, models.AvailabilityOverride{
			PropertyID:  property.ID,
			Date:        d,
			IsAvailable: req.IsAvailable,
			Price:       req.Price,
			Notes:       req.Notes,
		})
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ? AND date >= ? AND date <= ?",
			property.ID, startDate, endDate).Delete(&models.AvailabilityOverride{}).Error; err != nil {
			return err
		}
		return tx.Create(&overrides).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to set bulk availability"})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Availability set for %d days", len(overrides)),
		"days":    overrides,
	})
}
