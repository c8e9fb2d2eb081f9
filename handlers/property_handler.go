package handlers

import (
	"errors"

	"github.com/dmutua84/nyumba_stays/database"
	"github.com/dmutua84/nyumba_stays/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreatePropertyRequest struct {
	Title        string              `json:"title" validate:"required,min=5"`
	Description  string              `json:"description"`
	City         string              `json:"city" validate:"required"`
	Country      string              `json:"country" validate:"required"`
	Address      *string             `json:"address"`
	NightlyPrice decimal.Decimal     `json:"nightly_price"`
	CleaningFee  decimal.NullDecimal `json:"cleaning_fee"`
	ServiceFee   decimal.NullDecimal `json:"service_fee"`
	Currency     string              `json:"currency" validate:"omitempty,iso4217"`
	MaxGuests    int                 `json:"max_guests" validate:"required,min=1"`
	Bedrooms     int                 `json:"bedrooms" validate:"min=0"`
}

func currentUserID(c *fiber.Ctx) uuid.UUID {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))
	return userID
}

func currentUserRole(c *fiber.Ctx) string {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	role, _ := claims["role"].(string)
	return role
}

func ListProperties(c *fiber.Ctx) error {
	query := database.DB.Preload("Images").Where("is_published = ?", true)

	if city := c.Query("city"); city != "" {
		query = query.Where("city ILIKE ?", city)
	}
	if country := c.Query("country"); country != "" {
		query = query.Where("country ILIKE ?", country)
	}
	if guests := c.QueryInt("guests"); guests > 0 {
		query = query.Where("max_guests >= ?", guests)
	}

	var properties []models.Property
	if err := query.Order("created_at desc").Find(&properties).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(properties)
}

func GetProperty(c *fiber.Ctx) error {
	propertyID := c.Params("propertyId")

	var property models.Property
	err := database.DB.Preload("Images").Preload("Host").First(&property, "id = ?", propertyID).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
	}

	return c.JSON(property)
}

func CreateProperty(c *fiber.Ctx) error {
	hostID := currentUserID(c)

	var req CreatePropertyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.NightlyPrice.Cmp(decimal.Zero) <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nightly_price must be greater than zero"})
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	property := models.Property{
		HostID:       hostID,
		Title:        req.Title,
		Description:  req.Description,
		City:         req.City,
		Country:      req.Country,
		Address:      req.Address,
		NightlyPrice: req.NightlyPrice,
		CleaningFee:  req.CleaningFee,
		ServiceFee:   req.ServiceFee,
		Currency:     currency,
		MaxGuests:    req.MaxGuests,
		Bedrooms:     req.Bedrooms,
	}

	if err := database.DB.Create(&property).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create property"})
	}

	return c.Status(fiber.StatusCreated).JSON(property)
}

// loadOwnedProperty fetches a property the caller is allowed to manage:
// the host, the assigned manager, or an admin.
func loadOwnedProperty(c *fiber.Ctx, propertyID string) (*models.Property, error) {
	var property models.Property
	if err := database.DB.First(&property, "id = ?", propertyID).Error; err != nil {
		return nil, err
	}

	userID := currentUserID(c)
	if currentUserRole(c) == "admin" || property.HostID == userID ||
		(property.ManagerID != nil && *property.ManagerID == userID) {
		return &property, nil
	}
	return nil, errors.New("access denied")
}

func UpdateProperty(c *fiber.Ctx) error {
	property, err := loadOwnedProperty(c, c.Params("propertyId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not manage this property"})
	}

	type UpdateRequest struct {
		Title        *string              `json:"title"`
		Description  *string              `json:"description"`
		NightlyPrice *decimal.Decimal     `json:"nightly_price"`
		CleaningFee  *decimal.NullDecimal `json:"cleaning_fee"`
		ServiceFee   *decimal.NullDecimal `json:"service_fee"`
		MaxGuests    *int                 `json:"max_guests"`
		Bedrooms     *int                 `json:"bedrooms"`
		IsPublished  *bool                `json:"is_published"`
	}

	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	if req.Title != nil {
		property.Title = *req.Title
	}
	if req.Description != nil {
		property.Description = *req.Description
	}
	if req.NightlyPrice != nil {
		if req.NightlyPrice.Cmp(decimal.Zero) <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nightly_price must be greater than zero"})
		}
		property.NightlyPrice = *req.NightlyPrice
	}
	if req.CleaningFee != nil {
		property.CleaningFee = *req.CleaningFee
	}
	if req.ServiceFee != nil {
		property.ServiceFee = *req.ServiceFee
	}
	if req.MaxGuests != nil {
		if *req.MaxGuests < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "max_guests must be at least 1"})
		}
		property.MaxGuests = *req.MaxGuests
	}
	if req.Bedrooms != nil {
		property.Bedrooms = *req.Bedrooms
	}
	if req.IsPublished != nil {
		property.IsPublished = *req.IsPublished
	}

	if err := database.DB.Save(property).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update property"})
	}

	return c.JSON(property)
}

func GetMyProperties(c *fiber.Ctx) error {
	hostID := currentUserID(c)

	var properties []models.Property
	database.DB.Preload("Images").
		Where("host_id = ? OR manager_id = ?", hostID, hostID).
		Order("created_at desc").
		Find(&properties)

	return c.JSON(properties)
}

type AssignManagerRequest struct {
	ManagerEmail string `json:"manager_email" validate:"required,email"`
}

func AssignPropertyManager(c *fiber.Ctx) error {
	var property models.Property
	if err := database.DB.First(&property, "id = ?", c.Params("propertyId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
	}
	if property.HostID != currentUserID(c) && currentUserRole(c) != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the host can assign a manager"})
	}

	var req AssignManagerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var manager models.User
	if err := database.DB.Where("email = ?", req.ManagerEmail).First(&manager).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No user with that email"})
	}

	property.ManagerID = &manager.ID
	if err := database.DB.Save(&property).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to assign manager"})
	}

	return c.JSON(fiber.Map{"message": "Manager assigned successfully", "property": property})
}

type AddImageRequest struct {
	URL      string `json:"url" validate:"required,url"`
	PublicID string `json:"public_id"`
	Position int    `json:"position"`
}

func AddPropertyImage(c *fiber.Ctx) error {
	property, err := loadOwnedProperty(c, c.Params("propertyId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not manage this property"})
	}

	var req AddImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	image := models.PropertyImage{
		PropertyID: property.ID,
		URL:        req.URL,
		PublicID:   req.PublicID,
		Position:   req.Position,
	}
	if err := database.DB.Create(&image).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save image"})
	}

	return c.Status(fiber.StatusCreated).JSON(image)
}

func DeletePropertyImage(c *fiber.Ctx) error {
	property, err := loadOwnedProperty(c, c.Params("propertyId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not manage this property"})
	}

	result := database.DB.Where("id = ? AND property_id = ?", c.Params("imageId"), property.ID).
		Delete(&models.PropertyImage{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete image"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Image not found"})
	}

	return c.JSON(fiber.Map{"message": "Image deleted"})
}
