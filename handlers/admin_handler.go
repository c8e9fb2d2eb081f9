package handlers

import (
	"math"

	"github.com/dmutua84/nyumba_stays/database"
	"github.com/dmutua84/nyumba_stays/models"
	"github.com/dmutua84/nyumba_stays/notifications"
	"github.com/gofiber/fiber/v2"
)

func AdminListUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("email ILIKE ? OR full_name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(fiber.Map{
		"users":       users,
		"total":       total,
		"page":        page,
		"total_pages": int(math.Ceil(float64(total) / float64(limit))),
	})
}

func AdminListBookings(c *fiber.Ctx) error {
	query := database.DB.Preload("Property").Preload("Guest").Preload("Payments")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var bookings []models.Booking
	if err := query.Order("created_at desc").Limit(200).Find(&bookings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(bookings)
}

func AdminListProperties(c *fiber.Ctx) error {
	query := database.DB.Preload("Host").Preload("Images")

	if published := c.Query("published"); published != "" {
		query = query.Where("is_published = ?", published == "true")
	}

	var properties []models.Property
	if err := query.Order("created_at desc").Find(&properties).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(properties)
}

type SetUserActiveRequest struct {
	IsActive bool    `json:"is_active"`
	Reason   *string `json:"reason"`
}

// SetUserActiveStatus suspends or reinstates an account. Suspended users
// cannot log in; their existing bookings are left for the admin to resolve
// through the booking endpoints.
func SetUserActiveStatus(c *fiber.Ctx) error {
	var user models.User
	if err := database.DB.First(&user, "id = ?", c.Params("userId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if user.Role == "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin accounts cannot be suspended"})
	}

	var req SetUserActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	user.IsActive = req.IsActive
	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}

	if !req.IsActive {
		go notifications.SendEmail(
			user.FullName,
			user.Email,
			"Your Account Has Been Suspended",
			"<h1>Account Suspended</h1><p>Your account has been suspended by our team. Contact support if you believe this is a mistake.</p>",
		)
	} else {
		go notifications.SendEmail(
			user.FullName,
			user.Email,
			"Your Account Has Been Reinstated",
			"<h1>Welcome Back</h1><p>Your account is active again. Karibu!</p>",
		)
	}

	return c.JSON(fiber.Map{"message": "User status updated", "user": user})
}

// UnpublishProperty takes a listing off the marketplace without touching
// its bookings.
func UnpublishProperty(c *fiber.Ctx) error {
	var property models.Property
	if err := database.DB.Preload("Host").First(&property, "id = ?", c.Params("propertyId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Property not found"})
	}

	property.IsPublished = false
	if err := database.DB.Save(&property).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update property"})
	}

	go notifications.SendEmail(
		property.Host.FullName,
		property.Host.Email,
		"Your Listing Has Been Unpublished",
		"<h1>Listing Update</h1><p>Your listing <b>"+property.Title+"</b> was unpublished by our moderation team. Contact support for details.</p>",
	)

	return c.JSON(fiber.Map{"message": "Property unpublished", "property": property})
}

func AdminDashboardStats(c *fiber.Ctx) error {
	var userCount, propertyCount, bookingCount, pendingCount int64
	database.DB.Model(&models.User{}).Count(&userCount)
	database.DB.Model(&models.Property{}).Where("is_published = ?", true).Count(&propertyCount)
	database.DB.Model(&models.Booking{}).Count(&bookingCount)
	database.DB.Model(&models.Booking{}).Where("status = ?", models.BookingStatusPending).Count(&pendingCount)

	return c.JSON(fiber.Map{
		"total_users":          userCount,
		"published_properties": propertyCount,
		"total_bookings":       bookingCount,
		"pending_bookings":     pendingCount,
	})
}
