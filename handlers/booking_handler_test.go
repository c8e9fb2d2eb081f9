package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmutua84/nyumba_stays/database"
	"github.com/dmutua84/nyumba_stays/models"
	"github.com/dmutua84/nyumba_stays/routes"
	"github.com/dmutua84/nyumba_stays/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret"

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("JWT_SECRET", testJWTSecret)

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.PropertyImage{},
		&models.AvailabilityOverride{},
		&models.Booking{},
		&models.Payment{},
		&models.Notification{},
		&models.Review{},
	))
	database.DB = db

	app := fiber.New()
	routes.BookingRoutes(app)
	routes.PropertyRoutes(app)
	return app
}

func signTestToken(t *testing.T, user *models.User) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func seedUser(t *testing.T, role string) *models.User {
	t.Helper()

	user := &models.User{
		FullName: "Test " + role,
		Email:    uuid.New().String() + "@example.com",
		Password: "not-a-real-hash",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

func seedProperty(t *testing.T, host *models.User) *models.Property {
	t.Helper()

	property := &models.Property{
		HostID:       host.ID,
		Title:        "Nairobi Garden Loft",
		City:         "Nairobi",
		Country:      "Kenya",
		NightlyPrice: decimal.NewFromInt(100),
		CleaningFee:  decimal.NewNullDecimal(decimal.NewFromInt(20)),
		ServiceFee:   decimal.NewNullDecimal(decimal.NewFromInt(10)),
		Currency:     "USD",
		MaxGuests:    4,
		IsPublished:  true,
	}
	require.NoError(t, database.DB.Create(property).Error)
	return property
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestCreateBookingEndpoint(t *testing.T) {
	app := setupTestApp(t)
	host := seedUser(t, "host")
	guest := seedUser(t, "guest")
	property := seedProperty(t, host)
	token := signTestToken(t, guest)

	checkIn := services.Today().AddDate(0, 0, 10).Format("2006-01-02")
	checkOut := services.Today().AddDate(0, 0, 13).Format("2006-01-02")

	resp := doJSON(t, app, "POST", "/api/v1/bookings", token, fiber.Map{
		"property_id":      property.ID.String(),
		"check_in_date":    checkIn,
		"check_out_date":   checkOut,
		"number_of_guests": 2,
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created models.Booking
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, models.BookingStatusPending, created.Status)
	assert.True(t, created.TotalPrice.Equal(decimal.NewFromInt(330)), "total was %s", created.TotalPrice)

	// same dates again: conflict
	other := seedUser(t, "guest")
	resp = doJSON(t, app, "POST", "/api/v1/bookings", signTestToken(t, other), fiber.Map{
		"property_id":      property.ID.String(),
		"check_in_date":    checkIn,
		"check_out_date":   checkOut,
		"number_of_guests": 2,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestCreateBookingEndpointRejectsBadInput(t *testing.T) {
	app := setupTestApp(t)
	host := seedUser(t, "host")
	guest := seedUser(t, "guest")
	property := seedProperty(t, host)
	token := signTestToken(t, guest)

	// checkout before checkin
	resp := doJSON(t, app, "POST", "/api/v1/bookings", token, fiber.Map{
		"property_id":      property.ID.String(),
		"check_in_date":    services.Today().AddDate(0, 0, 13).Format("2006-01-02"),
		"check_out_date":   services.Today().AddDate(0, 0, 10).Format("2006-01-02"),
		"number_of_guests": 2,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// unknown property
	resp = doJSON(t, app, "POST", "/api/v1/bookings", token, fiber.Map{
		"property_id":      uuid.New().String(),
		"check_in_date":    services.Today().AddDate(0, 0, 10).Format("2006-01-02"),
		"check_out_date":   services.Today().AddDate(0, 0, 13).Format("2006-01-02"),
		"number_of_guests": 2,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// no token at all
	resp = doJSON(t, app, "POST", "/api/v1/bookings", "", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateBookingStatusEndpoint(t *testing.T) {
	app := setupTestApp(t)
	host := seedUser(t, "host")
	guest := seedUser(t, "guest")
	stranger := seedUser(t, "guest")
	property := seedProperty(t, host)

	booking := &models.Booking{
		PropertyID:   property.ID,
		GuestID:      guest.ID,
		CheckInDate:  services.Today().AddDate(0, 0, 10),
		CheckOutDate: services.Today().AddDate(0, 0, 13),
		Guests:       2,
		TotalPrice:   decimal.NewFromInt(330),
		Currency:     "USD",
		Status:       models.BookingStatusPending,
		Reference:    "TESTREF1",
	}
	require.NoError(t, database.DB.Create(booking).Error)

	path := "/api/v1/bookings/" + booking.ID.String() + "/status"

	// a guest cannot confirm their own request
	resp := doJSON(t, app, "PATCH", path, signTestToken(t, guest), fiber.Map{"status": "confirmed"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// an unrelated user cannot touch it either
	resp = doJSON(t, app, "PATCH", path, signTestToken(t, stranger), fiber.Map{"status": "confirmed"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// the host can
	resp = doJSON(t, app, "PATCH", path, signTestToken(t, host), fiber.Map{"status": "confirmed"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stored models.Booking
	require.NoError(t, database.DB.First(&stored, "id = ?", booking.ID).Error)
	assert.Equal(t, models.BookingStatusConfirmed, stored.Status)

	// confirming twice is an invalid transition
	resp = doJSON(t, app, "PATCH", path, signTestToken(t, host), fiber.Map{"status": "confirmed"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
