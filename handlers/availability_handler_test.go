package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmutua84/nyumba_stays/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCalendar(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	return resp
}

func TestGetPropertyAvailabilityEndpoint(t *testing.T) {
	app := setupTestApp(t)
	host := seedUser(t, "host")
	property := seedProperty(t, host)

	base := "/api/v1/properties/" + property.ID.String() + "/availability"
	start := services.Today().Format("2006-01-02")

	resp := getCalendar(t, app, base+"?startDate="+start+"&endDate="+services.Today().AddDate(0, 0, 30).Format("2006-01-02"))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// missing parameters
	resp = getCalendar(t, app, base)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetPropertyAvailabilityRejectsHugeRanges(t *testing.T) {
	app := setupTestApp(t)
	host := seedUser(t, "host")
	property := seedProperty(t, host)

	base := "/api/v1/properties/" + property.ID.String() + "/availability"
	start := services.Today().Format("2006-01-02")

	// a full year is still fine
	resp := getCalendar(t, app, base+"?startDate="+start+"&endDate="+services.Today().AddDate(0, 0, 366).Format("2006-01-02"))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// a century is not
	resp = getCalendar(t, app, base+"?startDate="+start+"&endDate="+services.Today().AddDate(100, 0, 0).Format("2006-01-02"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
