package http_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "supplykpi/internal/http"
	"supplykpi/internal/testsupport"
)

func TestHealthIndexAction(t *testing.T) {
	app := testsupport.CreateMinimalTestApp(t, testsupport.SetupTestDB(t))

	status, body := doRequest(t, app, fiber.MethodGet, "/_health")
	require.Equal(t, fiber.StatusOK, status)

	health := decode[apphttp.HealthStatus](t, body)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "ok", health.DBStatus)
	assert.Empty(t, health.MissingTables)
}

func TestHealthIndexActionMissingTable(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	testsupport.DropTable(t, db, "SalesSpecialDeals")
	app := testsupport.CreateMinimalTestApp(t, db)

	_, body := doRequest(t, app, fiber.MethodGet, "/_health")
	health := decode[apphttp.HealthStatus](t, body)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, []string{"SalesSpecialDeals"}, health.MissingTables)
}
