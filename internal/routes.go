package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"supplykpi/internal/config"
	"supplykpi/internal/http"
)

// apiCORSConfig lets dashboards hosted elsewhere read the JSON API.
var apiCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "GET,POST,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept",
}

// MountAppRoutes mounts all application routes over a fresh KPI stack built
// from the server's database connection.
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()
	services := NewServices(srv.GetDBManager().GetConnection(), cfg, srv.GetLogger(), nil)
	MountRoutes(srv, services)
}

// MountRoutes mounts all application routes over services.
func MountRoutes(srv *cartridge.Server, services *Services) {
	cfg := config.GetConfig()

	// Rate limiting would interfere with tests, so it only applies in production
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Cache purges force every KPI to rerun, keep them rare
	purgeRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	apiConfig := &cartridge.RouteConfig{
		EnableCORS: true,
		CORSConfig: apiCORSConfig,
	}

	purgeConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{purgeRateLimiter},
	}

	h := http.NewKPIHandlers(services.Dashboard, services.Executor, services.Parser, services.Limit)

	// Health check endpoint
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === KPI API ===
	srv.Get("/api/dashboard", h.DashboardAction, apiConfig)
	srv.Get("/api/trend", h.TrendAction, apiConfig)
	srv.Get("/api/kpis", h.KPIIndexAction, apiConfig)
	srv.Get("/api/kpis/:name", h.KPIShowAction, apiConfig)
	srv.Get("/api/validation/special-deals", h.SpecialDealsValidationAction, apiConfig)

	// === CACHE ===
	srv.Get("/api/cache", h.CacheStatsAction, apiConfig)
	srv.Post("/api/cache/purge", h.CachePurgeAction, purgeConfig)
}
