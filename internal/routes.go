package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	"seopulse/internal/config"
	"seopulse/internal/http"
	"seopulse/internal/http/middleware"
	"seopulse/internal/provider"
)

// apiCORSConfig allows the SPA dev server to talk to the API with session
// cookies. Credentialed CORS cannot use a wildcard origin.
var apiCORSConfig = &cors.Config{
	AllowOrigins:     "http://localhost:5173, http://localhost:3000",
	AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
	AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	AllowCredentials: true,
}

// SetupSession configures session management on the server.
func SetupSession(srv *cartridge.Server) {
	cfg := config.GetConfig()
	sessionMgr := cartridge.NewSessionManager(cartridge.SessionConfig{
		CookieName: cfg.AppName + "_session",
		Secret:     cfg.GetSessionSecret(),
		TTL:        time.Duration(cfg.GetLoginSessionTimeout()) * time.Second,
		Secure:     cfg.IsProduction(),
		LoginPath:  "/api/auth/login",
	})
	srv.SetSession(sessionMgr)
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	// Create and set session manager
	SetupSession(srv)
	MountAppRoutesWithoutSession(srv)
}

// MountAppRoutesWithoutSession mounts routes without setting up session.
// Kept separate so tests can install their own session manager first.
func MountAppRoutesWithoutSession(srv *cartridge.Server) {
	cfg := config.GetConfig()
	sessionMgr := srv.Session()
	logger := srv.GetLogger()

	// The metric providers are stubbed: deterministic mock data stands in
	// until real Google API credentials ship.
	metrics := provider.NewMockProvider()

	// Helper to conditionally apply rate limiting (only in production)
	// In development/test, rate limiting would interfere with testing
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// General API rate limiter (70 requests per minute per IP)
	apiRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Stricter rate limiter for auth endpoints (10 requests per minute)
	// Prevents brute force login attempts
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Session-guarded JSON API. The middleware answers 401 JSON instead of
	// redirecting, which is what the SPA expects.
	// No Sec-Fetch-Site check: the SPA dev origin is cross-site and curl/CLI
	// clients send no header at all. CORS plus the SameSite session cookie
	// cover cross-origin writes here.
	apiConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         apiCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware: []fiber.Handler{
			apiRateLimiter,
			middleware.RequireUser(sessionMgr, logger),
		},
	}

	// Auth endpoints are public but brute-force limited.
	authConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		CORSConfig:         apiCORSConfig,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{authRateLimiter},
	}

	// === HEALTH ===
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === AUTHENTICATION ROUTES ===
	srv.Post("/api/auth/login", http.ProcessLoginAction, authConfig)
	srv.Post("/api/auth/dev-login", http.DevLoginAction(cfg), authConfig)
	srv.Get("/api/auth/google", http.GoogleAuthAction(cfg), authConfig)
	srv.Post("/api/auth/logout", http.LogoutAction, authConfig)
	srv.Get("/api/auth/me", http.MeAction, authConfig)

	// === SITES ===
	srv.Get("/api/sites", http.SitesIndexAction, apiConfig)
	srv.Post("/api/sites", http.SiteCreateAction, apiConfig)
	srv.Get("/api/sites/summary/all", http.SitesSummaryAction, apiConfig)
	srv.Get("/api/sites/:id", http.SiteShowAction, apiConfig)
	srv.Put("/api/sites/:id", http.SiteUpdateAction, apiConfig)
	srv.Delete("/api/sites/:id", http.SiteDeleteAction, apiConfig)

	// === ANALYTICS ===
	srv.Get("/api/analytics/overview", http.AnalyticsOverviewAction, apiConfig)
	srv.Get("/api/analytics/properties", http.AnalyticsPropertiesAction, apiConfig)
	srv.Post("/api/analytics/properties", http.AnalyticsPropertyCreateAction, apiConfig)
	srv.Get("/api/analytics/site/:siteId", http.AnalyticsSiteAction, apiConfig)
	srv.Post("/api/analytics/refresh/:siteId", http.AnalyticsRefreshAction(metrics), apiConfig)

	// === SEARCH CONSOLE ===
	srv.Get("/api/searchconsole/sites", http.SearchConsoleSitesAction, apiConfig)
	srv.Post("/api/searchconsole/sites", http.SearchConsoleSiteAddAction, apiConfig)
	srv.Delete("/api/searchconsole/sites/:siteUrl", http.SearchConsoleSiteRemoveAction, apiConfig)
	srv.Get("/api/searchconsole/queries", http.SearchConsoleQueriesAction, apiConfig)
	srv.Get("/api/searchconsole/performance", http.SearchConsolePerformanceAction, apiConfig)
	srv.Post("/api/searchconsole/refresh", http.SearchConsoleRefreshAction(metrics), apiConfig)

	// === DASHBOARD ===
	srv.Get("/api/dashboard", http.DashboardIndexAction, apiConfig)
	srv.Get("/api/dashboard/health", http.DashboardHealthAction, apiConfig)

	// === INSIGHTS ===
	srv.Get("/api/insights/site/:siteId", http.InsightsIndexAction, apiConfig)
	srv.Post("/api/insights/site/:siteId", http.InsightCreateAction, apiConfig)

	// === SETTINGS ===
	srv.Get("/api/settings/dashboard", http.DashboardSettingsShowAction, apiConfig)
	srv.Put("/api/settings/dashboard", http.DashboardSettingsUpdateAction, apiConfig)
}
