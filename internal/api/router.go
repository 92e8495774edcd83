package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/ticketpulse/internal/api/handler"
	"github.com/timmy/ticketpulse/internal/api/middleware"
	"github.com/timmy/ticketpulse/internal/config"
	"github.com/timmy/ticketpulse/internal/logger"
)

// Handlers groups the route handlers mounted by SetupRouter.
type Handlers struct {
	Health    *handler.HealthHandler
	Analytics *handler.AnalyticsHandler
	Admin     *handler.AdminHandler
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(h Handlers, cfg *config.ServerConfig, log *logger.Logger) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/health", h.Health.Health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/events", h.Analytics.ListEvents)

		events := v1.Group("/events/:eventId")
		events.GET("/analytics/lowest-price", h.Analytics.LowestPrice)
		events.GET("/analytics/group-price", h.Analytics.GroupPrice)
		events.GET("/analytics/tickets-listed", h.Analytics.TicketsListed)
		events.GET("/zones", h.Analytics.Zones)
		events.GET("/zones-pricing", h.Analytics.ZonesPricing)
		events.GET("/summary", h.Analytics.Summary)
		events.GET("/latest-prices", h.Analytics.LatestPrices)

		if h.Admin != nil {
			admin := v1.Group("/admin")
			admin.POST("/scrape", h.Admin.TriggerScrape)
			admin.GET("/scrape/status", h.Admin.ScrapeStatus)
			admin.POST("/events/:eventId/scrape", h.Admin.ScrapeEvent)
			admin.GET("/jobs", h.Admin.ListJobs)
		}
	}

	return r
}
