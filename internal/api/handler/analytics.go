package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
)

// AnalyticsReader is the read side consumed by the dashboard endpoints.
type AnalyticsReader interface {
	UpcomingEvents(ctx context.Context) ([]domain.Event, error)
	LowestPriceOverTime(ctx context.Context, eventID, zone string, start, end time.Time) ([]domain.PricePoint, error)
	GroupPriceTrend(ctx context.Context, eventID string, groupSize int, zone string, start, end time.Time) ([]domain.PricePoint, error)
	TicketsListedOverTime(ctx context.Context, eventID, zone string, start, end time.Time) ([]domain.TicketCountPoint, error)
	EventZones(ctx context.Context, eventID string) ([]domain.ZoneMapping, error)
	ZonesWithPricing(ctx context.Context, eventID string) ([]domain.ZonePricing, error)
	CurrentSummary(ctx context.Context, eventID string) (*domain.EventStatistics, error)
	LatestPricesBySection(ctx context.Context, eventID string) ([]domain.SectionPrice, error)
}

// AnalyticsHandler serves event listings and price analytics.
type AnalyticsHandler struct {
	analytics AnalyticsReader
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics AnalyticsReader) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

type timeSeriesQuery struct {
	eventID string
	zone    string
	start   time.Time
	end     time.Time
}

// bindTimeSeries reads eventId, zone, startDate and endDate. It writes a 400
// and returns false when the dates are missing or malformed.
func bindTimeSeries(c *gin.Context) (timeSeriesQuery, bool) {
	q := timeSeriesQuery{
		eventID: c.Param("eventId"),
		zone:    c.Query("zone"),
	}
	startRaw, endRaw := c.Query("startDate"), c.Query("endDate")
	if startRaw == "" || endRaw == "" {
		respondError(c, http.StatusBadRequest, "startDate and endDate are required")
		return q, false
	}
	var ok bool
	if q.start, ok = parseDate(startRaw); !ok {
		respondError(c, http.StatusBadRequest, "invalid startDate: "+startRaw)
		return q, false
	}
	if q.end, ok = parseDate(endRaw); !ok {
		respondError(c, http.StatusBadRequest, "invalid endDate: "+endRaw)
		return q, false
	}
	if q.end.Before(q.start) {
		respondError(c, http.StatusBadRequest, "endDate must not be before startDate")
		return q, false
	}
	return q, true
}

// ListEvents handles GET /api/v1/events
func (h *AnalyticsHandler) ListEvents(c *gin.Context) {
	events, err := h.analytics.UpcomingEvents(c.Request.Context())
	if err != nil {
		respondFailure(c, err, "Failed to fetch events")
		return
	}
	respondOK(c, events)
}

// LowestPrice handles GET /api/v1/events/:eventId/analytics/lowest-price
func (h *AnalyticsHandler) LowestPrice(c *gin.Context) {
	q, ok := bindTimeSeries(c)
	if !ok {
		return
	}
	data, err := h.analytics.LowestPriceOverTime(c.Request.Context(), q.eventID, q.zone, q.start, q.end)
	if err != nil {
		respondFailure(c, err, "Failed to fetch lowest price data")
		return
	}
	respondOK(c, data)
}

// GroupPrice handles GET /api/v1/events/:eventId/analytics/group-price
func (h *AnalyticsHandler) GroupPrice(c *gin.Context) {
	q, ok := bindTimeSeries(c)
	if !ok {
		return
	}
	groupSize, err := strconv.Atoi(c.DefaultQuery("groupSize", "2"))
	if err != nil || (groupSize != 2 && groupSize != 4) {
		respondError(c, http.StatusBadRequest, "groupSize must be 2 or 4")
		return
	}

	data, err := h.analytics.GroupPriceTrend(c.Request.Context(), q.eventID, groupSize, q.zone, q.start, q.end)
	if err != nil {
		respondFailure(c, err, "Failed to fetch group price trend")
		return
	}
	respondOK(c, data)
}

// TicketsListed handles GET /api/v1/events/:eventId/analytics/tickets-listed
func (h *AnalyticsHandler) TicketsListed(c *gin.Context) {
	q, ok := bindTimeSeries(c)
	if !ok {
		return
	}
	data, err := h.analytics.TicketsListedOverTime(c.Request.Context(), q.eventID, q.zone, q.start, q.end)
	if err != nil {
		respondFailure(c, err, "Failed to fetch tickets listed data")
		return
	}
	respondOK(c, data)
}

// Zones handles GET /api/v1/events/:eventId/zones
func (h *AnalyticsHandler) Zones(c *gin.Context) {
	data, err := h.analytics.EventZones(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondFailure(c, err, "Failed to fetch event zones")
		return
	}
	respondOK(c, data)
}

// ZonesPricing handles GET /api/v1/events/:eventId/zones-pricing
func (h *AnalyticsHandler) ZonesPricing(c *gin.Context) {
	eventID := c.Param("eventId")
	data, err := h.analytics.ZonesWithPricing(c.Request.Context(), eventID)
	if err != nil {
		respondFailure(c, err, "Failed to fetch zones with pricing")
		return
	}
	logger.CtxDebug(c.Request.Context(), "Zones with pricing: event_id=%s, zones=%d", eventID, len(data))
	respondOK(c, data)
}

// Summary handles GET /api/v1/events/:eventId/summary
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	data, err := h.analytics.CurrentSummary(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondFailure(c, err, "Failed to fetch current summary")
		return
	}
	respondOK(c, data)
}

// LatestPrices handles GET /api/v1/events/:eventId/latest-prices
func (h *AnalyticsHandler) LatestPrices(c *gin.Context) {
	data, err := h.analytics.LatestPricesBySection(c.Request.Context(), c.Param("eventId"))
	if err != nil {
		respondFailure(c, err, "Failed to fetch latest prices")
		return
	}
	respondOK(c, data)
}
