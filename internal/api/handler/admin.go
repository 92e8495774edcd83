package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
	"github.com/timmy/ticketpulse/internal/runguard"
	"github.com/timmy/ticketpulse/internal/service"
)

const (
	defaultJobLimit = 20
	maxJobLimit     = 200
)

// Scraper is the write side driven by the admin endpoints.
type Scraper interface {
	ScrapeAllEvents(ctx context.Context) (*service.BatchResult, error)
	ScrapeEventByID(ctx context.Context, eventID string) (*service.ScrapeResult, error)
}

// JobLister reads the scrape job history.
type JobLister interface {
	ListRecent(ctx context.Context, eventID string, limit int) ([]domain.ScrapeJob, error)
}

// AdminHandler handles admin operations.
type AdminHandler struct {
	scraper Scraper
	jobs    JobLister
	guard   runguard.Guard
	clock   clock.Clock
	logger  *logger.Logger

	// Last manual scrape-all run
	mu            sync.RWMutex
	lastRunTime   time.Time
	lastRunStatus string
	lastResult    *service.BatchResult

	wg sync.WaitGroup
}

// NewAdminHandler creates a new admin handler.
// Parameters:
//   - scraper: scrape service.
//   - jobs: job history reader.
//   - guard: run guard shared with the scheduler.
//   - clk: time source for run bookkeeping.
//   - log: logger instance.
//
// Returns:
//   - *AdminHandler: initialized handler.
func NewAdminHandler(scraper Scraper, jobs JobLister, guard runguard.Guard, clk clock.Clock, log *logger.Logger) *AdminHandler {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &AdminHandler{
		scraper: scraper,
		jobs:    jobs,
		guard:   guard,
		clock:   clk,
		logger:  log,
	}
}

// log returns a logger from Gin context if available, otherwise returns the handler logger
func (h *AdminHandler) log(c *gin.Context) *logger.Logger {
	if logger.HasLogger(c.Request.Context()) {
		return logger.FromContext(c.Request.Context())
	}
	return h.logger
}

// ScrapeStatusResponse represents the scrape-all status.
type ScrapeStatusResponse struct {
	IsRunning     bool                 `json:"is_running"`
	LastRunTime   string               `json:"last_run_time,omitempty"`
	LastRunStatus string               `json:"last_run_status,omitempty"`
	LastResult    *service.BatchResult `json:"last_result,omitempty"`
}

// TriggerScrape handles POST /api/v1/admin/scrape.
// It starts a scrape-all run in the background and answers 202, or 409 when
// a run (manual or scheduled) already holds the lease.
func (h *AdminHandler) TriggerScrape(c *gin.Context) {
	ctx := c.Request.Context()
	release, err := h.guard.TryAcquire(ctx, runguard.KeyScrapeAll)
	if err != nil {
		if errors.Is(err, runguard.ErrHeld) {
			logger.CtxWarn(ctx, "Scrape trigger rejected: run already in progress")
			respondError(c, http.StatusConflict, "A scrape run is already in progress")
			return
		}
		respondFailure(c, err, "Failed to start scrape run")
		return
	}

	h.mu.Lock()
	h.lastRunTime = h.clock.Now()
	h.lastRunStatus = "running"
	h.lastResult = nil
	h.mu.Unlock()

	// Outlives the request but keeps its logger fields
	runCtx := context.WithoutCancel(ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer release()
		h.runScrapeAll(runCtx)
	}()

	logger.CtxInfo(ctx, "Scrape run started")
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Scrape run started",
	})
}

func (h *AdminHandler) runScrapeAll(ctx context.Context) {
	result, err := h.scraper.ScrapeAllEvents(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastResult = result
	if err != nil {
		h.lastRunStatus = "failed: " + err.Error()
		logger.FromContext(ctx).WithError(err).Error("Manual scrape run failed")
		return
	}
	h.lastRunStatus = "completed"
	logger.With(logger.Fields{
		logger.FieldCount:  result.TicketsSaved,
		logger.FieldStatus: h.lastRunStatus,
	}).Info(ctx, "Manual scrape run finished: events=%d, failed=%d", result.Events, result.Failed)
}

// Wait blocks until background runs started by TriggerScrape have returned.
func (h *AdminHandler) Wait() {
	h.wg.Wait()
}

// ScrapeStatus handles GET /api/v1/admin/scrape/status.
func (h *AdminHandler) ScrapeStatus(c *gin.Context) {
	running, err := h.guard.Held(c.Request.Context(), runguard.KeyScrapeAll)
	if err != nil {
		h.log(c).WithError(err).Warn("Failed to read scrape lease")
	}

	h.mu.RLock()
	resp := ScrapeStatusResponse{
		IsRunning:     running,
		LastRunStatus: h.lastRunStatus,
		LastResult:    h.lastResult,
	}
	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.UTC().Format(time.RFC3339)
	}
	h.mu.RUnlock()

	respondOK(c, resp)
}

// ScrapeEvent handles POST /api/v1/admin/events/:eventId/scrape.
// The scrape runs inline and the response carries the job outcome.
func (h *AdminHandler) ScrapeEvent(c *gin.Context) {
	eventID := c.Param("eventId")
	ctx := logger.WithField(c.Request.Context(), logger.FieldEventID, eventID)

	var result *service.ScrapeResult
	err := runguard.Run(ctx, h.guard, runguard.KeyScrapeEvent(eventID), func(ctx context.Context) error {
		var err error
		result, err = h.scraper.ScrapeEventByID(ctx, eventID)
		return err
	})
	if err != nil {
		var scrapeErr *service.ScrapeError
		if errors.As(err, &scrapeErr) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":  scrapeErr.Error(),
				"kind":   scrapeErr.Kind,
				"job_id": scrapeErr.JobID,
			})
			return
		}
		respondFailure(c, err, "Failed to scrape event")
		return
	}
	respondOK(c, result)
}

// ListJobs handles GET /api/v1/admin/jobs?eventId=&limit=.
func (h *AdminHandler) ListJobs(c *gin.Context) {
	limit := defaultJobLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxJobLimit {
			respondError(c, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxJobLimit))
			return
		}
		limit = n
	}

	jobs, err := h.jobs.ListRecent(c.Request.Context(), c.Query("eventId"), limit)
	if err != nil {
		respondFailure(c, err, "Failed to list scrape jobs")
		return
	}
	respondOK(c, jobs)
}
