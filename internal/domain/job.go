package domain

import "time"

// JobStatus represents the status of a scrape job.
// running is the initial state; completed and failed are terminal.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ScrapeJob records one event-scrape invocation.
type ScrapeJob struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	EventID        string     `gorm:"type:text;not null;index:idx_scraper_jobs_event" json:"event_id"`
	Status         JobStatus  `gorm:"type:text;not null;index:idx_scraper_jobs_status;default:running" json:"status"`
	StartedAt      time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	TicketsScraped *int       `json:"tickets_scraped,omitempty"`
	ErrorKind      string     `gorm:"type:text" json:"error_kind,omitempty"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message,omitempty"`
}

// TableName returns the database table name for ScrapeJob.
func (ScrapeJob) TableName() string {
	return "scraper_jobs"
}
