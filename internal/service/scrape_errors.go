package service

import "fmt"

// ScrapeErrorKind classifies why a scrape job failed.
type ScrapeErrorKind string

const (
	ErrKindJobCreate     ScrapeErrorKind = "job_create"
	ErrKindSnapshotWrite ScrapeErrorKind = "snapshot_write"
	ErrKindCancelled     ScrapeErrorKind = "cancelled"
)

// ScrapeError is the structured failure of one event scrape.
// Only its Error() text reaches the job record; Kind is stored separately.
type ScrapeError struct {
	Kind           ScrapeErrorKind
	EventID        string
	JobID          string
	QuantityFilter int // 0 when not tied to an iteration
	Err            error
}

func (e *ScrapeError) Error() string {
	switch {
	case e.QuantityFilter > 0:
		return fmt.Sprintf("%s: event %s quantity %d: %v", e.Kind, e.EventID, e.QuantityFilter, e.Err)
	default:
		return fmt.Sprintf("%s: event %s: %v", e.Kind, e.EventID, e.Err)
	}
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}
