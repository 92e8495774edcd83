package domain

import "errors"

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrJobNotFound      = errors.New("scrape job not found")
	ErrJobTerminal      = errors.New("scrape job already in a terminal state")
	ErrNoSnapshots      = errors.New("no snapshots for event")
	ErrInvalidGroupSize = errors.New("group size must be 2 or 4")
	ErrInvalidDateRange = errors.New("startDate and endDate are required")
	ErrRunInProgress    = errors.New("run already in progress")
	ErrAggregationOff   = errors.New("aggregation disabled")
)
