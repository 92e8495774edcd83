package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/source"
)

// fakeSource returns a fixed payload or error and counts calls.
type fakeSource struct {
	mu       sync.Mutex
	payload  *source.ListingsResponse
	err      error
	requests []int

	// onFetch runs before the response is returned.
	onFetch func(quantity int)
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchListings(ctx context.Context, productionID string, quantity int) (*source.ListingsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, quantity)
	if f.onFetch != nil {
		f.onFetch(quantity)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

// noWait is a limiter that always permits immediately.
type noWait struct{ err error }

func (n noWait) Wait(ctx context.Context) error { return n.err }

// fakeArchive records saved payloads.
type fakeArchive struct {
	saved []string
	err   error
}

func (a *fakeArchive) Save(ctx context.Context, productionID string, quantity int, body []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	key := fmt.Sprintf("raw/%s/q%d", productionID, quantity)
	a.saved = append(a.saved, key)
	return "mem://" + key, nil
}

// fakeJobStore keeps jobs in memory and enforces terminal states like the repository.
type fakeJobStore struct {
	mu        sync.Mutex
	jobs      map[string]*domain.ScrapeJob
	order     []string
	createErr error
	updateErr error
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[string]*domain.ScrapeJob{}}
}

func (s *fakeJobStore) Create(ctx context.Context, job *domain.ScrapeJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	cp := *job
	s.jobs[job.ID] = &cp
	s.order = append(s.order, job.ID)
	return nil
}

func (s *fakeJobStore) finish(id string, apply func(*domain.ScrapeJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return domain.ErrJobTerminal
	}
	apply(job)
	return nil
}

func (s *fakeJobStore) MarkCompleted(ctx context.Context, id string, ticketsScraped int, at time.Time) error {
	return s.finish(id, func(j *domain.ScrapeJob) {
		j.Status = domain.JobStatusCompleted
		j.TicketsScraped = &ticketsScraped
		j.CompletedAt = &at
	})
}

func (s *fakeJobStore) MarkFailed(ctx context.Context, id, kind, message string, at time.Time) error {
	return s.finish(id, func(j *domain.ScrapeJob) {
		j.Status = domain.JobStatusFailed
		j.ErrorKind = kind
		j.ErrorMessage = message
		j.CompletedAt = &at
	})
}

func (s *fakeJobStore) jobsFor(eventID string) []*domain.ScrapeJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ScrapeJob
	for _, id := range s.order {
		if s.jobs[id].EventID == eventID {
			out = append(out, s.jobs[id])
		}
	}
	return out
}

var errStoreDown = errors.New("store unavailable")

// fakeSnapshotStore records batches and can fail a chosen call or event.
type fakeSnapshotStore struct {
	mu          sync.Mutex
	batches     [][]domain.TicketSnapshot
	calls       int
	failOnCall  int    // 1-based; 0 never
	failEventID string // fail every batch of this event
}

func (s *fakeSnapshotStore) CreateBatch(ctx context.Context, snapshots []domain.TicketSnapshot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls == s.failOnCall {
		return 0, errStoreDown
	}
	if len(snapshots) > 0 && snapshots[0].EventID == s.failEventID {
		return 0, errStoreDown
	}
	s.batches = append(s.batches, snapshots)
	return len(snapshots), nil
}

func (s *fakeSnapshotStore) batchesFor(eventID string) [][]domain.TicketSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out [][]domain.TicketSnapshot
	for _, b := range s.batches {
		if len(b) > 0 && b[0].EventID == eventID {
			out = append(out, b)
		}
	}
	return out
}

// fakeEvents serves a fixed event list.
type fakeEvents struct {
	events  []domain.Event
	listErr error
}

func (f *fakeEvents) ListUpcoming(ctx context.Context, now time.Time) ([]domain.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Event
	for _, e := range f.events {
		if !e.Date.Before(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	for i := range f.events {
		if f.events[i].ID == id {
			return &f.events[i], nil
		}
	}
	return nil, domain.ErrEventNotFound
}

// sleepRecorder replaces real pauses.
type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
	onCall func(n int)
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.sleeps = append(r.sleeps, d)
	n := len(r.sleeps)
	r.mu.Unlock()
	if r.onCall != nil {
		r.onCall(n)
	}
	return ctx.Err()
}
