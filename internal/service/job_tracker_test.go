package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/timmy/ticketpulse/internal/clock"
	"github.com/timmy/ticketpulse/internal/domain"
	"github.com/timmy/ticketpulse/internal/logger"
)

func newTestTracker(store JobStore) *JobTracker {
	return NewJobTracker(store, clock.NewFixed(testNow), logger.Discard())
}

func TestJobTracker_CreateAndComplete(t *testing.T) {
	store := newFakeJobStore()
	tracker := newTestTracker(store)

	id, err := tracker.CreateJob(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if len(id) != 36 {
		t.Errorf("job id = %q, want uuid", id)
	}
	job := store.jobs[id]
	if job.Status != domain.JobStatusRunning || !job.StartedAt.Equal(testNow) {
		t.Errorf("created job = %+v", job)
	}

	tracker.CompleteJob(context.Background(), id, 150)
	if job.Status != domain.JobStatusCompleted || job.TicketsScraped == nil || *job.TicketsScraped != 150 {
		t.Errorf("completed job = %+v", job)
	}
}

func TestJobTracker_CreateJobError(t *testing.T) {
	store := newFakeJobStore()
	store.createErr = errStoreDown
	tracker := newTestTracker(store)

	_, err := tracker.CreateJob(context.Background(), "evt-1")
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("CreateJob() error = %v, want wrapped store error", err)
	}
}

func TestJobTracker_FailJobStoresKindAndMessage(t *testing.T) {
	store := newFakeJobStore()
	tracker := newTestTracker(store)
	id, _ := tracker.CreateJob(context.Background(), "evt-1")

	cause := &ScrapeError{Kind: ErrKindSnapshotWrite, EventID: "evt-1", JobID: id, QuantityFilter: 2, Err: errStoreDown}
	tracker.FailJob(context.Background(), id, cause)

	job := store.jobs[id]
	if job.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", job.Status)
	}
	if job.ErrorKind != string(ErrKindSnapshotWrite) {
		t.Errorf("error kind = %q", job.ErrorKind)
	}
	if !strings.Contains(job.ErrorMessage, "store unavailable") || !strings.Contains(job.ErrorMessage, "quantity 2") {
		t.Errorf("error message = %q", job.ErrorMessage)
	}
	if job.TicketsScraped != nil {
		t.Errorf("tickets_scraped = %v, want nil", *job.TicketsScraped)
	}
}

func TestJobTracker_TerminalStateIsFinal(t *testing.T) {
	store := newFakeJobStore()
	tracker := newTestTracker(store)
	id, _ := tracker.CreateJob(context.Background(), "evt-1")

	tracker.FailJob(context.Background(), id, errors.New("boom"))
	tracker.CompleteJob(context.Background(), id, 10)

	job := store.jobs[id]
	if job.Status != domain.JobStatusFailed || job.ErrorMessage != "boom" {
		t.Errorf("job = %+v, want still failed with boom", job)
	}
	if job.ErrorKind != "" {
		t.Errorf("error kind = %q, want empty for unstructured errors", job.ErrorKind)
	}
}

func TestJobTracker_UpdateFailuresAreSwallowed(t *testing.T) {
	store := newFakeJobStore()
	tracker := newTestTracker(store)
	id, _ := tracker.CreateJob(context.Background(), "evt-1")

	store.updateErr = errStoreDown
	// Neither call may panic or propagate.
	tracker.CompleteJob(context.Background(), id, 5)
	tracker.FailJob(context.Background(), id, errors.New("x"))

	if store.jobs[id].Status != domain.JobStatusRunning {
		t.Errorf("status = %q, want running", store.jobs[id].Status)
	}
}
