package sweeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"ceramico/pkg/logger"
	"ceramico/pkg/model"
)

// fakeStore applies the sweep predicate in memory.
type fakeStore struct {
	mu       sync.Mutex
	bookings []*model.Booking
}

func (f *fakeStore) CompletePastDue(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var modified int64
	for _, b := range f.bookings {
		if !b.SessionDate.Before(now) {
			continue
		}
		if b.Status != model.BookingPending && b.Status != model.BookingConfirmed {
			continue
		}
		b.Status = model.BookingCompleted
		modified++
	}
	return modified, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func TestSweep_CompletesPastDueAndExcludesCancelled(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	store := &fakeStore{bookings: []*model.Booking{
		{ID: "1", SessionDate: past, Status: model.BookingPending},
		{ID: "2", SessionDate: past, Status: model.BookingConfirmed},
		{ID: "3", SessionDate: past, Status: model.BookingCancelled},
		{ID: "4", SessionDate: future, Status: model.BookingConfirmed},
	}}

	s := New(store, testLogger())

	modified, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if modified != 2 {
		t.Errorf("expected 2 bookings completed, got %d", modified)
	}

	if store.bookings[0].Status != model.BookingCompleted {
		t.Errorf("pending past booking should be completed, got %s", store.bookings[0].Status)
	}
	if store.bookings[1].Status != model.BookingCompleted {
		t.Errorf("confirmed past booking should be completed, got %s", store.bookings[1].Status)
	}
	if store.bookings[2].Status != model.BookingCancelled {
		t.Errorf("cancelled booking must stay cancelled, got %s", store.bookings[2].Status)
	}
	if store.bookings[3].Status != model.BookingConfirmed {
		t.Errorf("future booking must stay confirmed, got %s", store.bookings[3].Status)
	}
}

func TestSweep_Idempotent(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)

	store := &fakeStore{bookings: []*model.Booking{
		{ID: "1", SessionDate: past, Status: model.BookingPending},
		{ID: "2", SessionDate: past, Status: model.BookingConfirmed},
	}}

	s := New(store, testLogger())

	first, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != 2 {
		t.Fatalf("expected 2 changes on first pass, got %d", first)
	}

	second, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != 0 {
		t.Errorf("second pass must be a no-op, got %d changes", second)
	}
}
