package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	bookingserrors "ceramico/internal/bookings/errors"
	"ceramico/internal/bookings/validator"
	"ceramico/pkg/config"
	mongotx "ceramico/pkg/db/mongo"
	apperrors "ceramico/pkg/errors"
	"ceramico/pkg/logger"
	"ceramico/pkg/model"
)

const (
	testWorkshopID = "65f000000000000000000001"
	testSessionID  = "3b8f7a34-11b9-4c9e-9f2e-1df6f5a90001"
)

// ────────────────────────────────────────────────
// Fakes
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int

	hasActiveFunc    func(ctx context.Context, userID, sessionID string) (bool, error)
	findByIDFunc     func(ctx context.Context, id string) (*model.Booking, error)
	setCancelledFunc func(ctx context.Context, id string, refunded bool) error
	cancelCalls      int
}

func newMockBookingRepository() *mockBookingRepository {
	return &mockBookingRepository{bookings: map[string]*model.Booking{}}
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = fmt.Sprintf("65f00000000000000000%04d", m.nextID)
	copied := *b
	m.bookings[b.ID] = &copied
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) HasActiveForSession(ctx context.Context, userID, sessionID string) (bool, error) {
	if m.hasActiveFunc != nil {
		return m.hasActiveFunc(ctx, userID, sessionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.UserID == userID && b.SessionID == sessionID && b.Active() {
			return true, nil
		}
	}
	return false, nil
}

// SetCancelled mirrors the conditional flip the real repository performs:
// an already-cancelled booking matches nothing.
func (m *mockBookingRepository) SetCancelled(ctx context.Context, id string, refunded bool) error {
	if m.setCancelledFunc != nil {
		return m.setCancelledFunc(ctx, id, refunded)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	if b.Status == model.BookingCancelled {
		return fmt.Errorf("%w: %s", bookingserrors.ErrAlreadyCancelled, id)
	}
	m.cancelCalls++
	b.Status = model.BookingCancelled
	if refunded {
		b.PaymentStatus = model.PaymentRefunded
	}
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct{}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error { return nil }

// mockSeatRepository enforces the capacity invariant under a mutex, standing
// in for the conditional update the storage engine performs.
type mockSeatRepository struct {
	mu           sync.Mutex
	workshop     *model.Workshop
	booked       int
	reserveCalls int
	releaseCalls int
}

func (m *mockSeatRepository) FindWorkshop(ctx context.Context, workshopID string) (*model.Workshop, error) {
	if m.workshop == nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrWorkshopNotFound, workshopID)
	}
	copied := *m.workshop
	return &copied, nil
}

func (m *mockSeatRepository) Reserve(ctx context.Context, workshopID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserveCalls++
	if m.booked >= m.workshop.MaxSpots {
		return fmt.Errorf("%w: %s", bookingserrors.ErrCapacityFull, sessionID)
	}
	m.booked++
	return nil
}

func (m *mockSeatRepository) Release(ctx context.Context, workshopID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCalls++
	if m.booked > 0 {
		m.booked--
	}
	return nil
}

type mockRefunder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockRefunder) Refund(ctx context.Context, paymentIntentID, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, bookingID)
	return m.err
}

type mockPublisher struct {
	mu     sync.Mutex
	events []model.BookingEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event model.BookingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// ────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func testWorkshop(maxSpots int) *model.Workshop {
	return &model.Workshop{
		ID:            testWorkshopID,
		Title:         "Raku Firing Night",
		Instructor:    "Io Tanaka",
		PriceCents:    6000,
		StartDate:     time.Now().Add(24 * time.Hour),
		RecurringTime: "19:00",
		Recurrence:    model.RecurrenceWeekly,
		MaxSpots:      maxSpots,
		Sessions: []model.Session{
			{SessionID: testSessionID, SessionDate: time.Now().Add(48 * time.Hour)},
		},
	}
}

func testBooking(userID string) *model.Booking {
	return &model.Booking{
		UserID:          userID,
		UserEmail:       userID + "@example.com",
		UserName:        "Test User",
		WorkshopID:      testWorkshopID,
		SessionID:       testSessionID,
		PaymentIntentID: "pi_" + userID,
	}
}

func newService(repo *mockBookingRepository, seats *mockSeatRepository, refunder *mockRefunder, publisher *mockPublisher) BookingService {
	return NewBookingService(
		repo,
		&mockLockRepository{},
		seats,
		validator.NewBookingValidator(),
		refunder,
		publisher,
		testConfig(),
	)
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate_ConcurrentBookingsNeverOversell(t *testing.T) {
	const maxSpots = 3
	const attempts = 10

	repo := newMockBookingRepository()
	seats := &mockSeatRepository{workshop: testWorkshop(maxSpots)}
	svc := newService(repo, seats, &mockRefunder{}, &mockPublisher{})

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Create(context.Background(), testBooking(fmt.Sprintf("user-%d", i)))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		if !apperrors.IsCode(err, apperrors.CodeCapacityExceeded) {
			t.Errorf("unexpected error kind: %v", err)
		}
	}

	if successes != maxSpots {
		t.Errorf("expected exactly %d successful bookings, got %d", maxSpots, successes)
	}
	if seats.booked != maxSpots {
		t.Errorf("expected %d booked seats, got %d", maxSpots, seats.booked)
	}
}

func TestCreate_DuplicateRejectedWithoutSeatChange(t *testing.T) {
	repo := newMockBookingRepository()
	seats := &mockSeatRepository{workshop: testWorkshop(8)}
	svc := newService(repo, seats, &mockRefunder{}, &mockPublisher{})

	if err := svc.Create(context.Background(), testBooking("alice")); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	err := svc.Create(context.Background(), testBooking("alice"))
	if err == nil {
		t.Fatal("expected duplicate booking rejection")
	}
	if !apperrors.IsCode(err, apperrors.CodeDuplicateBooking) {
		t.Errorf("expected DUPLICATE_BOOKING, got %v", err)
	}
	if seats.booked != 1 {
		t.Errorf("seat count changed on rejected duplicate: %d", seats.booked)
	}
}

func TestCreate_PastSessionRejected(t *testing.T) {
	workshop := testWorkshop(8)
	workshop.Sessions[0].SessionDate = time.Now().Add(-24 * time.Hour)

	repo := newMockBookingRepository()
	seats := &mockSeatRepository{workshop: workshop}
	svc := newService(repo, seats, &mockRefunder{}, &mockPublisher{})

	err := svc.Create(context.Background(), testBooking("bob"))
	if err == nil {
		t.Fatal("expected rejection for past session")
	}
	if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	if seats.reserveCalls != 0 {
		t.Errorf("reserve should not run for past session, got %d calls", seats.reserveCalls)
	}
}

func TestCreate_PublishesConfirmedEvent(t *testing.T) {
	repo := newMockBookingRepository()
	seats := &mockSeatRepository{workshop: testWorkshop(8)}
	publisher := &mockPublisher{}
	svc := newService(repo, seats, &mockRefunder{}, publisher)

	if err := svc.Create(context.Background(), testBooking("carol")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.events))
	}
	if publisher.events[0].Type != model.EventBookingConfirmed {
		t.Errorf("expected %s event, got %s", model.EventBookingConfirmed, publisher.events[0].Type)
	}
}

func TestCancel_ReleasesSeatAndRefunds(t *testing.T) {
	repo := newMockBookingRepository()
	seats := &mockSeatRepository{workshop: testWorkshop(8)}
	refunder := &mockRefunder{}
	publisher := &mockPublisher{}
	svc := newService(repo, seats, refunder, publisher)

	booking := testBooking("dave")
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("setup booking failed: %v", err)
	}

	if err := svc.Cancel(context.Background(), booking.ID, "dave", false); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if len(refunder.calls) != 1 || refunder.calls[0] != booking.ID {
		t.Errorf("expected one refund for %s, got %v", booking.ID, refunder.calls)
	}
	if seats.releaseCalls != 1 {
		t.Errorf("expected one seat release, got %d", seats.releaseCalls)
	}
	if seats.booked != 0 {
		t.Errorf("expected seat count back to 0, got %d", seats.booked)
	}
	if len(publisher.events) != 2 || publisher.events[1].Type != model.EventBookingCancelled {
		t.Errorf("expected cancellation event, got %+v", publisher.events)
	}
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	repo := newMockBookingRepository()
	repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		b := testBooking("erin")
		b.ID = id
		b.Status = model.BookingCancelled
		b.PaymentStatus = model.PaymentRefunded
		return b, nil
	}
	seats := &mockSeatRepository{workshop: testWorkshop(8)}
	refunder := &mockRefunder{}
	svc := newService(repo, seats, refunder, &mockPublisher{})

	err := svc.Cancel(context.Background(), "65f0000000000000000000aa", "erin", false)
	if err == nil {
		t.Fatal("expected already-cancelled rejection")
	}
	if !apperrors.IsCode(err, apperrors.CodeAlreadyCancelled) {
		t.Errorf("expected ALREADY_CANCELLED, got %v", err)
	}
	if len(refunder.calls) != 0 {
		t.Errorf("no refund should be issued, got %v", refunder.calls)
	}
	if seats.releaseCalls != 0 {
		t.Errorf("no seat release expected, got %d", seats.releaseCalls)
	}
}

func TestCancel_ConcurrentCancelsReleaseSeatOnce(t *testing.T) {
	repo := newMockBookingRepository()
	seats := &mockSeatRepository{workshop: testWorkshop(8)}
	refunder := &mockRefunder{}
	svc := newService(repo, seats, refunder, &mockPublisher{})

	booking := testBooking("henry")
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("setup booking failed: %v", err)
	}

	// Both cancels read the booking as confirmed before either writes, so
	// the conditional flip is the only thing standing between them and a
	// double release.
	var barrier sync.WaitGroup
	barrier.Add(2)
	repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		repo.mu.Lock()
		b, ok := repo.bookings[id]
		var copied model.Booking
		if ok {
			copied = *b
		}
		repo.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
		}
		barrier.Done()
		barrier.Wait()
		return &copied, nil
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Cancel(context.Background(), booking.ID, "henry", false)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		if !apperrors.IsCode(err, apperrors.CodeAlreadyCancelled) {
			t.Errorf("losing cancel should report ALREADY_CANCELLED, got %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("expected exactly one cancel to win, got %d", successes)
	}
	if repo.cancelCalls != 1 {
		t.Errorf("expected one cancel write, got %d", repo.cancelCalls)
	}
	if seats.releaseCalls != 1 {
		t.Errorf("expected one seat release, got %d", seats.releaseCalls)
	}
	if seats.booked != 0 {
		t.Errorf("expected seat count back to 0, got %d", seats.booked)
	}
}

func TestCancel_RefundFailureLeavesStateUntouched(t *testing.T) {
	repo := newMockBookingRepository()
	seats := &mockSeatRepository{workshop: testWorkshop(8)}
	refunder := &mockRefunder{err: fmt.Errorf("gateway timeout")}
	svc := newService(repo, seats, refunder, &mockPublisher{})

	booking := testBooking("frank")
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("setup booking failed: %v", err)
	}

	err := svc.Cancel(context.Background(), booking.ID, "frank", false)
	if err == nil {
		t.Fatal("expected refund failure to abort cancellation")
	}
	if !apperrors.IsCode(err, apperrors.CodeRefundFailed) {
		t.Errorf("expected REFUND_FAILED, got %v", err)
	}
	if repo.cancelCalls != 0 {
		t.Errorf("booking state should not change on refund failure, got %d cancel writes", repo.cancelCalls)
	}
	if seats.releaseCalls != 0 {
		t.Errorf("seat should not be released on refund failure, got %d", seats.releaseCalls)
	}
}

func TestCancel_ForbiddenForOtherUser(t *testing.T) {
	repo := newMockBookingRepository()
	seats := &mockSeatRepository{workshop: testWorkshop(8)}
	svc := newService(repo, seats, &mockRefunder{}, &mockPublisher{})

	booking := testBooking("grace")
	if err := svc.Create(context.Background(), booking); err != nil {
		t.Fatalf("setup booking failed: %v", err)
	}

	err := svc.Cancel(context.Background(), booking.ID, "mallory", false)
	if err == nil {
		t.Fatal("expected forbidden for non-owner")
	}
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}

	// Admin override succeeds.
	if err := svc.Cancel(context.Background(), booking.ID, "mallory", true); err != nil {
		t.Errorf("admin cancel should succeed, got %v", err)
	}
}
