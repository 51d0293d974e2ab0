package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	workshopserrors "ceramico/internal/workshops/errors"
	"ceramico/internal/workshops/validator"
	"ceramico/pkg/config"
	mongotx "ceramico/pkg/db/mongo"
	apperrors "ceramico/pkg/errors"
	"ceramico/pkg/logger"
	"ceramico/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockWorkshopRepository struct {
	createFunc              func(ctx context.Context, w *model.Workshop) error
	findByIDFunc            func(ctx context.Context, id string) (*model.Workshop, error)
	findAllFunc             func(ctx context.Context, limit int, offset int64) ([]*model.Workshop, error)
	countFunc               func(ctx context.Context) (int64, error)
	updateMetadataFunc      func(ctx context.Context, id string, w *model.Workshop) (*mongo.UpdateResult, error)
	deleteFunc              func(ctx context.Context, id string) error
	countActiveBookingsFunc func(ctx context.Context, workshopID string) (int64, error)
}

func (m *mockWorkshopRepository) Create(ctx context.Context, w *model.Workshop) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, w)
	}
	return nil
}

func (m *mockWorkshopRepository) FindByID(ctx context.Context, id string) (*model.Workshop, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockWorkshopRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Workshop, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Workshop{}, nil
}

func (m *mockWorkshopRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockWorkshopRepository) UpdateMetadata(ctx context.Context, id string, w *model.Workshop) (*mongo.UpdateResult, error) {
	if m.updateMetadataFunc != nil {
		return m.updateMetadataFunc(ctx, id, w)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *mockWorkshopRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockWorkshopRepository) CountActiveBookings(ctx context.Context, workshopID string) (int64, error) {
	if m.countActiveBookingsFunc != nil {
		return m.countActiveBookingsFunc(ctx, workshopID)
	}
	return 0, nil
}

func (m *mockWorkshopRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		DefaultWindowMonths: 2,
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
	}
}

func validWorkshop() *model.Workshop {
	return &model.Workshop{
		Title:         "Wheel Throwing Basics",
		Instructor:    "Mara Ellison",
		PriceCents:    4500,
		StartDate:     time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		RecurringTime: "18:30",
		Recurrence:    model.RecurrenceWeekly,
		MaxSpots:      8,
	}
}

func TestCreate_GeneratesSessions(t *testing.T) {
	var stored *model.Workshop
	mockRepo := &mockWorkshopRepository{
		createFunc: func(ctx context.Context, w *model.Workshop) error {
			w.ID = "65f000000000000000000001"
			stored = w
			return nil
		},
	}

	svc := NewWorkshopService(mockRepo, validator.NewWorkshopValidator(), testConfig())

	workshop := validWorkshop()
	if err := svc.Create(context.Background(), workshop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored == nil {
		t.Fatal("workshop was not persisted")
	}
	if len(stored.Sessions) == 0 {
		t.Fatal("expected sessions to be generated")
	}
	for i, s := range stored.Sessions {
		if s.SessionID == "" {
			t.Errorf("session %d has empty session_id", i)
		}
		if s.BookedSpots != 0 {
			t.Errorf("session %d should start with zero booked spots, got %d", i, s.BookedSpots)
		}
		if hour, minute := s.SessionDate.Hour(), s.SessionDate.Minute(); hour != 18 || minute != 30 {
			t.Errorf("session %d has wrong time of day: %02d:%02d", i, hour, minute)
		}
	}
}

func TestCreate_DefaultWindowApplied(t *testing.T) {
	var stored *model.Workshop
	mockRepo := &mockWorkshopRepository{
		createFunc: func(ctx context.Context, w *model.Workshop) error {
			stored = w
			return nil
		},
	}

	svc := NewWorkshopService(mockRepo, validator.NewWorkshopValidator(), testConfig())

	workshop := validWorkshop()
	workshop.WindowMonths = 0
	if err := svc.Create(context.Background(), workshop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored.WindowMonths != 2 {
		t.Errorf("expected default window of 2 months, got %d", stored.WindowMonths)
	}
}

func TestCreate_InvalidClockRejected(t *testing.T) {
	svc := NewWorkshopService(&mockWorkshopRepository{}, validator.NewWorkshopValidator(), testConfig())

	workshop := validWorkshop()
	workshop.RecurringTime = "25:99"

	err := svc.Create(context.Background(), workshop)
	if err == nil {
		t.Fatal("expected error for invalid recurring time")
	}
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdate_RefusesShrinkBelowBooked(t *testing.T) {
	existing := validWorkshop()
	existing.ID = "65f000000000000000000001"
	existing.Sessions = []model.Session{
		{SessionID: "3b8f7a34-11b9-4c9e-9f2e-1df6f5a90001", SessionDate: time.Now().Add(24 * time.Hour), BookedSpots: 5},
	}

	mockRepo := &mockWorkshopRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Workshop, error) {
			return existing, nil
		},
	}

	svc := NewWorkshopService(mockRepo, validator.NewWorkshopValidator(), testConfig())

	smaller := 3
	err := svc.Update(context.Background(), existing.ID, &model.WorkshopUpdate{MaxSpots: &smaller})
	if err == nil {
		t.Fatal("expected conflict when shrinking max spots below booked seats")
	}
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestUpdate_ShrinkRacingReservationConflicts(t *testing.T) {
	// The stale read sees no booked seats; the repository's conditional
	// patch is what refuses the shrink.
	existing := validWorkshop()
	existing.ID = "65f000000000000000000001"
	existing.Sessions = []model.Session{
		{SessionID: "3b8f7a34-11b9-4c9e-9f2e-1df6f5a90001", SessionDate: time.Now().Add(24 * time.Hour), BookedSpots: 0},
	}

	mockRepo := &mockWorkshopRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Workshop, error) {
			return existing, nil
		},
		updateMetadataFunc: func(ctx context.Context, id string, w *model.Workshop) (*mongo.UpdateResult, error) {
			return nil, fmt.Errorf("%w: %d", workshopserrors.ErrMaxSpotsBelowBooked, w.MaxSpots)
		},
	}

	svc := NewWorkshopService(mockRepo, validator.NewWorkshopValidator(), testConfig())

	smaller := 3
	err := svc.Update(context.Background(), existing.ID, &model.WorkshopUpdate{MaxSpots: &smaller})
	if err == nil {
		t.Fatal("expected conflict when the conditional patch refuses the shrink")
	}
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestDelete_RefusedWhileBookingsActive(t *testing.T) {
	mockRepo := &mockWorkshopRepository{
		countActiveBookingsFunc: func(ctx context.Context, workshopID string) (int64, error) {
			return 3, nil
		},
	}

	svc := NewWorkshopService(mockRepo, validator.NewWorkshopValidator(), testConfig())

	err := svc.Delete(context.Background(), "65f000000000000000000001")
	if err == nil {
		t.Fatal("expected conflict for workshop with active bookings")
	}
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestAvailability_DerivedFromSessions(t *testing.T) {
	workshop := validWorkshop()
	workshop.ID = "65f000000000000000000001"
	workshop.Sessions = []model.Session{
		{SessionID: "3b8f7a34-11b9-4c9e-9f2e-1df6f5a90001", SessionDate: time.Now().Add(24 * time.Hour), BookedSpots: 3},
		{SessionID: "3b8f7a34-11b9-4c9e-9f2e-1df6f5a90002", SessionDate: time.Now().Add(48 * time.Hour), BookedSpots: 8},
	}

	mockRepo := &mockWorkshopRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Workshop, error) {
			return workshop, nil
		},
	}

	svc := NewWorkshopService(mockRepo, validator.NewWorkshopValidator(), testConfig())

	availability, err := svc.Availability(context.Background(), workshop.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(availability) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(availability))
	}
	if availability[0].AvailableSpots != 5 {
		t.Errorf("expected 5 available spots, got %d", availability[0].AvailableSpots)
	}
	if availability[1].AvailableSpots != 0 {
		t.Errorf("expected full session to report 0 available spots, got %d", availability[1].AvailableSpots)
	}
}
