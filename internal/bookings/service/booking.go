package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "ceramico/internal/bookings/errors"
	"ceramico/internal/bookings/events"
	"ceramico/internal/bookings/repository"
	"ceramico/internal/bookings/validator"
	"ceramico/pkg/config"
	apperrors "ceramico/pkg/errors"
	"ceramico/pkg/model"
	"ceramico/pkg/payment"
	"ceramico/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id, requesterID string, isAdmin bool) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	ListByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Cancel(ctx context.Context, id, requesterID string, isAdmin bool) error
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.SlotLockRepository
	seats     repository.SeatRepository
	validator *validator.BookingValidator
	refunder  payment.Refunder
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.SlotLockRepository,
	seats repository.SeatRepository,
	validator *validator.BookingValidator,
	refunder payment.Refunder,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		seats:     seats,
		validator: validator,
		refunder:  refunder,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Create records a paid booking against a workshop session. The seat
// reservation and the ledger insert commit in one transaction; the advisory
// slot lock keeps concurrent requests for the same session from interleaving
// their duplicate checks.
func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	s.applyDefaults(booking)
	s.sanitize(booking)

	if err := s.resolveSession(ctx, booking); err != nil {
		return err
	}

	if err := s.validate(booking); err != nil {
		return err
	}

	lockID, err := s.acquireSlotLock(ctx, booking.WorkshopID, booking.SessionID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		duplicate, err := s.repo.HasActiveForSession(sessCtx, booking.UserID, booking.SessionID)
		if err != nil {
			return apperrors.Internal("Failed to check existing bookings", err)
		}
		if duplicate {
			return apperrors.DuplicateBooking(booking.UserID, booking.SessionID)
		}

		if err := s.seats.Reserve(sessCtx, booking.WorkshopID, booking.SessionID); err != nil {
			switch {
			case errors.Is(err, bookingserrors.ErrCapacityFull):
				return apperrors.CapacityExceeded(booking.SessionID)
			case errors.Is(err, bookingserrors.ErrSessionNotFound):
				return apperrors.NotFoundWithID("Session", booking.SessionID)
			case errors.Is(err, bookingserrors.ErrWorkshopNotFound):
				return apperrors.NotFoundWithID("Workshop", booking.WorkshopID)
			default:
				return apperrors.Internal("Failed to reserve seat", err)
			}
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}

		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"user_id", booking.UserID,
			"workshop_id", booking.WorkshopID,
			"session_id", booking.SessionID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"user_id", booking.UserID,
		"workshop_id", booking.WorkshopID,
		"session_id", booking.SessionID,
	)

	s.publish(ctx, model.NewBookingEvent(model.EventBookingConfirmed, booking))
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id, requesterID string, isAdmin bool) (*model.Booking, error) {
	booking, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isAdmin && booking.UserID != requesterID {
		return nil, apperrors.Forbidden("Booking belongs to another user")
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if userID == "" {
		return nil, 0, apperrors.InvalidInput("User ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByUser(ctx, userID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count user bookings", "user_id", userID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByUser(ctx, userID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list user bookings", "user_id", userID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Cancel refunds first and flips state second. A failed refund leaves the
// booking untouched so a retry goes through the same idempotent refund key.
func (s *bookingService) Cancel(ctx context.Context, id, requesterID string, isAdmin bool) error {
	booking, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}

	if !isAdmin && booking.UserID != requesterID {
		return apperrors.Forbidden("Booking belongs to another user")
	}

	switch booking.Status {
	case model.BookingCancelled:
		return apperrors.AlreadyCancelled(id)
	case model.BookingCompleted:
		return apperrors.Conflict("Completed bookings cannot be cancelled")
	}

	refunded := false
	if booking.PaymentStatus == model.PaymentPaid {
		if err := s.refunder.Refund(ctx, booking.PaymentIntentID, booking.ID); err != nil {
			s.cfg.Log.Error("Refund failed, cancellation aborted", "id", id, "error", err)
			return apperrors.RefundFailed(id, err)
		}
		refunded = true
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.SetCancelled(sessCtx, id, refunded); err != nil {
			switch {
			case errors.Is(err, bookingserrors.ErrAlreadyCancelled):
				return apperrors.AlreadyCancelled(id)
			case errors.Is(err, bookingserrors.ErrNotFound):
				return apperrors.NotFoundWithID("Booking", id)
			default:
				return apperrors.Internal("Failed to cancel booking", err)
			}
		}

		if err := s.seats.Release(sessCtx, booking.WorkshopID, booking.SessionID); err != nil {
			return apperrors.Internal("Failed to release seat", err)
		}

		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking cancelled", "id", id, "refunded", refunded)

	booking.Status = model.BookingCancelled
	if refunded {
		booking.PaymentStatus = model.PaymentRefunded
	}
	s.publish(ctx, model.NewBookingEvent(model.EventBookingCancelled, booking))
	return nil
}

// --- Helpers ---

func (s *bookingService) findByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

// resolveSession loads the workshop, checks the session exists and is still
// upcoming, and denormalizes display fields onto the booking.
func (s *bookingService) resolveSession(ctx context.Context, booking *model.Booking) error {
	if booking.WorkshopID == "" || booking.SessionID == "" {
		return apperrors.InvalidInput("Workshop ID and session ID are required")
	}

	workshop, err := s.seats.FindWorkshop(ctx, booking.WorkshopID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrWorkshopNotFound) {
			return apperrors.NotFoundWithID("Workshop", booking.WorkshopID)
		}
		return apperrors.Internal("Failed to load workshop", err)
	}

	session := workshop.SessionByID(booking.SessionID)
	if session == nil {
		return apperrors.NotFoundWithID("Session", booking.SessionID)
	}
	if session.SessionDate.Before(time.Now()) {
		return apperrors.InvalidInput("Session date is in the past")
	}

	booking.SessionDate = session.SessionDate
	booking.WorkshopTitle = workshop.Title
	booking.ImageURL = workshop.ImageURL

	return nil
}

func (s *bookingService) applyDefaults(b *model.Booking) {
	if b.Status == "" {
		b.Status = model.BookingConfirmed
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = model.PaymentPaid
	}
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.UserName = sanitizer.NormalizeName(b.UserName)
	b.UserEmail = sanitizer.TrimAndNormalize(b.UserEmail)
}

func (s *bookingService) validate(b *model.Booking) error {
	if err := s.validator.Validate(b); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Invalid booking input", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) acquireSlotLock(ctx context.Context, workshopID, sessionID string) (string, error) {
	lockID := fmt.Sprintf("slot_lock_%s_%s", workshopID, sessionID)

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(10 * time.Second),
	}

	if _, err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This session is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

func (s *bookingService) publish(ctx context.Context, event model.BookingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"type", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
	}
}
