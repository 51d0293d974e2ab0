package service

import (
	"context"
	"errors"
	"sync"

	workshopserrors "ceramico/internal/workshops/errors"
	"ceramico/internal/workshops/repository"
	"ceramico/internal/workshops/validator"
	"ceramico/pkg/config"
	apperrors "ceramico/pkg/errors"
	"ceramico/pkg/model"
	"ceramico/pkg/sanitizer"
	"ceramico/pkg/schedule"
)

type WorkshopService interface {
	Create(ctx context.Context, workshop *model.Workshop) error
	GetByID(ctx context.Context, id string) (*model.Workshop, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Workshop, int64, error)
	Update(ctx context.Context, id string, updates *model.WorkshopUpdate) error
	Delete(ctx context.Context, id string) error
	Availability(ctx context.Context, id string) ([]model.SessionAvailability, error)
}

type workshopService struct {
	repo      repository.WorkshopRepository
	validator *validator.WorkshopValidator
	cfg       *config.Config
}

func NewWorkshopService(
	repo repository.WorkshopRepository,
	validator *validator.WorkshopValidator,
	cfg *config.Config,
) WorkshopService {
	return &workshopService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Create sanitizes and validates the workshop, materializes its session
// dates, and persists the whole document in one insert.
func (s *workshopService) Create(ctx context.Context, workshop *model.Workshop) error {
	s.applyDefaults(workshop)
	s.sanitize(workshop)

	sessions, err := schedule.Generate(workshop.StartDate, workshop.RecurringTime, workshop.Recurrence, workshop.WindowMonths)
	if err != nil {
		return apperrors.Validation("Invalid scheduling input", map[string]any{"error": err.Error()})
	}
	workshop.Sessions = sessions

	if err := s.validate(workshop); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, workshop); err != nil {
		s.cfg.Log.Error("Failed to create workshop", "title", workshop.Title, "error", err)
		return apperrors.Internal("Failed to create workshop", err)
	}

	s.cfg.Log.Info("Workshop created",
		"id", workshop.ID,
		"title", workshop.Title,
		"recurrence", workshop.Recurrence,
		"sessions", len(workshop.Sessions),
	)
	return nil
}

func (s *workshopService) GetByID(ctx context.Context, id string) (*model.Workshop, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Workshop ID cannot be empty")
	}

	workshop, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, workshopserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Workshop", id)
		}
		if errors.Is(err, workshopserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid workshop ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve workshop", err)
	}

	return workshop, nil
}

func (s *workshopService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Workshop, int64, error) {
	var count int64
	var workshops []*model.Workshop
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count workshops", "error", errCount)
			errCount = apperrors.Internal("Failed to count workshops", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		workshops, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list workshops", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve workshops", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return workshops, count, nil
}

// Update merge-patches workshop metadata. Shrinking max_spots below seats
// already booked in any session is refused.
func (s *workshopService) Update(ctx context.Context, id string, updates *model.WorkshopUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Workshop ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Workshop update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return err
	}

	if updates.MaxSpots != nil {
		if booked := validator.MaxBookedSpots(existing.Sessions); *updates.MaxSpots < booked {
			return apperrors.Conflict("Cannot reduce max spots below seats already booked")
		}
	}

	if _, err := s.repo.UpdateMetadata(ctx, id, merged); err != nil {
		switch {
		case errors.Is(err, workshopserrors.ErrNotFound):
			return apperrors.NotFoundWithID("Workshop", id)
		case errors.Is(err, workshopserrors.ErrMaxSpotsBelowBooked):
			return apperrors.Conflict("Cannot reduce max spots below seats already booked")
		default:
			s.cfg.Log.Error("Failed to update workshop", "id", id, "error", err)
			return apperrors.Internal("Failed to update workshop", err)
		}
	}

	s.cfg.Log.Info("Workshop updated", "id", id)
	return nil
}

// Delete removes a workshop unless bookings still hold seats in it.
func (s *workshopService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Workshop ID cannot be empty")
	}

	active, err := s.repo.CountActiveBookings(ctx, id)
	if err != nil {
		return apperrors.Internal("Failed to check workshop bookings", err)
	}
	if active > 0 {
		return apperrors.Conflict("Workshop has active bookings and cannot be deleted").
			WithDetails(map[string]any{"active_bookings": active})
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, workshopserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Workshop", id)
		}
		if errors.Is(err, workshopserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid workshop ID format")
		}
		return apperrors.Internal("Failed to delete workshop", err)
	}

	s.cfg.Log.Info("Workshop deleted", "id", id)
	return nil
}

// Availability derives the per-session seat view from the workshop document.
func (s *workshopService) Availability(ctx context.Context, id string) ([]model.SessionAvailability, error) {
	workshop, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	availability := make([]model.SessionAvailability, 0, len(workshop.Sessions))
	for _, session := range workshop.Sessions {
		available := workshop.MaxSpots - session.BookedSpots
		if available < 0 {
			available = 0
		}
		availability = append(availability, model.SessionAvailability{
			SessionID:      session.SessionID,
			SessionDate:    session.SessionDate,
			BookedSpots:    session.BookedSpots,
			AvailableSpots: available,
		})
	}

	return availability, nil
}

// --- Helpers ---

func (s *workshopService) applyDefaults(w *model.Workshop) {
	if w.WindowMonths == 0 {
		w.WindowMonths = s.cfg.DefaultWindowMonths
	}
}

func (s *workshopService) sanitize(w *model.Workshop) {
	w.Title = sanitizer.NormalizeTitle(w.Title)
	w.Instructor = sanitizer.NormalizeName(w.Instructor)
	w.Description = sanitizer.NormalizeText(w.Description)
	w.Duration = sanitizer.TrimAndNormalize(w.Duration)
	w.ImageURL = sanitizer.NormalizeImageURL(w.ImageURL)
}

func (s *workshopService) mergeUpdates(existing *model.Workshop, updates *model.WorkshopUpdate) *model.Workshop {
	merged := *existing

	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.Instructor != "" {
		merged.Instructor = updates.Instructor
	}
	if updates.Description != "" {
		merged.Description = updates.Description
	}
	if updates.PriceCents != nil {
		merged.PriceCents = *updates.PriceCents
	}
	if updates.Duration != "" {
		merged.Duration = updates.Duration
	}
	if updates.MaxSpots != nil {
		merged.MaxSpots = *updates.MaxSpots
	}
	if updates.ImageURL != "" {
		merged.ImageURL = updates.ImageURL
	}

	return &merged
}

func (s *workshopService) validate(w *model.Workshop) error {
	if err := s.validator.Validate(w); err != nil {
		s.cfg.Log.Warn("Workshop validation failed", "title", w.Title, "error", err)
		return apperrors.Validation("Invalid workshop input", map[string]any{"error": err.Error()})
	}
	return nil
}
