package validator

import (
	"errors"
	"fmt"
	"regexp"

	"ceramico/pkg/model"

	"github.com/go-playground/validator/v10"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

type WorkshopValidator struct {
	validate *validator.Validate
}

func NewWorkshopValidator() *WorkshopValidator {
	v := validator.New()

	_ = v.RegisterValidation("clock_hhmm", func(fl validator.FieldLevel) bool {
		return clockRegex.MatchString(fl.Field().String())
	})

	return &WorkshopValidator{validate: v}
}

func (v *WorkshopValidator) Validate(w *model.Workshop) error {
	if err := v.validate.Struct(w); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateBusinessRules(w)
}

func (v *WorkshopValidator) ValidateUpdate(u *model.WorkshopUpdate) error {
	if err := v.validate.Struct(u); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *WorkshopValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: messageFor(err),
		})
	}

	return validationErrors
}

func messageFor(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", err.Param())
	case "clock_hhmm":
		return "must be a 24-hour clock time in HH:MM format"
	case "url":
		return "must be a valid URL"
	case "uuid4":
		return "must be a valid UUID"
	case "mongodb":
		return "must be a valid object ID"
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}

func (v *WorkshopValidator) validateBusinessRules(w *model.Workshop) error {
	var errs ValidationErrors

	if w.StartDate.IsZero() {
		errs = append(errs, ValidationError{Field: "StartDate", Message: "is required"})
	}

	for i, s := range w.Sessions {
		if s.BookedSpots > w.MaxSpots {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("Sessions[%d].BookedSpots", i),
				Message: fmt.Sprintf("cannot exceed max spots (%d)", w.MaxSpots),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MaxBookedSpots returns the highest booked count across sessions. Used to
// refuse shrinking max_spots below seats already sold.
func MaxBookedSpots(sessions []model.Session) int {
	maxBooked := 0
	for _, s := range sessions {
		if s.BookedSpots > maxBooked {
			maxBooked = s.BookedSpots
		}
	}
	return maxBooked
}
