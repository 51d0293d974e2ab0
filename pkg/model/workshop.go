package model

import (
	"time"
)

type Recurrence string

const (
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
)

// Session is a single dated occurrence of a workshop. Sessions are embedded
// in the workshop document and referenced from bookings by session_id.
type Session struct {
	SessionID   string    `json:"session_id" bson:"session_id" validate:"required,uuid4"`
	SessionDate time.Time `json:"session_date" bson:"session_date" validate:"required"`
	BookedSpots int       `json:"booked_spots" bson:"booked_spots" validate:"min=0"`
}

type Workshop struct {
	ID            string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title         string     `json:"title" bson:"title" validate:"required,min=2,max=100"`
	Instructor    string     `json:"instructor" bson:"instructor" validate:"required,min=2,max=100"`
	Description   string     `json:"description,omitempty" bson:"description" validate:"omitempty,max=2000"`
	PriceCents    int64      `json:"price_cents" bson:"price_cents" validate:"required,min=0"`
	Duration      string     `json:"duration,omitempty" bson:"duration" validate:"omitempty,max=50"`
	StartDate     time.Time  `json:"start_date" bson:"start_date" validate:"required"`
	RecurringTime string     `json:"recurring_time" bson:"recurring_time" validate:"required,clock_hhmm"`
	Recurrence    Recurrence `json:"recurrence" bson:"recurrence" validate:"required,oneof=weekly biweekly monthly"`
	MaxSpots      int        `json:"max_spots" bson:"max_spots" validate:"required,min=1,max=200"`
	WindowMonths  int        `json:"window_months,omitempty" bson:"window_months" validate:"omitempty,min=1,max=12"`
	ImageURL      string     `json:"image_url,omitempty" bson:"image_url" validate:"omitempty,url,max=500"`
	Sessions      []Session  `json:"sessions" bson:"sessions" validate:"omitempty,dive"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt     time.Time  `json:"updated_at,omitempty" bson:"updated_at" validate:"omitempty"`
}

// SessionByID returns the embedded session with the given id, or nil.
func (w *Workshop) SessionByID(sessionID string) *Session {
	for i := range w.Sessions {
		if w.Sessions[i].SessionID == sessionID {
			return &w.Sessions[i]
		}
	}
	return nil
}

// WorkshopUpdate is a merge-patch for workshop metadata. Sessions are never
// patched directly; booked_spots moves only through reserve/release.
type WorkshopUpdate struct {
	Title       string `json:"title,omitempty" validate:"omitempty,min=2,max=100"`
	Instructor  string `json:"instructor,omitempty" validate:"omitempty,min=2,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
	PriceCents  *int64 `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	Duration    string `json:"duration,omitempty" validate:"omitempty,max=50"`
	MaxSpots    *int   `json:"max_spots,omitempty" validate:"omitempty,min=1,max=200"`
	ImageURL    string `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
}

// SessionAvailability is the derived per-session view served to clients.
type SessionAvailability struct {
	SessionID      string    `json:"session_id"`
	SessionDate    time.Time `json:"session_date"`
	BookedSpots    int       `json:"booked_spots"`
	AvailableSpots int       `json:"available_spots"`
}
