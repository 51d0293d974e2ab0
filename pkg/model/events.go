package model

import "time"

// Booking lifecycle event types published to the booking-events topic.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is the payload published for booking lifecycle changes and
// consumed by the notifier.
type BookingEvent struct {
	Type          string        `json:"type"`
	BookingID     string        `json:"booking_id"`
	UserID        string        `json:"user_id"`
	UserEmail     string        `json:"user_email"`
	UserName      string        `json:"user_name,omitempty"`
	WorkshopID    string        `json:"workshop_id"`
	WorkshopTitle string        `json:"workshop_title,omitempty"`
	SessionID     string        `json:"session_id"`
	SessionDate   time.Time     `json:"session_date"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// NewBookingEvent snapshots a booking into an event payload.
func NewBookingEvent(eventType string, b *Booking) BookingEvent {
	return BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		UserID:        b.UserID,
		UserEmail:     b.UserEmail,
		UserName:      b.UserName,
		WorkshopID:    b.WorkshopID,
		WorkshopTitle: b.WorkshopTitle,
		SessionID:     b.SessionID,
		SessionDate:   b.SessionDate,
		PaymentStatus: b.PaymentStatus,
		OccurredAt:    time.Now().UTC(),
	}
}
