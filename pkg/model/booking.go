package model

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Booking is one reservation of a seat in a workshop session.
// WorkshopTitle, ImageURL and the user contact fields are denormalized at
// creation time so listings and emails do not depend on the workshop document.
type Booking struct {
	ID               string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID           string        `json:"user_id" bson:"user_id" validate:"required,min=1,max=64"`
	UserEmail        string        `json:"user_email" bson:"user_email" validate:"required,email"`
	UserName         string        `json:"user_name,omitempty" bson:"user_name" validate:"omitempty,min=1,max=100"`
	WorkshopID       string        `json:"workshop_id" bson:"workshop_id" validate:"required,mongodb"`
	SessionID        string        `json:"session_id" bson:"session_id" validate:"required,uuid4"`
	SessionDate      time.Time     `json:"session_date" bson:"session_date" validate:"required"`
	PaymentSessionID string        `json:"payment_session_id,omitempty" bson:"payment_session_id" validate:"omitempty,max=255"`
	PaymentIntentID  string        `json:"payment_intent_id,omitempty" bson:"payment_intent_id" validate:"omitempty,max=255"`
	Status           BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	PaymentStatus    PaymentStatus `json:"payment_status" bson:"payment_status" validate:"required,oneof=pending paid failed refunded"`
	WorkshopTitle    string        `json:"workshop_title,omitempty" bson:"workshop_title" validate:"omitempty,max=100"`
	ImageURL         string        `json:"image_url,omitempty" bson:"image_url" validate:"omitempty,url,max=500"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt        time.Time     `json:"updated_at,omitempty" bson:"updated_at" validate:"omitempty"`
}

// Active reports whether the booking still occupies a seat.
func (b *Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
