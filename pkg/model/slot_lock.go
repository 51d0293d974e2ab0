package model

import "time"

// SlotLock is an advisory lock preventing concurrent booking creation against
// the same workshop session while the duplicate and capacity checks run.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
