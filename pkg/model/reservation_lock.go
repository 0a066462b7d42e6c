package model

import "time"

// ReservationLock is an advisory lock document keyed by room. Holding it
// serializes creation attempts on one room while leaving other rooms free.
// ExpiresAt bounds how long a crashed holder can block the room.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
