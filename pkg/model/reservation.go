package model

import (
	"time"
)

// Reservation is a time-bounded claim on a room by an owner. RoomID, OwnerID
// and the interval are fixed at creation; the only mutation ever applied is
// setting CancelledAt, exactly once. A nil CancelledAt means the reservation
// is active and participates in conflict checks.
type Reservation struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomID      string     `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	OwnerID     string     `json:"owner_id" bson:"owner_id" validate:"required,mongodb"`
	StartTime   time.Time  `json:"start_time" bson:"start_time" validate:"required"`
	EndTime     time.Time  `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	Note        string     `json:"note,omitempty" bson:"note,omitempty" validate:"omitempty,max=500"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty" validate:"omitempty"`
}

// Active reports whether the reservation still holds its time slot.
func (r *Reservation) Active() bool {
	return r.CancelledAt == nil
}
