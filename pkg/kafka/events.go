package kafka

import "time"

// Topics carrying reservation lifecycle events. Messages are keyed by room id
// so all events for one room land on the same partition, in order.
const (
	TopicReservationEvents = "reservation-events"
	TopicReservationDLQ    = "reservation-events-dlq"

	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is the payload published on every successful create or
// cancel. It is a snapshot, not a reference: consumers never read the store.
type ReservationEvent struct {
	ReservationID string     `json:"reservation_id"`
	RoomID        string     `json:"room_id"`
	OwnerID       string     `json:"owner_id"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       time.Time  `json:"end_time"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	ActorID       string     `json:"actor_id,omitempty"`
}
