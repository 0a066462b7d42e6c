package service

import (
	"context"
	"errors"
	"fmt"
	reservationserrors "roomly/internal/reservations/errors"
	"roomly/internal/reservations/repository"
	"roomly/internal/reservations/validator"
	"roomly/pkg/config"
	apperrors "roomly/pkg/errors"
	"roomly/pkg/kafka"
	"roomly/pkg/model"
	"roomly/pkg/sanitizer"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type ReservationService interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	Cancel(ctx context.Context, id string, actor model.Actor) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	IsAvailable(ctx context.Context, roomID string, startTime, endTime time.Time, excludeID string) (bool, error)
	ListActive(ctx context.Context, ownerID string, actor model.Actor, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListByRoom(ctx context.Context, roomID string, includeCancelled bool, limit int, offset int64) ([]*model.Reservation, int64, error)
}

// EventPublisher is the slice of the Kafka producer the service needs.
// A nil publisher disables event emission.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.ReservationLockRepository
	validator *validator.ReservationValidator
	events    EventPublisher
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.ReservationLockRepository,
	validator *validator.ReservationValidator,
	events EventPublisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		events:    events,
		cfg:       cfg,
	}
}

// Overlaps reports whether the half-open intervals [start1, end1) and
// [start2, end2) intersect. Back-to-back intervals share a boundary instant
// but do not overlap; identical and nested intervals do. Both the create
// path and the availability query go through this one predicate.
func Overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && end1.After(start2)
}

// Create inserts a reservation if and only if no active reservation on the
// same room overlaps it. The overlap check and the insert run inside one
// transaction while an advisory lock on the room serializes concurrent
// creators, so a check performed here cannot be invalidated before the
// insert commits. Creators of other rooms never wait on this lock.
func (s *reservationService) Create(ctx context.Context, reservation *model.Reservation) error {
	reservation.Note = sanitizer.NormalizeNote(reservation.Note)
	if err := s.validate(reservation); err != nil {
		return err
	}

	lockID, err := s.acquireRoomLock(ctx, reservation.RoomID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseRoomLock(context.WithoutCancel(ctx), lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.checkConflicts(sessCtx, reservation); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return apperrors.Conflict("An identical reservation already exists for this room and interval")
			}
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation",
			"room_id", reservation.RoomID,
			"owner_id", reservation.OwnerID,
			"error", err,
		)
		return err
	}

	s.publishEvent(ctx, kafka.EventReservationCreated, reservation, reservation.OwnerID)

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"room_id", reservation.RoomID,
		"owner_id", reservation.OwnerID,
		"start_time", reservation.StartTime,
		"end_time", reservation.EndTime,
	)
	return nil
}

// Cancel retires a reservation without deleting it. Owners may cancel their
// own upcoming reservations; elevated actors may cancel anything, including
// reservations already underway. An already-cancelled reservation counts as
// gone: the caller gets not-found, never a silent success.
func (s *reservationService) Cancel(ctx context.Context, id string, actor model.Actor) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	if actor.ID == "" {
		return nil, apperrors.Unauthorized("Cancellation requires an acting user")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	if !reservation.Active() {
		return nil, apperrors.NotFoundWithID("Reservation", id)
	}

	if reservation.OwnerID != actor.ID && !actor.Elevated {
		return nil, apperrors.Forbidden("Only the reservation owner or an administrator may cancel it")
	}

	if !actor.Elevated && !reservation.StartTime.After(time.Now().UTC()) {
		return nil, apperrors.InvalidState("Cannot cancel a reservation that has already started")
	}

	cancelled, err := s.repo.Cancel(ctx, id, time.Now().UTC())
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			// Lost a race with a concurrent cancel between the read above
			// and this update.
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to cancel reservation", err)
	}

	s.publishEvent(ctx, kafka.EventReservationCancelled, cancelled, actor.ID)

	s.cfg.Log.Info("Reservation cancelled",
		"id", cancelled.ID,
		"room_id", cancelled.RoomID,
		"actor_id", actor.ID,
		"elevated", actor.Elevated,
	)
	return cancelled, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	return reservation, nil
}

// IsAvailable answers whether the interval is free on the room right now.
// It is advisory: it takes no lock, so a later Create may still fail with a
// conflict if someone books the slot in between.
func (s *reservationService) IsAvailable(ctx context.Context, roomID string, startTime, endTime time.Time, excludeID string) (bool, error) {
	if roomID == "" {
		return false, apperrors.InvalidInput("Room ID cannot be empty")
	}
	if !endTime.After(startTime) {
		return false, apperrors.InvalidInput("end_time must be after start_time")
	}

	active, err := s.repo.FindActiveByRoom(ctx, roomID, &startTime, &endTime)
	if err != nil {
		return false, apperrors.Internal("Failed to check availability", err)
	}

	for _, existing := range active {
		if existing.ID == excludeID {
			continue
		}
		if Overlaps(existing.StartTime, existing.EndTime, startTime, endTime) {
			return false, nil
		}
	}
	return true, nil
}

// ListActive returns active reservations ordered by start time. An empty
// ownerID means "across all owners", which only elevated actors may request.
func (s *reservationService) ListActive(ctx context.Context, ownerID string, actor model.Actor, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if ownerID == "" && !actor.Elevated {
		return nil, 0, apperrors.Forbidden("Listing reservations across all owners requires an administrator")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountActive(ctx, ownerID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "owner_id", ownerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindActive(ctx, ownerID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "owner_id", ownerID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

// ListByRoom serves the room-lifecycle collaborator: active reservations
// block a room's deletion, and includeCancelled exposes the audit trail.
func (s *reservationService) ListByRoom(ctx context.Context, roomID string, includeCancelled bool, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if roomID == "" {
		return nil, 0, apperrors.InvalidInput("Room ID cannot be empty")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByRoom(ctx, roomID, includeCancelled)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count room reservations", "room_id", roomID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindByRoom(ctx, roomID, includeCancelled, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list room reservations", "room_id", roomID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

// --- Helpers ---

func (s *reservationService) validate(reservation *model.Reservation) error {
	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *reservationService) mapLookupError(err error, id string) error {
	if errors.Is(err, reservationserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Reservation", id)
	}
	if errors.Is(err, reservationserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid reservation ID format")
	}
	return apperrors.Internal("Failed to retrieve reservation", err)
}

// checkConflicts evaluates the overlap predicate against every active
// reservation on the room whose interval intersects the candidate window.
// Runs inside the creation transaction, under the room lock.
func (s *reservationService) checkConflicts(ctx context.Context, reservation *model.Reservation) error {
	existing, err := s.repo.FindActiveByRoom(ctx, reservation.RoomID, &reservation.StartTime, &reservation.EndTime)
	if err != nil {
		return apperrors.Internal("Failed to check existing reservations", err)
	}

	for _, other := range existing {
		if other.ID == reservation.ID {
			continue
		}
		if Overlaps(other.StartTime, other.EndTime, reservation.StartTime, reservation.EndTime) {
			return apperrors.Conflict(fmt.Sprintf(
				"Reservation overlaps an existing booking (%s - %s)",
				other.StartTime.Format(time.RFC3339),
				other.EndTime.Format(time.RFC3339),
			))
		}
	}
	return nil
}

// acquireRoomLock serializes creation attempts per room. Acquisition polls
// on duplicate-key collisions rather than failing fast, clearing stale locks
// whose TTL has lapsed, and gives up with a retryable timeout once
// LockWaitTimeout elapses.
func (s *reservationService) acquireRoomLock(ctx context.Context, roomID string) (string, error) {
	lockID := fmt.Sprintf("room_lock_%s", roomID)
	deadline := time.Now().Add(s.cfg.LockWaitTimeout)

	for {
		lock := &model.ReservationLock{
			ID:        lockID,
			ExpiresAt: time.Now().UTC().Add(s.cfg.LockTTL),
		}

		_, err := s.lockRepo.Create(ctx, lock)
		if err == nil {
			return lockID, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Internal("Failed to acquire room lock", err)
		}

		if _, delErr := s.lockRepo.DeleteExpired(ctx, lockID, time.Now().UTC()); delErr != nil {
			return "", apperrors.Internal("Failed to clear stale room lock", delErr)
		}

		if time.Now().After(deadline) {
			return "", apperrors.Timeout("Timed out waiting for the room lock; the operation may be retried")
		}

		select {
		case <-ctx.Done():
			return "", apperrors.Timeout("Request cancelled while waiting for the room lock")
		case <-time.After(s.cfg.LockPollInterval):
		}
	}
}

func (s *reservationService) releaseRoomLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

// publishEvent emits a lifecycle event, best effort. Event delivery failures
// never fail the reservation operation itself.
func (s *reservationService) publishEvent(ctx context.Context, eventType string, reservation *model.Reservation, actorID string) {
	if s.events == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(reservation.RoomID).
		WithEventType(eventType).
		WithSource("reservations").
		WithValue(kafka.ReservationEvent{
			ReservationID: reservation.ID,
			RoomID:        reservation.RoomID,
			OwnerID:       reservation.OwnerID,
			StartTime:     reservation.StartTime,
			EndTime:       reservation.EndTime,
			CancelledAt:   reservation.CancelledAt,
			ActorID:       actorID,
		}).
		Build()

	if err := s.events.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event",
			"event_type", eventType,
			"reservation_id", reservation.ID,
			"error", err,
		)
	}
}
