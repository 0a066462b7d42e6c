package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "roomly/pkg/errors"
	"roomly/pkg/logger"
	"roomly/pkg/middleware"
	"roomly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// Mock service for testing
type mockReservationService struct {
	createFunc      func(ctx context.Context, reservation *model.Reservation) error
	cancelFunc      func(ctx context.Context, id string, actor model.Actor) (*model.Reservation, error)
	getByIDFunc     func(ctx context.Context, id string) (*model.Reservation, error)
	isAvailableFunc func(ctx context.Context, roomID string, startTime, endTime time.Time, excludeID string) (bool, error)
	listActiveFunc  func(ctx context.Context, ownerID string, actor model.Actor, limit int, offset int64) ([]*model.Reservation, int64, error)
	listByRoomFunc  func(ctx context.Context, roomID string, includeCancelled bool, limit int, offset int64) ([]*model.Reservation, int64, error)
}

func (m *mockReservationService) Create(ctx context.Context, reservation *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, reservation)
	}
	return nil
}

func (m *mockReservationService) Cancel(ctx context.Context, id string, actor model.Actor) (*model.Reservation, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, id, actor)
	}
	return nil, nil
}

func (m *mockReservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockReservationService) IsAvailable(ctx context.Context, roomID string, startTime, endTime time.Time, excludeID string) (bool, error) {
	if m.isAvailableFunc != nil {
		return m.isAvailableFunc(ctx, roomID, startTime, endTime, excludeID)
	}
	return true, nil
}

func (m *mockReservationService) ListActive(ctx context.Context, ownerID string, actor model.Actor, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if m.listActiveFunc != nil {
		return m.listActiveFunc(ctx, ownerID, actor, limit, offset)
	}
	return []*model.Reservation{}, 0, nil
}

func (m *mockReservationService) ListByRoom(ctx context.Context, roomID string, includeCancelled bool, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if m.listByRoomFunc != nil {
		return m.listByRoomFunc(ctx, roomID, includeCancelled, limit, offset)
	}
	return []*model.Reservation{}, 0, nil
}

func newTestHandler(service *mockReservationService) *ReservationHandler {
	log := logger.New(logger.Config{
		Level:     logger.LevelError,
		Format:    logger.FormatJSON,
		AddSource: false,
		Service:   "test",
	})
	return NewReservationHandler(service, log)
}

func withActor(r *http.Request, actor model.Actor) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ActorKey, actor))
}

func TestCreate(t *testing.T) {
	t.Run("valid body returns 201", func(t *testing.T) {
		var received *model.Reservation
		h := newTestHandler(&mockReservationService{
			createFunc: func(ctx context.Context, reservation *model.Reservation) error {
				reservation.ID = "68b000000000000000000001"
				received = reservation
				return nil
			},
		})

		body := `{
			"room_id": "507f1f77bcf86cd799439011",
			"owner_id": "507f1f77bcf86cd799439012",
			"start_time": "2026-09-01T10:00:00Z",
			"end_time": "2026-09-01T11:00:00Z"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.Create(w, req, httprouter.Params{})

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}
		if received == nil {
			t.Fatal("service never called")
		}

		var resp struct {
			Data model.Reservation `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if resp.Data.ID != "68b000000000000000000001" {
			t.Errorf("expected generated ID in response, got %q", resp.Data.ID)
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		h := newTestHandler(&mockReservationService{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader("{not json"))
		w := httptest.NewRecorder()

		h.Create(w, req, httprouter.Params{})

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("client-supplied lifecycle fields are dropped", func(t *testing.T) {
		var received *model.Reservation
		h := newTestHandler(&mockReservationService{
			createFunc: func(ctx context.Context, reservation *model.Reservation) error {
				received = reservation
				return nil
			},
		})

		body := `{
			"id": "68b0000000000000000000ff",
			"room_id": "507f1f77bcf86cd799439011",
			"owner_id": "507f1f77bcf86cd799439012",
			"start_time": "2026-09-01T10:00:00Z",
			"end_time": "2026-09-01T11:00:00Z",
			"cancelled_at": "2026-09-01T10:30:00Z"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.Create(w, req, httprouter.Params{})

		if received == nil {
			t.Fatal("service never called")
		}
		if received.ID != "" {
			t.Errorf("client-supplied ID must be dropped, got %q", received.ID)
		}
		if received.CancelledAt != nil {
			t.Error("client-supplied cancelled_at must be dropped")
		}
	})

	t.Run("owner defaults to the acting user", func(t *testing.T) {
		var received *model.Reservation
		h := newTestHandler(&mockReservationService{
			createFunc: func(ctx context.Context, reservation *model.Reservation) error {
				received = reservation
				return nil
			},
		})

		body := `{
			"room_id": "507f1f77bcf86cd799439011",
			"start_time": "2026-09-01T10:00:00Z",
			"end_time": "2026-09-01T11:00:00Z"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
		req = withActor(req, model.Actor{ID: "507f1f77bcf86cd799439012"})
		w := httptest.NewRecorder()

		h.Create(w, req, httprouter.Params{})

		if received == nil {
			t.Fatal("service never called")
		}
		if received.OwnerID != "507f1f77bcf86cd799439012" {
			t.Errorf("expected owner from actor context, got %q", received.OwnerID)
		}
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		h := newTestHandler(&mockReservationService{
			createFunc: func(ctx context.Context, reservation *model.Reservation) error {
				return apperrors.Conflict("Reservation overlaps an existing booking")
			},
		})

		body := `{
			"room_id": "507f1f77bcf86cd799439011",
			"owner_id": "507f1f77bcf86cd799439012",
			"start_time": "2026-09-01T10:00:00Z",
			"end_time": "2026-09-01T11:00:00Z"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.Create(w, req, httprouter.Params{})

		if w.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})

	t.Run("lock timeout maps to 504", func(t *testing.T) {
		h := newTestHandler(&mockReservationService{
			createFunc: func(ctx context.Context, reservation *model.Reservation) error {
				return apperrors.Timeout("Timed out waiting for the room lock; the operation may be retried")
			},
		})

		body := `{
			"room_id": "507f1f77bcf86cd799439011",
			"owner_id": "507f1f77bcf86cd799439012",
			"start_time": "2026-09-01T10:00:00Z",
			"end_time": "2026-09-01T11:00:00Z"
		}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.Create(w, req, httprouter.Params{})

		if w.Code != http.StatusGatewayTimeout {
			t.Errorf("expected status %d, got %d", http.StatusGatewayTimeout, w.Code)
		}
	})
}

func TestCancel(t *testing.T) {
	t.Run("passes the actor through", func(t *testing.T) {
		var receivedID string
		var receivedActor model.Actor
		at := time.Now().UTC()
		h := newTestHandler(&mockReservationService{
			cancelFunc: func(ctx context.Context, id string, actor model.Actor) (*model.Reservation, error) {
				receivedID = id
				receivedActor = actor
				return &model.Reservation{ID: id, CancelledAt: &at}, nil
			},
		})

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/reservations/id/68b000000000000000000001", nil)
		req = withActor(req, model.Actor{ID: "admin-1", Elevated: true})
		w := httptest.NewRecorder()

		h.Cancel(w, req, httprouter.Params{{Key: "id", Value: "68b000000000000000000001"}})

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		if receivedID != "68b000000000000000000001" {
			t.Errorf("expected id passed through, got %q", receivedID)
		}
		if !receivedActor.Elevated || receivedActor.ID != "admin-1" {
			t.Errorf("expected actor from context, got %+v", receivedActor)
		}
	})

	t.Run("invalid state maps to 409", func(t *testing.T) {
		h := newTestHandler(&mockReservationService{
			cancelFunc: func(ctx context.Context, id string, actor model.Actor) (*model.Reservation, error) {
				return nil, apperrors.InvalidState("Cannot cancel a reservation that has already started")
			},
		})

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/reservations/id/68b000000000000000000001", nil)
		req = withActor(req, model.Actor{ID: "owner-1"})
		w := httptest.NewRecorder()

		h.Cancel(w, req, httprouter.Params{{Key: "id", Value: "68b000000000000000000001"}})

		if w.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		h := newTestHandler(&mockReservationService{
			cancelFunc: func(ctx context.Context, id string, actor model.Actor) (*model.Reservation, error) {
				return nil, apperrors.NotFoundWithID("Reservation", id)
			},
		})

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/reservations/id/68b000000000000000000001", nil)
		req = withActor(req, model.Actor{ID: "owner-1"})
		w := httptest.NewRecorder()

		h.Cancel(w, req, httprouter.Params{{Key: "id", Value: "68b000000000000000000001"}})

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestAvailability(t *testing.T) {
	t.Run("returns availability verdict", func(t *testing.T) {
		var receivedRoom, receivedExclude string
		var receivedStart, receivedEnd time.Time
		h := newTestHandler(&mockReservationService{
			isAvailableFunc: func(ctx context.Context, roomID string, startTime, endTime time.Time, excludeID string) (bool, error) {
				receivedRoom = roomID
				receivedStart = startTime
				receivedEnd = endTime
				receivedExclude = excludeID
				return false, nil
			},
		})

		url := "/api/v1/reservations/availability" +
			"?room_id=507f1f77bcf86cd799439011" +
			"&start_time=2026-09-01T10:00:00Z" +
			"&end_time=2026-09-01T11:00:00Z" +
			"&exclude_id=68b000000000000000000001"
		req := httptest.NewRequest(http.MethodGet, url, nil)
		w := httptest.NewRecorder()

		h.Availability(w, req, httprouter.Params{})

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp map[string]bool
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if resp["available"] {
			t.Error("expected available=false")
		}

		if receivedRoom != "507f1f77bcf86cd799439011" {
			t.Errorf("unexpected room: %q", receivedRoom)
		}
		if receivedExclude != "68b000000000000000000001" {
			t.Errorf("unexpected exclude_id: %q", receivedExclude)
		}
		wantStart := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
		if !receivedStart.Equal(wantStart) || !receivedEnd.Equal(wantStart.Add(time.Hour)) {
			t.Errorf("unexpected window: %v - %v", receivedStart, receivedEnd)
		}
	})

	t.Run("missing start_time returns 400", func(t *testing.T) {
		h := newTestHandler(&mockReservationService{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/availability?room_id=507f1f77bcf86cd799439011", nil)
		w := httptest.NewRecorder()

		h.Availability(w, req, httprouter.Params{})

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("non-RFC3339 time returns 400", func(t *testing.T) {
		h := newTestHandler(&mockReservationService{})

		url := "/api/v1/reservations/availability?room_id=x&start_time=tomorrow&end_time=2026-09-01T11:00:00Z"
		req := httptest.NewRequest(http.MethodGet, url, nil)
		w := httptest.NewRecorder()

		h.Availability(w, req, httprouter.Params{})

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestListByRoom(t *testing.T) {
	var receivedRoom string
	var receivedIncludeCancelled bool
	h := newTestHandler(&mockReservationService{
		listByRoomFunc: func(ctx context.Context, roomID string, includeCancelled bool, limit int, offset int64) ([]*model.Reservation, int64, error) {
			receivedRoom = roomID
			receivedIncludeCancelled = includeCancelled
			return []*model.Reservation{}, 0, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/507f1f77bcf86cd799439011/reservations?include_cancelled=true", nil)
	w := httptest.NewRecorder()

	h.ListByRoom(w, req, httprouter.Params{{Key: "room_id", Value: "507f1f77bcf86cd799439011"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if receivedRoom != "507f1f77bcf86cd799439011" {
		t.Errorf("unexpected room: %q", receivedRoom)
	}
	if !receivedIncludeCancelled {
		t.Error("expected include_cancelled to be true")
	}
}

func TestListActive_OwnerFromQuery(t *testing.T) {
	var receivedOwner string
	var receivedActor model.Actor
	h := newTestHandler(&mockReservationService{
		listActiveFunc: func(ctx context.Context, ownerID string, actor model.Actor, limit int, offset int64) ([]*model.Reservation, int64, error) {
			receivedOwner = ownerID
			receivedActor = actor
			return []*model.Reservation{}, 0, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations?owner_id=507f1f77bcf86cd799439012", nil)
	req = withActor(req, model.Actor{ID: "507f1f77bcf86cd799439012"})
	w := httptest.NewRecorder()

	h.ListActive(w, req, httprouter.Params{})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if receivedOwner != "507f1f77bcf86cd799439012" {
		t.Errorf("unexpected owner: %q", receivedOwner)
	}
	if receivedActor.ID != "507f1f77bcf86cd799439012" {
		t.Errorf("unexpected actor: %+v", receivedActor)
	}
}
