package validator

import (
	"strings"
	"testing"
	"time"

	"roomly/pkg/logger"
	"roomly/pkg/model"
)

func newTestValidator() *ReservationValidator {
	log := logger.New(logger.Config{
		Level:     logger.LevelError,
		Format:    logger.FormatJSON,
		AddSource: false,
		Service:   "test",
	})
	return NewReservationValidator(log)
}

func baseReservation() *model.Reservation {
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	return &model.Reservation{
		RoomID:    "507f1f77bcf86cd799439011",
		OwnerID:   "507f1f77bcf86cd799439012",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
}

func TestValidate(t *testing.T) {
	v := newTestValidator()
	now := time.Now().UTC()

	tests := []struct {
		name      string
		mutate    func(r *model.Reservation)
		wantError bool
	}{
		{
			name:      "valid reservation",
			mutate:    func(r *model.Reservation) {},
			wantError: false,
		},
		{
			name:      "missing room",
			mutate:    func(r *model.Reservation) { r.RoomID = "" },
			wantError: true,
		},
		{
			name:      "room not an object id",
			mutate:    func(r *model.Reservation) { r.RoomID = "conference-room-3" },
			wantError: true,
		},
		{
			name:      "missing owner",
			mutate:    func(r *model.Reservation) { r.OwnerID = "" },
			wantError: true,
		},
		{
			name:      "missing start time",
			mutate:    func(r *model.Reservation) { r.StartTime = time.Time{} },
			wantError: true,
		},
		{
			name:      "end before start",
			mutate:    func(r *model.Reservation) { r.EndTime = r.StartTime.Add(-time.Hour) },
			wantError: true,
		},
		{
			name:      "zero-length interval",
			mutate:    func(r *model.Reservation) { r.EndTime = r.StartTime },
			wantError: true,
		},
		{
			name: "past start time is allowed",
			mutate: func(r *model.Reservation) {
				r.StartTime = now.Add(-2 * time.Hour)
				r.EndTime = now.Add(-time.Hour)
			},
			wantError: false,
		},
		{
			name:      "cancelled at creation",
			mutate:    func(r *model.Reservation) { r.CancelledAt = &now },
			wantError: true,
		},
		{
			name:      "note at limit",
			mutate:    func(r *model.Reservation) { r.Note = strings.Repeat("a", 500) },
			wantError: false,
		},
		{
			name:      "note over limit",
			mutate:    func(r *model.Reservation) { r.Note = strings.Repeat("a", 501) },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := baseReservation()
			tt.mutate(r)
			err := v.Validate(r)
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidate_ErrorMessages(t *testing.T) {
	v := newTestValidator()

	r := baseReservation()
	r.EndTime = r.StartTime

	err := v.Validate(r)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "end_time must be after start_time") {
		t.Errorf("expected interval message, got: %v", err)
	}

	r = baseReservation()
	r.RoomID = ""
	err = v.Validate(r)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("expected required-field message, got: %v", err)
	}
}
