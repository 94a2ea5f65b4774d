package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"appointment-planner/internal/model"
	"appointment-planner/internal/store"
)

func setup(t *testing.T) *store.Store {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(pool.Close)
	st := store.New(pool)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

func newUser(t *testing.T, st *store.Store, zone string) *model.User {
	t.Helper()
	u := &model.User{
		ID:                uuid.New().String(),
		Name:              "Test User",
		Username:          fmt.Sprintf("test-%s", uuid.New().String()[:8]),
		PreferredTimezone: zone,
		PasswordHash:      "x",
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestUserLifecycle(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	u := newUser(t, st, "Asia/Jakarta")
	if u.CreatedAt.IsZero() {
		t.Error("created_at not returned")
	}

	got, err := st.UserByUsername(ctx, u.Username)
	if err != nil {
		t.Fatalf("by username: %v", err)
	}
	if got.ID != u.ID || got.PreferredTimezone != "Asia/Jakarta" {
		t.Errorf("unexpected user %+v", got)
	}

	// duplicate username
	dup := *u
	dup.ID = uuid.New().String()
	if err := st.CreateUser(ctx, &dup); !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	u.PreferredTimezone = "Europe/Berlin"
	if err := st.UpdateUser(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = st.GetUser(ctx, u.ID)
	if got.PreferredTimezone != "Europe/Berlin" {
		t.Errorf("zone not updated: %s", got.PreferredTimezone)
	}

	if err := st.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.GetUser(ctx, u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.DeleteUser(ctx, u.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	// username is free again
	again := newUser(t, st, "UTC")
	_ = again
}

func TestAppointmentLifecycle(t *testing.T) {
	st := setup(t)
	ctx := context.Background()

	creator := newUser(t, st, "Asia/Jakarta")
	guest := newUser(t, st, "America/New_York")
	second := newUser(t, st, "Europe/Berlin")
	third := newUser(t, st, "Asia/Tokyo")
	outsider := newUser(t, st, "UTC")

	start := time.Now().Add(100 * time.Hour).Truncate(time.Second)
	a := &model.Appointment{
		ID:             uuid.New().String(),
		Title:          "Sync",
		CreatorID:      creator.ID,
		Start:          start,
		End:            start.Add(time.Hour),
		Status:         model.StatusConfirmed,
		ParticipantIDs: []string{creator.ID, third.ID, guest.ID, second.ID},
	}
	if err := st.CreateAppointment(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := st.GetAppointment(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// rows share one transaction timestamp; order must still be insertion order
	if !slices.Equal(got.ParticipantIDs, a.ParticipantIDs) {
		t.Errorf("participants %v, want %v", got.ParticipantIDs, a.ParticipantIDs)
	}
	if !got.Start.Equal(start) {
		t.Errorf("start mismatch: %v vs %v", got.Start, start)
	}

	from, to := start.Add(-time.Hour), start.Add(time.Hour)
	for _, uid := range []string{creator.ID, guest.ID} {
		list, err := st.ListAppointmentsFor(ctx, uid, from, to)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].ID != a.ID {
			t.Errorf("user %s: expected the appointment, got %d rows", uid, len(list))
		} else if !slices.Equal(list[0].ParticipantIDs, a.ParticipantIDs) {
			t.Errorf("user %s: participants %v", uid, list[0].ParticipantIDs)
		}
	}
	list, _ := st.ListAppointmentsFor(ctx, outsider.ID, from, to)
	if len(list) != 0 {
		t.Error("outsider can see the appointment")
	}

	if err := st.CancelAppointment(ctx, a.ID, guest.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("guest cancel: expected ErrNotFound, got %v", err)
	}
	if err := st.CancelAppointment(ctx, a.ID, creator.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	list, _ = st.ListAppointmentsFor(ctx, creator.ID, from, to)
	if len(list) != 0 {
		t.Error("cancelled appointment still listed")
	}
}

func TestSessions(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	u := newUser(t, st, "UTC")

	s := &model.Session{ID: uuid.New().String(), UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}
	if err := st.CreateSession(ctx, s); err != nil {
		t.Fatalf("create session: %v", err)
	}
	ok, err := st.SessionActive(ctx, s.ID)
	if err != nil || !ok {
		t.Fatalf("expected active session, got %v %v", ok, err)
	}

	if err := st.RevokeSession(ctx, s.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := st.SessionActive(ctx, s.ID); ok {
		t.Error("revoked session still active")
	}

	expired := &model.Session{ID: uuid.New().String(), UserID: u.ID, ExpiresAt: time.Now().Add(-time.Minute)}
	_ = st.CreateSession(ctx, expired)
	if ok, _ := st.SessionActive(ctx, expired.ID); ok {
		t.Error("expired session still active")
	}

	other := &model.Session{ID: uuid.New().String(), UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}
	_ = st.CreateSession(ctx, other)
	if err := st.RevokeAllSessions(ctx, u.ID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if ok, _ := st.SessionActive(ctx, other.ID); ok {
		t.Error("session survived revoke all")
	}
}
