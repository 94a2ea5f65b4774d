package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appointment-planner/internal/api"
	"appointment-planner/internal/session"
	"appointment-planner/internal/tzconv"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithRetry(3, time.Millisecond), WithTimeout(2*time.Second))
}

func activeSession() *session.Session {
	return session.New(api.LoginResponse{Token: "tok-1", ExpiresAt: time.Now().Add(time.Hour)})
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "testpass123" {
			writeJSON(w, http.StatusUnauthorized, api.ErrorResponse{Error: "invalid credentials", Code: 401})
			return
		}
		writeJSON(w, http.StatusOK, api.Envelope[api.LoginResponse]{Data: api.LoginResponse{
			Token:     "tok-1",
			ExpiresAt: time.Now().Add(time.Hour),
			User:      api.User{ID: "u1", Name: "Andi", PreferredTimezone: "Asia/Jakarta"},
		}})
	})

	s, err := c.Login(context.Background(), "andi", "testpass123")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", s.Token)
	assert.Equal(t, "Asia/Jakarta", s.User.PreferredTimezone)

	_, err = c.Login(context.Background(), "andi", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid credentials", apiErr.Message)
}

func TestBearerTokenAndEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-05-01T00:00:00Z", r.URL.Query().Get("from"))
		assert.Empty(t, r.URL.Query().Get("to"))
		writeJSON(w, http.StatusOK, api.Envelope[[]api.Appointment]{Data: []api.Appointment{
			{ID: "a1", Title: "Sync", StartLocal: "2024-05-31 22:00:00"},
		}})
	})

	from := time.Date(2024, 5, 1, 7, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	list, err := c.Appointments(context.Background(), activeSession(), from, time.Time{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-05-31 22:00:00", list[0].StartLocal)
}

func TestErrorMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/missing":
			writeJSON(w, http.StatusNotFound, api.ErrorResponse{Error: "user not found", Code: 404})
		case "/api/users/plain":
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		default:
			writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid timezone: Mars/Base", Code: 400})
		}
	})
	s := activeSession()

	_, err := c.User(context.Background(), s, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUnauthorized)

	_, err = c.User(context.Background(), s, "plain")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusMethodNotAllowed, apiErr.Status)
	assert.Equal(t, "method not allowed", apiErr.Message)

	_, err = c.CreateUser(context.Background(), s, api.CreateUserRequest{Name: "X"})
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid timezone: Mars/Base", apiErr.Message)
}

func TestRetryOnlyIdempotentGets(t *testing.T) {
	var gets, posts int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if atomic.AddInt32(&gets, 1) < 3 {
				writeJSON(w, http.StatusServiceUnavailable, api.ErrorResponse{Error: "database unavailable", Code: 503})
				return
			}
			writeJSON(w, http.StatusOK, api.Envelope[[]api.User]{Data: []api.User{{ID: "u1"}}})
			return
		}
		atomic.AddInt32(&posts, 1)
		writeJSON(w, http.StatusServiceUnavailable, api.ErrorResponse{Error: "database unavailable", Code: 503})
	})
	s := activeSession()

	users, err := c.Users(context.Background(), s)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&gets))

	_, err = c.CreateAppointment(context.Background(), s, api.CreateAppointmentRequest{Title: "X"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&posts))
}

func TestRetryGivesUp(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, http.StatusBadGateway, api.ErrorResponse{Error: "upstream", Code: 502})
	})

	_, err := c.Users(context.Background(), activeSession())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	// first attempt plus three retries
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}

func TestNoSessionShortCircuits(t *testing.T) {
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
	})

	s := activeSession()
	s.Destroy()
	_, err := c.Users(context.Background(), s)
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestLogoutDestroysSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/logout", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	s := activeSession()
	require.NoError(t, c.Logout(context.Background(), s))
	assert.False(t, s.Active(time.Now()))
}

func TestPreviewDecodesRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		e := tzconv.New()
		rows := e.BuildPreviews(
			tzconv.Participant{Zone: "Asia/Jakarta", Label: "Andi"},
			tzconv.WallClock{Year: 2024, Month: 6, Day: 1, Hour: 9},
			tzconv.WallClock{Year: 2024, Month: 6, Day: 1, Hour: 10},
			[]tzconv.Participant{{Zone: "America/New_York", Label: "Nina"}, {Zone: "Mars/Base", Label: "Zed"}},
		)
		writeJSON(w, http.StatusOK, api.Envelope[api.PreviewResponse]{Data: api.PreviewResponse{Window: "09:00-17:00", Previews: rows}})
	})

	pr, err := c.Preview(context.Background(), activeSession(), api.PreviewRequest{Start: "2024-06-01T09:00:00", End: "2024-06-01T10:00:00"})
	require.NoError(t, err)
	require.Len(t, pr.Previews, 3)
	assert.True(t, pr.Previews[0].WithinWorkingHours)
	assert.Equal(t, "22:00", pr.Previews[1].DisplayStart())
	assert.Equal(t, 31, pr.Previews[1].Start.Day)
	assert.False(t, pr.Previews[1].WithinWorkingHours)
	assert.Error(t, pr.Previews[2].Err)
	assert.Equal(t, tzconv.ErrorDisplay, pr.Previews[2].DisplayStart())
}
