package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"appointment-planner/internal/api"
	"appointment-planner/internal/session"
)

// Login opens a server session and returns the client-side Session for it.
func (c *Client) Login(ctx context.Context, username, password string) (*session.Session, error) {
	resp, err := call[api.LoginResponse](ctx, c, nil, http.MethodPost, "/api/login", nil,
		api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	return session.New(resp), nil
}

// Logout revokes the token server-side and destroys s. s is destroyed even
// when the server call fails.
func (c *Client) Logout(ctx context.Context, s *session.Session) error {
	defer s.Destroy()
	_, err := call[struct{}](ctx, c, s, http.MethodPost, "/api/logout", nil, nil)
	return err
}

func (c *Client) Users(ctx context.Context, s *session.Session) ([]api.User, error) {
	return call[[]api.User](ctx, c, s, http.MethodGet, "/api/users", nil, nil)
}

func (c *Client) User(ctx context.Context, s *session.Session, id string) (api.User, error) {
	return call[api.User](ctx, c, s, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateUser(ctx context.Context, s *session.Session, req api.CreateUserRequest) (api.User, error) {
	return call[api.User](ctx, c, s, http.MethodPost, "/api/users", nil, req)
}

func (c *Client) UpdateUser(ctx context.Context, s *session.Session, id string, req api.UpdateUserRequest) (api.User, error) {
	return call[api.User](ctx, c, s, http.MethodPut, "/api/users/"+url.PathEscape(id), nil, req)
}

func (c *Client) DeleteUser(ctx context.Context, s *session.Session, id string) error {
	_, err := call[struct{}](ctx, c, s, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, nil)
	return err
}

// Appointments lists the caller's appointments starting in [from, to). Zero
// bounds use the server's default range.
func (c *Client) Appointments(ctx context.Context, s *session.Session, from, to time.Time) ([]api.Appointment, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("from", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("to", to.UTC().Format(time.RFC3339))
	}
	return call[[]api.Appointment](ctx, c, s, http.MethodGet, "/api/appointments", q, nil)
}

func (c *Client) Appointment(ctx context.Context, s *session.Session, id string) (api.Appointment, error) {
	return call[api.Appointment](ctx, c, s, http.MethodGet, "/api/appointments/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CreateAppointment(ctx context.Context, s *session.Session, req api.CreateAppointmentRequest) (api.Appointment, error) {
	return call[api.Appointment](ctx, c, s, http.MethodPost, "/api/appointments", nil, req)
}

// Preview asks the server for the preview rows of a proposed time.
func (c *Client) Preview(ctx context.Context, s *session.Session, req api.PreviewRequest) (api.PreviewResponse, error) {
	return call[api.PreviewResponse](ctx, c, s, http.MethodPost, "/api/appointments/preview", nil, req)
}

func (c *Client) CancelAppointment(ctx context.Context, s *session.Session, id string) error {
	_, err := call[struct{}](ctx, c, s, http.MethodDelete, "/api/appointments/"+url.PathEscape(id), nil, nil)
	return err
}
