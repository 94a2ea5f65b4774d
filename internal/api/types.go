// Package api holds the JSON wire types shared by the REST handlers and the
// Go client.
package api

import (
	"time"

	"appointment-planner/internal/tzconv"
)

// Envelope wraps every successful response body.
type Envelope[T any] struct {
	Data T `json:"data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// User is also written to the CLI session file, hence the yaml tags.
type User struct {
	ID                string    `json:"id" yaml:"id"`
	Name              string    `json:"name" yaml:"name"`
	Username          string    `json:"username" yaml:"username"`
	PreferredTimezone string    `json:"preferred_timezone" yaml:"preferred_timezone"`
	CreatedAt         time.Time `json:"created_at,omitzero" yaml:"-"`
	UpdatedAt         time.Time `json:"updated_at,omitzero" yaml:"-"`
}

type CreateUserRequest struct {
	Name              string `json:"name"`
	Username          string `json:"username"`
	PreferredTimezone string `json:"preferred_timezone"`
	Password          string `json:"password"`
}

// UpdateUserRequest changes only the fields that are set.
type UpdateUserRequest struct {
	Name              *string `json:"name,omitempty"`
	PreferredTimezone *string `json:"preferred_timezone,omitempty"`
	Password          *string `json:"password,omitempty"`
}

// CreateAppointmentRequest carries start and end either as RFC3339 instants
// or as naive local date-times in the creator's preferred zone.
type CreateAppointmentRequest struct {
	Title          string   `json:"title"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	ParticipantIDs []string `json:"participant_ids"`
}

type PreviewRequest struct {
	Start          string   `json:"start"`
	End            string   `json:"end"`
	ParticipantIDs []string `json:"participant_ids"`
}

type PreviewResponse struct {
	Start    time.Time        `json:"start,omitzero"`
	End      time.Time        `json:"end,omitzero"`
	Window   string           `json:"working_hours"`
	Previews []tzconv.Preview `json:"previews"`
}

// Appointment is rendered for a viewer: StartLocal and EndLocal are in the
// viewer's preferred zone.
type Appointment struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatorID    string    `json:"creator_id"`
	Status       string    `json:"status"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	StartLocal   string    `json:"start_local"`
	EndLocal     string    `json:"end_local"`
	Creator      User      `json:"creator"`
	Participants []User    `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}
