package model

import "time"

const DefaultTimezone = "Asia/Jakarta"

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type User struct {
	ID                string
	Name              string
	Username          string
	PreferredTimezone string
	PasswordHash      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Appointment struct {
	ID             string
	Title          string
	CreatorID      string
	Start          time.Time
	End            time.Time
	Status         string
	ParticipantIDs []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasParticipant reports whether uid created or was invited to the appointment.
func (a *Appointment) HasParticipant(uid string) bool {
	if a.CreatorID == uid {
		return true
	}
	for _, p := range a.ParticipantIDs {
		if p == uid {
			return true
		}
	}
	return false
}

// Session is a server-side login; the access token's jti names it.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
