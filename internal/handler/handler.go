package handler

import (
	"context"
	"time"

	"appointment-planner/internal/auth"
	"appointment-planner/internal/model"
	"appointment-planner/internal/tzconv"
)

// Store is the persistence the handlers need; *store.Store satisfies it.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UsersByIDs(ctx context.Context, ids []string) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id string) error

	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointmentsFor(ctx context.Context, userID string, from, to time.Time) ([]model.Appointment, error)
	CancelAppointment(ctx context.Context, id, creatorID string) error

	CreateSession(ctx context.Context, s *model.Session) error
	SessionActive(ctx context.Context, id string) (bool, error)
	RevokeSession(ctx context.Context, id string) error
	RevokeAllSessions(ctx context.Context, userID string) error
}

type Handler struct {
	store  Store
	engine *tzconv.Engine
	issuer *auth.Issuer
	policy tzconv.Policy
	now    func() time.Time
}

func New(st Store, engine *tzconv.Engine, issuer *auth.Issuer, policy tzconv.Policy) *Handler {
	if policy == "" {
		policy = tzconv.PolicyCreator
	}
	return &Handler{store: st, engine: engine, issuer: issuer, policy: policy, now: time.Now}
}
