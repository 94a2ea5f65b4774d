package store

import (
	"context"

	"appointment-planner/internal/model"
)

func (s *Store) CreateSession(ctx context.Context, sess *model.Session) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES ($1,$2,$3)
		 RETURNING created_at`,
		sess.ID, sess.UserID, sess.ExpiresAt,
	).Scan(&sess.CreatedAt)
	return translate(err)
}

// SessionActive reports whether the session exists, is not revoked and has
// not expired.
func (s *Store) SessionActive(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM sessions
			WHERE id = $1 AND revoked = false AND expires_at > NOW())`, id,
	).Scan(&ok)
	return ok, err
}

func (s *Store) RevokeSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE sessions SET revoked = true WHERE id = $1`, id)
	return err
}

// RevokeAllSessions signs a user out everywhere, e.g. after a password change.
func (s *Store) RevokeAllSessions(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE sessions SET revoked = true WHERE user_id = $1 AND revoked = false`,
		userID,
	)
	return err
}
