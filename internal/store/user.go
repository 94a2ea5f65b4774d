package store

import (
	"context"

	"appointment-planner/internal/model"
)

const userCols = `id, name, username, preferred_timezone, password_hash, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.PreferredTimezone, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, username, preferred_timezone, password_hash)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Username, u.PreferredTimezone, u.PasswordHash,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return translate(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE username = $1 AND deleted_at IS NULL`, username))
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT `+userCols+` FROM users WHERE deleted_at IS NULL ORDER BY name, username`)
}

// UsersByIDs returns the live users among ids; unknown ids are skipped.
func (s *Store) UsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryUsers(ctx,
		`SELECT `+userCols+` FROM users WHERE id = ANY($1) AND deleted_at IS NULL ORDER BY name`, ids)
}

func (s *Store) queryUsers(ctx context.Context, q string, args ...any) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE users
		 SET name=$1, preferred_timezone=$2, password_hash=$3, updated_at=NOW()
		 WHERE id=$4 AND deleted_at IS NULL
		 RETURNING updated_at`,
		u.Name, u.PreferredTimezone, u.PasswordHash, u.ID,
	).Scan(&u.UpdatedAt)
	return translate(err)
}

// DeleteUser soft-deletes the user and revokes their sessions.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE users SET deleted_at=NOW(), updated_at=NOW() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`UPDATE sessions SET revoked = true WHERE user_id = $1 AND revoked = false`, id)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
