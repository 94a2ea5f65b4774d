package store

import (
	"context"
	"time"

	"appointment-planner/internal/model"
)

const appointmentCols = `id, title, creator_id, start_time, end_time, status, created_at, updated_at`

func scanAppointment(row rowScanner) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := row.Scan(&a.ID, &a.Title, &a.CreatorID, &a.Start, &a.End, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

// CreateAppointment inserts the appointment and its participant rows in one
// transaction.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO appointments (id, title, creator_id, start_time, end_time, status)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at, updated_at`,
		a.ID, a.Title, a.CreatorID, a.Start, a.End, a.Status,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return translate(err)
	}

	for i, uid := range a.ParticipantIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO appointment_participants (appointment_id, user_id, position) VALUES ($1,$2,$3)
			 ON CONFLICT DO NOTHING`,
			a.ID, uid, i,
		)
		if err != nil {
			return translate(err)
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a, err := scanAppointment(s.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	parts, err := s.participants(ctx, []string{a.ID})
	if err != nil {
		return nil, err
	}
	a.ParticipantIDs = parts[a.ID]
	return a, nil
}

// ListAppointmentsFor returns confirmed appointments userID takes part in
// that start within [from, to), ordered by start.
func (s *Store) ListAppointmentsFor(ctx context.Context, userID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appointmentCols+`
		 FROM appointments a
		 WHERE a.status = 'confirmed'
		   AND a.start_time >= $2 AND a.start_time < $3
		   AND EXISTS (
		       SELECT 1 FROM appointment_participants p
		       WHERE p.appointment_id = a.id AND p.user_id = $1)
		 ORDER BY a.start_time`, userID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	var ids []string
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	parts, err := s.participants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].ParticipantIDs = parts[out[i].ID]
	}
	return out, nil
}

func (s *Store) participants(ctx context.Context, appointmentIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(appointmentIDs))
	if len(appointmentIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT appointment_id, user_id FROM appointment_participants
		 WHERE appointment_id = ANY($1)
		 ORDER BY position, created_at`, appointmentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var aid, uid string
		if err := rows.Scan(&aid, &uid); err != nil {
			return nil, err
		}
		out[aid] = append(out[aid], uid)
	}
	return out, rows.Err()
}

// CancelAppointment marks the appointment cancelled; only its creator may.
func (s *Store) CancelAppointment(ctx context.Context, id, creatorID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE appointments SET status='cancelled', updated_at=NOW()
		 WHERE id=$1 AND creator_id=$2 AND status='confirmed'`, id, creatorID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
