package sqlite

import (
	"context"
	"fmt"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"
)

const tripColumns = `id, owner_id, title, location, notes, public, started_at, ended_at, created_at, updated_at`

func scanTrip(row rowScanner) (repository.Trip, error) {
	var t repository.Trip
	var public int
	var startedAt, endedAt, createdAt, updatedAt int64
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Location, &t.Notes, &public,
		&startedAt, &endedAt, &createdAt, &updatedAt)
	t.Public = public != 0
	t.StartedAt = fromMillis(startedAt)
	t.EndedAt = fromMillis(endedAt)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, err
}

func (s *Store) SaveTrip(ctx context.Context, t repository.Trip) error {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::SaveTrip"))
	defer span.Close()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO trip (`+tripColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	owner_id = excluded.owner_id,
	title = excluded.title,
	location = excluded.location,
	notes = excluded.notes,
	public = excluded.public,
	started_at = excluded.started_at,
	ended_at = excluded.ended_at,
	updated_at = excluded.updated_at`,
		t.ID, t.OwnerID, t.Title, t.Location, t.Notes, boolInt(t.Public),
		millis(t.StartedAt), millis(t.EndedAt), millis(t.CreatedAt), millis(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert trip %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) TripByID(ctx context.Context, id string) (*repository.Trip, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::TripByID"))
	defer span.Close()
	t, err := scanTrip(s.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trip WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "select trip "+id)
	}
	return &t, nil
}

// ListTrips returns trips of one owner, or every trip when ownerID is empty. Newest first.
func (s *Store) ListTrips(ctx context.Context, ownerID string) ([]repository.Trip, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::ListTrips"))
	defer span.Close()
	query := `SELECT ` + tripColumns + ` FROM trip`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY started_at DESC, created_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select trips: %w", err)
	}
	defer rows.Close()
	var trips []repository.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// DeleteTrip removes the trip together with its catches.
func (s *Store) DeleteTrip(ctx context.Context, id string) error {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::DeleteTrip"))
	defer span.Close()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete trip %s: %w", id, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM catch WHERE trip_id = ?`, id); err != nil {
		return fmt.Errorf("delete catches of trip %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM trip WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete trip %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete trip %s: %w", id, repository.ErrNotFound)
	}
	return tx.Commit()
}
