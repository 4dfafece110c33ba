package sqlite

import (
	"context"
	"fmt"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"
)

const catchColumns = `id, trip_id, owner_id, species, length_cm, weight_g, gear_id, notes, released, caught_at, created_at`

func scanCatch(row rowScanner) (repository.Catch, error) {
	var c repository.Catch
	var released int
	var caughtAt, createdAt int64
	err := row.Scan(&c.ID, &c.TripID, &c.OwnerID, &c.Species, &c.LengthCm, &c.WeightG,
		&c.GearID, &c.Notes, &released, &caughtAt, &createdAt)
	c.Released = released != 0
	c.CaughtAt = fromMillis(caughtAt)
	c.CreatedAt = fromMillis(createdAt)
	return c, err
}

func (s *Store) SaveCatch(ctx context.Context, c repository.Catch) error {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::SaveCatch"))
	defer span.Close()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO catch (`+catchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	species = excluded.species,
	length_cm = excluded.length_cm,
	weight_g = excluded.weight_g,
	gear_id = excluded.gear_id,
	notes = excluded.notes,
	released = excluded.released,
	caught_at = excluded.caught_at`,
		c.ID, c.TripID, c.OwnerID, c.Species, c.LengthCm, c.WeightG, c.GearID, c.Notes,
		boolInt(c.Released), millis(c.CaughtAt), millis(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert catch %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) CatchByID(ctx context.Context, id string) (*repository.Catch, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::CatchByID"))
	defer span.Close()
	c, err := scanCatch(s.db.QueryRowContext(ctx, `SELECT `+catchColumns+` FROM catch WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "select catch "+id)
	}
	return &c, nil
}

func (s *Store) ListCatches(ctx context.Context, tripID string) ([]repository.Catch, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::ListCatches"))
	defer span.Close()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+catchColumns+` FROM catch WHERE trip_id = ? ORDER BY caught_at, created_at, id`, tripID)
	if err != nil {
		return nil, fmt.Errorf("select catches of trip %s: %w", tripID, err)
	}
	defer rows.Close()
	var catches []repository.Catch
	for rows.Next() {
		c, err := scanCatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catch: %w", err)
		}
		catches = append(catches, c)
	}
	return catches, rows.Err()
}

func (s *Store) DeleteCatch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catch WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete catch %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete catch %s: %w", id, repository.ErrNotFound)
	}
	return nil
}
