package sqlite

import (
	"context"
	"fmt"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"
)

const gearColumns = `id, owner_id, kind, brand, name, color, weight_g, notes, created_at, updated_at`

func scanGear(row rowScanner) (repository.Gear, error) {
	var g repository.Gear
	var createdAt, updatedAt int64
	err := row.Scan(&g.ID, &g.OwnerID, &g.Kind, &g.Brand, &g.Name, &g.Color, &g.WeightG,
		&g.Notes, &createdAt, &updatedAt)
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updatedAt)
	return g, err
}

func (s *Store) SaveGear(ctx context.Context, g repository.Gear) error {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::SaveGear"))
	defer span.Close()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO gear (`+gearColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kind = excluded.kind,
	brand = excluded.brand,
	name = excluded.name,
	color = excluded.color,
	weight_g = excluded.weight_g,
	notes = excluded.notes,
	updated_at = excluded.updated_at`,
		g.ID, g.OwnerID, g.Kind, g.Brand, g.Name, g.Color, g.WeightG, g.Notes,
		millis(g.CreatedAt), millis(g.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert gear %s: %w", g.ID, err)
	}
	return nil
}

func (s *Store) GearByID(ctx context.Context, id string) (*repository.Gear, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::GearByID"))
	defer span.Close()
	g, err := scanGear(s.db.QueryRowContext(ctx, `SELECT `+gearColumns+` FROM gear WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "select gear "+id)
	}
	return &g, nil
}

func (s *Store) ListGear(ctx context.Context, ownerID string) ([]repository.Gear, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::ListGear"))
	defer span.Close()
	query := `SELECT ` + gearColumns + ` FROM gear`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY kind, name, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select gear: %w", err)
	}
	defer rows.Close()
	var gear []repository.Gear
	for rows.Next() {
		g, err := scanGear(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gear: %w", err)
		}
		gear = append(gear, g)
	}
	return gear, rows.Err()
}

func (s *Store) DeleteGear(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gear WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete gear %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete gear %s: %w", id, repository.ErrNotFound)
	}
	return nil
}
