package sqlite

import (
	"context"
	"fmt"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"
)

func (s *Store) SaveShortLink(ctx context.Context, l repository.ShortLink) error {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::SaveShortLink"))
	defer span.Close()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO short_link (code, target, owner_id, hits, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(code) DO UPDATE SET target = excluded.target, hits = excluded.hits`,
		l.Code, l.Target, l.OwnerID, l.Hits, millis(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert short link %s: %w", l.Code, err)
	}
	return nil
}

func (s *Store) ShortLinkByCode(ctx context.Context, code string) (*repository.ShortLink, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::ShortLinkByCode"))
	defer span.Close()
	var l repository.ShortLink
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT code, target, owner_id, hits, created_at FROM short_link WHERE code = ?`, code,
	).Scan(&l.Code, &l.Target, &l.OwnerID, &l.Hits, &createdAt)
	if err != nil {
		return nil, notFound(err, "select short link "+code)
	}
	l.CreatedAt = fromMillis(createdAt)
	return &l, nil
}

func (s *Store) CountShortLinkHit(ctx context.Context, code string) error {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::CountShortLinkHit"))
	defer span.Close()
	res, err := s.db.ExecContext(ctx, `UPDATE short_link SET hits = hits + 1 WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("count short link hit %s: %w", code, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("short link %s: %w", code, repository.ErrNotFound)
	}
	return nil
}

func (s *Store) SaveSpecies(ctx context.Context, sp repository.Species) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO species (name, family) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET family = excluded.family`, sp.Name, sp.Family)
	if err != nil {
		return fmt.Errorf("upsert species %s: %w", sp.Name, err)
	}
	return nil
}

func (s *Store) ListSpecies(ctx context.Context) ([]repository.Species, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::ListSpecies"))
	defer span.Close()
	rows, err := s.db.QueryContext(ctx, `SELECT name, family FROM species ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select species: %w", err)
	}
	defer rows.Close()
	var species []repository.Species
	for rows.Next() {
		var sp repository.Species
		if err := rows.Scan(&sp.Name, &sp.Family); err != nil {
			return nil, fmt.Errorf("scan species: %w", err)
		}
		species = append(species, sp)
	}
	return species, rows.Err()
}

func (s *Store) AppendAudit(ctx context.Context, e repository.AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, at, actor_id, kind, subject, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, millis(e.At), e.ActorID, e.Kind, e.Subject, e.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit %s: %w", e.ID, err)
	}
	return nil
}

// ListAudit returns the newest entries first.
func (s *Store) ListAudit(ctx context.Context, limit int) ([]repository.AuditEntry, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::ListAudit"))
	defer span.Close()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, at, actor_id, kind, subject, detail FROM audit_log ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select audit: %w", err)
	}
	defer rows.Close()
	var entries []repository.AuditEntry
	for rows.Next() {
		var e repository.AuditEntry
		var at int64
		if err := rows.Scan(&e.ID, &at, &e.ActorID, &e.Kind, &e.Subject, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		e.At = fromMillis(at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
