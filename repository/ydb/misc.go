package ydb

import (
	"context"
	"fmt"

	"mikhailche/lurelog/repository"

	"github.com/ydb-platform/ydb-go-sdk/v3/table"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/result"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/result/named"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/types"
)

func (s *Store) SaveShortLink(ctx context.Context, l repository.ShortLink) error {
	return s.exec(ctx, "SaveShortLink", `
DECLARE $code AS Utf8;
DECLARE $target AS Utf8;
DECLARE $owner_id AS Utf8;
DECLARE $hits AS Int64;
DECLARE $created_at AS Optional<Timestamp>;
UPSERT INTO short_link (code, target, owner_id, hits, created_at)
VALUES ($code, $target, $owner_id, $hits, $created_at);`,
		table.ValueParam("$code", types.UTF8Value(l.Code)),
		table.ValueParam("$target", types.UTF8Value(l.Target)),
		table.ValueParam("$owner_id", types.UTF8Value(l.OwnerID)),
		table.ValueParam("$hits", types.Int64Value(l.Hits)),
		table.ValueParam("$created_at", timestamp(l.CreatedAt)),
	)
}

func (s *Store) ShortLinkByCode(ctx context.Context, code string) (*repository.ShortLink, error) {
	var links []repository.ShortLink
	err := s.query(ctx, "ShortLinkByCode", `
DECLARE $code AS Utf8;
SELECT * FROM short_link WHERE code = $code;`,
		func(res result.Result) error {
			var l repository.ShortLink
			err := res.ScanNamed(
				named.Required("code", &l.Code),
				named.OptionalWithDefault("target", &l.Target),
				named.OptionalWithDefault("owner_id", &l.OwnerID),
				named.OptionalWithDefault("hits", &l.Hits),
				named.OptionalWithDefault("created_at", &l.CreatedAt),
			)
			l.CreatedAt = utc(l.CreatedAt)
			links = append(links, l)
			return err
		},
		table.ValueParam("$code", types.UTF8Value(code)),
	)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("short link %s: %w", code, repository.ErrNotFound)
	}
	return &links[0], nil
}

func (s *Store) CountShortLinkHit(ctx context.Context, code string) error {
	return s.exec(ctx, "CountShortLinkHit", `
DECLARE $code AS Utf8;
UPDATE short_link SET hits = COALESCE(hits, 0l) + 1l WHERE code = $code;`,
		table.ValueParam("$code", types.UTF8Value(code)),
	)
}

func (s *Store) SaveSpecies(ctx context.Context, sp repository.Species) error {
	return s.exec(ctx, "SaveSpecies", `
DECLARE $name AS Utf8;
DECLARE $family AS Utf8;
UPSERT INTO species (name, family) VALUES ($name, $family);`,
		table.ValueParam("$name", types.UTF8Value(sp.Name)),
		table.ValueParam("$family", types.UTF8Value(sp.Family)),
	)
}

func (s *Store) ListSpecies(ctx context.Context) ([]repository.Species, error) {
	var species []repository.Species
	err := s.query(ctx, "ListSpecies", `SELECT name, family FROM species ORDER BY name;`,
		func(res result.Result) error {
			var sp repository.Species
			err := res.ScanNamed(
				named.Required("name", &sp.Name),
				named.OptionalWithDefault("family", &sp.Family),
			)
			species = append(species, sp)
			return err
		},
	)
	return species, err
}

func (s *Store) AppendAudit(ctx context.Context, e repository.AuditEntry) error {
	return s.exec(ctx, "AppendAudit", `
DECLARE $id AS Utf8;
DECLARE $at AS Optional<Timestamp>;
DECLARE $actor_id AS Utf8;
DECLARE $kind AS Utf8;
DECLARE $subject AS Utf8;
DECLARE $detail AS Utf8;
UPSERT INTO audit_log (id, at, actor_id, kind, subject, detail)
VALUES ($id, $at, $actor_id, $kind, $subject, $detail);`,
		table.ValueParam("$id", types.UTF8Value(e.ID)),
		table.ValueParam("$at", timestamp(e.At)),
		table.ValueParam("$actor_id", types.UTF8Value(e.ActorID)),
		table.ValueParam("$kind", types.UTF8Value(e.Kind)),
		table.ValueParam("$subject", types.UTF8Value(e.Subject)),
		table.ValueParam("$detail", types.UTF8Value(e.Detail)),
	)
}

// ListAudit returns the newest entries first.
func (s *Store) ListAudit(ctx context.Context, limit int) ([]repository.AuditEntry, error) {
	var entries []repository.AuditEntry
	err := s.query(ctx, "ListAudit", `
DECLARE $limit AS Uint64;
SELECT * FROM audit_log ORDER BY at DESC, id DESC LIMIT $limit;`,
		func(res result.Result) error {
			var e repository.AuditEntry
			err := res.ScanNamed(
				named.Required("id", &e.ID),
				named.OptionalWithDefault("at", &e.At),
				named.OptionalWithDefault("actor_id", &e.ActorID),
				named.OptionalWithDefault("kind", &e.Kind),
				named.OptionalWithDefault("subject", &e.Subject),
				named.OptionalWithDefault("detail", &e.Detail),
			)
			e.At = utc(e.At)
			entries = append(entries, e)
			return err
		},
		table.ValueParam("$limit", types.Uint64Value(uint64(limit))),
	)
	return entries, err
}
