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

func scanGear(res result.Result) (repository.Gear, error) {
	var g repository.Gear
	err := res.ScanNamed(
		named.Required("id", &g.ID),
		named.OptionalWithDefault("owner_id", &g.OwnerID),
		named.OptionalWithDefault("kind", &g.Kind),
		named.OptionalWithDefault("brand", &g.Brand),
		named.OptionalWithDefault("name", &g.Name),
		named.OptionalWithDefault("color", &g.Color),
		named.OptionalWithDefault("weight_g", &g.WeightG),
		named.OptionalWithDefault("notes", &g.Notes),
		named.OptionalWithDefault("created_at", &g.CreatedAt),
		named.OptionalWithDefault("updated_at", &g.UpdatedAt),
	)
	g.CreatedAt, g.UpdatedAt = utc(g.CreatedAt), utc(g.UpdatedAt)
	return g, err
}

func (s *Store) SaveGear(ctx context.Context, g repository.Gear) error {
	return s.exec(ctx, "SaveGear", `
DECLARE $id AS Utf8;
DECLARE $owner_id AS Utf8;
DECLARE $kind AS Utf8;
DECLARE $brand AS Utf8;
DECLARE $name AS Utf8;
DECLARE $color AS Utf8;
DECLARE $weight_g AS Int64;
DECLARE $notes AS Utf8;
DECLARE $created_at AS Optional<Timestamp>;
DECLARE $updated_at AS Optional<Timestamp>;
UPSERT INTO gear (id, owner_id, kind, brand, name, color, weight_g, notes, created_at, updated_at)
VALUES ($id, $owner_id, $kind, $brand, $name, $color, $weight_g, $notes, $created_at, $updated_at);`,
		table.ValueParam("$id", types.UTF8Value(g.ID)),
		table.ValueParam("$owner_id", types.UTF8Value(g.OwnerID)),
		table.ValueParam("$kind", types.UTF8Value(g.Kind)),
		table.ValueParam("$brand", types.UTF8Value(g.Brand)),
		table.ValueParam("$name", types.UTF8Value(g.Name)),
		table.ValueParam("$color", types.UTF8Value(g.Color)),
		table.ValueParam("$weight_g", types.Int64Value(g.WeightG)),
		table.ValueParam("$notes", types.UTF8Value(g.Notes)),
		table.ValueParam("$created_at", timestamp(g.CreatedAt)),
		table.ValueParam("$updated_at", timestamp(g.UpdatedAt)),
	)
}

func (s *Store) GearByID(ctx context.Context, id string) (*repository.Gear, error) {
	var gear []repository.Gear
	err := s.query(ctx, "GearByID", `
DECLARE $id AS Utf8;
SELECT * FROM gear WHERE id = $id;`,
		func(res result.Result) error {
			g, err := scanGear(res)
			gear = append(gear, g)
			return err
		},
		table.ValueParam("$id", types.UTF8Value(id)),
	)
	if err != nil {
		return nil, err
	}
	if len(gear) == 0 {
		return nil, fmt.Errorf("gear %s: %w", id, repository.ErrNotFound)
	}
	return &gear[0], nil
}

func (s *Store) ListGear(ctx context.Context, ownerID string) ([]repository.Gear, error) {
	var gear []repository.Gear
	err := s.query(ctx, "ListGear", `
DECLARE $owner_id AS Utf8;
SELECT * FROM gear
WHERE $owner_id = ""u OR owner_id = $owner_id
ORDER BY kind, name, id;`,
		func(res result.Result) error {
			g, err := scanGear(res)
			gear = append(gear, g)
			return err
		},
		table.ValueParam("$owner_id", types.UTF8Value(ownerID)),
	)
	return gear, err
}

func (s *Store) DeleteGear(ctx context.Context, id string) error {
	if _, err := s.GearByID(ctx, id); err != nil {
		return fmt.Errorf("delete gear: %w", err)
	}
	return s.exec(ctx, "DeleteGear", `
DECLARE $id AS Utf8;
DELETE FROM gear WHERE id = $id;`,
		table.ValueParam("$id", types.UTF8Value(id)),
	)
}
