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

func scanCatch(res result.Result) (repository.Catch, error) {
	var c repository.Catch
	err := res.ScanNamed(
		named.Required("id", &c.ID),
		named.OptionalWithDefault("trip_id", &c.TripID),
		named.OptionalWithDefault("owner_id", &c.OwnerID),
		named.OptionalWithDefault("species", &c.Species),
		named.OptionalWithDefault("length_cm", &c.LengthCm),
		named.OptionalWithDefault("weight_g", &c.WeightG),
		named.OptionalWithDefault("gear_id", &c.GearID),
		named.OptionalWithDefault("notes", &c.Notes),
		named.OptionalWithDefault("released", &c.Released),
		named.OptionalWithDefault("caught_at", &c.CaughtAt),
		named.OptionalWithDefault("created_at", &c.CreatedAt),
	)
	c.CaughtAt, c.CreatedAt = utc(c.CaughtAt), utc(c.CreatedAt)
	return c, err
}

func (s *Store) SaveCatch(ctx context.Context, c repository.Catch) error {
	return s.exec(ctx, "SaveCatch", `
DECLARE $id AS Utf8;
DECLARE $trip_id AS Utf8;
DECLARE $owner_id AS Utf8;
DECLARE $species AS Utf8;
DECLARE $length_cm AS Double;
DECLARE $weight_g AS Int64;
DECLARE $gear_id AS Utf8;
DECLARE $notes AS Utf8;
DECLARE $released AS Bool;
DECLARE $caught_at AS Optional<Timestamp>;
DECLARE $created_at AS Optional<Timestamp>;
UPSERT INTO catch (id, trip_id, owner_id, species, length_cm, weight_g, gear_id, notes, released, caught_at, created_at)
VALUES ($id, $trip_id, $owner_id, $species, $length_cm, $weight_g, $gear_id, $notes, $released, $caught_at, $created_at);`,
		table.ValueParam("$id", types.UTF8Value(c.ID)),
		table.ValueParam("$trip_id", types.UTF8Value(c.TripID)),
		table.ValueParam("$owner_id", types.UTF8Value(c.OwnerID)),
		table.ValueParam("$species", types.UTF8Value(c.Species)),
		table.ValueParam("$length_cm", types.DoubleValue(c.LengthCm)),
		table.ValueParam("$weight_g", types.Int64Value(c.WeightG)),
		table.ValueParam("$gear_id", types.UTF8Value(c.GearID)),
		table.ValueParam("$notes", types.UTF8Value(c.Notes)),
		table.ValueParam("$released", types.BoolValue(c.Released)),
		table.ValueParam("$caught_at", timestamp(c.CaughtAt)),
		table.ValueParam("$created_at", timestamp(c.CreatedAt)),
	)
}

func (s *Store) CatchByID(ctx context.Context, id string) (*repository.Catch, error) {
	var catches []repository.Catch
	err := s.query(ctx, "CatchByID", `
DECLARE $id AS Utf8;
SELECT * FROM catch WHERE id = $id;`,
		func(res result.Result) error {
			c, err := scanCatch(res)
			catches = append(catches, c)
			return err
		},
		table.ValueParam("$id", types.UTF8Value(id)),
	)
	if err != nil {
		return nil, err
	}
	if len(catches) == 0 {
		return nil, fmt.Errorf("catch %s: %w", id, repository.ErrNotFound)
	}
	return &catches[0], nil
}

func (s *Store) ListCatches(ctx context.Context, tripID string) ([]repository.Catch, error) {
	var catches []repository.Catch
	err := s.query(ctx, "ListCatches", `
DECLARE $trip_id AS Utf8;
SELECT * FROM catch WHERE trip_id = $trip_id ORDER BY caught_at, created_at, id;`,
		func(res result.Result) error {
			c, err := scanCatch(res)
			catches = append(catches, c)
			return err
		},
		table.ValueParam("$trip_id", types.UTF8Value(tripID)),
	)
	return catches, err
}

func (s *Store) DeleteCatch(ctx context.Context, id string) error {
	if _, err := s.CatchByID(ctx, id); err != nil {
		return fmt.Errorf("delete catch: %w", err)
	}
	return s.exec(ctx, "DeleteCatch", `
DECLARE $id AS Utf8;
DELETE FROM catch WHERE id = $id;`,
		table.ValueParam("$id", types.UTF8Value(id)),
	)
}
