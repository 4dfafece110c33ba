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

func scanTrip(res result.Result) (repository.Trip, error) {
	var t repository.Trip
	err := res.ScanNamed(
		named.Required("id", &t.ID),
		named.OptionalWithDefault("owner_id", &t.OwnerID),
		named.OptionalWithDefault("title", &t.Title),
		named.OptionalWithDefault("location", &t.Location),
		named.OptionalWithDefault("notes", &t.Notes),
		named.OptionalWithDefault("public", &t.Public),
		named.OptionalWithDefault("started_at", &t.StartedAt),
		named.OptionalWithDefault("ended_at", &t.EndedAt),
		named.OptionalWithDefault("created_at", &t.CreatedAt),
		named.OptionalWithDefault("updated_at", &t.UpdatedAt),
	)
	t.StartedAt, t.EndedAt = utc(t.StartedAt), utc(t.EndedAt)
	t.CreatedAt, t.UpdatedAt = utc(t.CreatedAt), utc(t.UpdatedAt)
	return t, err
}

func (s *Store) SaveTrip(ctx context.Context, t repository.Trip) error {
	return s.exec(ctx, "SaveTrip", `
DECLARE $id AS Utf8;
DECLARE $owner_id AS Utf8;
DECLARE $title AS Utf8;
DECLARE $location AS Utf8;
DECLARE $notes AS Utf8;
DECLARE $public AS Bool;
DECLARE $started_at AS Optional<Timestamp>;
DECLARE $ended_at AS Optional<Timestamp>;
DECLARE $created_at AS Optional<Timestamp>;
DECLARE $updated_at AS Optional<Timestamp>;
UPSERT INTO trip (id, owner_id, title, location, notes, public, started_at, ended_at, created_at, updated_at)
VALUES ($id, $owner_id, $title, $location, $notes, $public, $started_at, $ended_at, $created_at, $updated_at);`,
		table.ValueParam("$id", types.UTF8Value(t.ID)),
		table.ValueParam("$owner_id", types.UTF8Value(t.OwnerID)),
		table.ValueParam("$title", types.UTF8Value(t.Title)),
		table.ValueParam("$location", types.UTF8Value(t.Location)),
		table.ValueParam("$notes", types.UTF8Value(t.Notes)),
		table.ValueParam("$public", types.BoolValue(t.Public)),
		table.ValueParam("$started_at", timestamp(t.StartedAt)),
		table.ValueParam("$ended_at", timestamp(t.EndedAt)),
		table.ValueParam("$created_at", timestamp(t.CreatedAt)),
		table.ValueParam("$updated_at", timestamp(t.UpdatedAt)),
	)
}

func (s *Store) TripByID(ctx context.Context, id string) (*repository.Trip, error) {
	var trips []repository.Trip
	err := s.query(ctx, "TripByID", `
DECLARE $id AS Utf8;
SELECT * FROM trip WHERE id = $id;`,
		func(res result.Result) error {
			t, err := scanTrip(res)
			trips = append(trips, t)
			return err
		},
		table.ValueParam("$id", types.UTF8Value(id)),
	)
	if err != nil {
		return nil, err
	}
	if len(trips) == 0 {
		return nil, fmt.Errorf("trip %s: %w", id, repository.ErrNotFound)
	}
	return &trips[0], nil
}

// ListTrips returns trips of one owner, or every trip when ownerID is empty. Newest first.
func (s *Store) ListTrips(ctx context.Context, ownerID string) ([]repository.Trip, error) {
	var trips []repository.Trip
	err := s.query(ctx, "ListTrips", `
DECLARE $owner_id AS Utf8;
SELECT * FROM trip
WHERE $owner_id = ""u OR owner_id = $owner_id
ORDER BY started_at DESC, created_at DESC, id;`,
		func(res result.Result) error {
			t, err := scanTrip(res)
			trips = append(trips, t)
			return err
		},
		table.ValueParam("$owner_id", types.UTF8Value(ownerID)),
	)
	return trips, err
}

// DeleteTrip removes the trip together with its catches.
func (s *Store) DeleteTrip(ctx context.Context, id string) error {
	if _, err := s.TripByID(ctx, id); err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	return s.exec(ctx, "DeleteTrip", `
DECLARE $id AS Utf8;
DELETE FROM catch WHERE trip_id = $id;
DELETE FROM trip WHERE id = $id;`,
		table.ValueParam("$id", types.UTF8Value(id)),
	)
}
