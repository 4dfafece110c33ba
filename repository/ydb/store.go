package ydb

import (
	"context"
	"fmt"
	"path"
	"time"

	"mikhailche/lurelog/lib/tracer.v2"

	"github.com/ydb-platform/ydb-go-sdk/v3"
	"github.com/ydb-platform/ydb-go-sdk/v3/table"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/options"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/result"
	"github.com/ydb-platform/ydb-go-sdk/v3/table/types"
	"go.uber.org/zap"
)

// Store keeps the journal in YDB tables.
type Store struct {
	db  *ydb.Driver
	log *zap.Logger
}

func NewStore(driver *ydb.Driver, log *zap.Logger) *Store {
	return &Store{db: driver, log: log}
}

func Open(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	driver, err := NewYDBDriver(ctx, dsn, log)
	if err != nil {
		return nil, err
	}
	return NewStore(driver, log), nil
}

func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

type tableSpec struct {
	name    string
	columns []options.CreateTableOption
}

func utf8Column(name string) options.CreateTableOption {
	return options.WithColumn(name, types.Optional(types.TypeUTF8))
}

func timestampColumn(name string) options.CreateTableOption {
	return options.WithColumn(name, types.Optional(types.TypeTimestamp))
}

var tables = []tableSpec{
	{"users", []options.CreateTableOption{
		options.WithColumn("id", types.TypeUTF8),
		utf8Column("email"),
		utf8Column("nickname"),
		utf8Column("password_hash"),
		utf8Column("role"),
		timestampColumn("created_at"),
		options.WithPrimaryKeyColumn("id"),
	}},
	{"trip", []options.CreateTableOption{
		options.WithColumn("id", types.TypeUTF8),
		utf8Column("owner_id"),
		utf8Column("title"),
		utf8Column("location"),
		utf8Column("notes"),
		options.WithColumn("public", types.Optional(types.TypeBool)),
		timestampColumn("started_at"),
		timestampColumn("ended_at"),
		timestampColumn("created_at"),
		timestampColumn("updated_at"),
		options.WithPrimaryKeyColumn("id"),
	}},
	{"catch", []options.CreateTableOption{
		options.WithColumn("id", types.TypeUTF8),
		utf8Column("trip_id"),
		utf8Column("owner_id"),
		utf8Column("species"),
		options.WithColumn("length_cm", types.Optional(types.TypeDouble)),
		options.WithColumn("weight_g", types.Optional(types.TypeInt64)),
		utf8Column("gear_id"),
		utf8Column("notes"),
		options.WithColumn("released", types.Optional(types.TypeBool)),
		timestampColumn("caught_at"),
		timestampColumn("created_at"),
		options.WithPrimaryKeyColumn("id"),
	}},
	{"gear", []options.CreateTableOption{
		options.WithColumn("id", types.TypeUTF8),
		utf8Column("owner_id"),
		utf8Column("kind"),
		utf8Column("brand"),
		utf8Column("name"),
		utf8Column("color"),
		options.WithColumn("weight_g", types.Optional(types.TypeInt64)),
		utf8Column("notes"),
		timestampColumn("created_at"),
		timestampColumn("updated_at"),
		options.WithPrimaryKeyColumn("id"),
	}},
	{"short_link", []options.CreateTableOption{
		options.WithColumn("code", types.TypeUTF8),
		utf8Column("target"),
		utf8Column("owner_id"),
		options.WithColumn("hits", types.Optional(types.TypeInt64)),
		timestampColumn("created_at"),
		options.WithPrimaryKeyColumn("code"),
	}},
	{"species", []options.CreateTableOption{
		options.WithColumn("name", types.TypeUTF8),
		utf8Column("family"),
		options.WithPrimaryKeyColumn("name"),
	}},
	{"audit_log", []options.CreateTableOption{
		options.WithColumn("id", types.TypeUTF8),
		timestampColumn("at"),
		utf8Column("actor_id"),
		utf8Column("kind"),
		utf8Column("subject"),
		utf8Column("detail"),
		options.WithPrimaryKeyColumn("id"),
	}},
}

func (s *Store) Init(ctx context.Context) error {
	ctx, span := tracer.Open(ctx, tracer.Named("ydb::Init"))
	defer span.Close()
	for _, spec := range tables {
		spec := spec
		err := s.db.Table().Do(ctx, func(ctx context.Context, sess table.Session) error {
			return sess.CreateTable(ctx, path.Join(s.db.Name(), spec.name), spec.columns...)
		})
		if err != nil {
			return fmt.Errorf("create table %s: %w", spec.name, err)
		}
		s.log.Info("Created YDB table", zap.String("table", spec.name))
	}
	return nil
}

func (s *Store) exec(ctx context.Context, name, query string, params ...table.ParameterOption) error {
	ctx, span := tracer.Open(ctx, tracer.Named("ydb::"+name))
	defer span.Close()
	return s.db.Table().Do(ctx, func(ctx context.Context, sess table.Session) error {
		_, res, err := sess.Execute(ctx, table.DefaultTxControl(), query, table.NewQueryParameters(params...))
		if res != nil {
			_ = res.Close()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}, table.WithIdempotent())
}

// query runs a single-result-set query and calls scan for every row.
func (s *Store) query(ctx context.Context, name, query string, scan func(result.Result) error, params ...table.ParameterOption) error {
	ctx, span := tracer.Open(ctx, tracer.Named("ydb::"+name))
	defer span.Close()
	return s.db.Table().Do(ctx, func(ctx context.Context, sess table.Session) error {
		_, res, err := sess.Execute(ctx, table.DefaultTxControl(), query, table.NewQueryParameters(params...))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		defer res.Close()
		if !res.NextResultSet(ctx) {
			return fmt.Errorf("%s: no result set in response", name)
		}
		for res.NextRow() {
			if err := scan(res); err != nil {
				return fmt.Errorf("%s: scan: %w", name, err)
			}
		}
		return res.Err()
	}, table.WithIdempotent())
}

// timestamp maps the zero time to NULL; YDB timestamps cannot go before the epoch.
func timestamp(t time.Time) types.Value {
	if t.IsZero() {
		return types.NullValue(types.TypeTimestamp)
	}
	return types.OptionalValue(types.TimestampValueFromTime(t))
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
