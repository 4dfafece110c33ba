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

func scanUser(res result.Result, u *repository.User) error {
	err := res.ScanNamed(
		named.Required("id", &u.ID),
		named.OptionalWithDefault("email", &u.Email),
		named.OptionalWithDefault("nickname", &u.Nickname),
		named.OptionalWithDefault("password_hash", &u.PasswordHash),
		named.OptionalWithDefault("role", &u.Role),
		named.OptionalWithDefault("created_at", &u.CreatedAt),
	)
	u.CreatedAt = utc(u.CreatedAt)
	return err
}

func (s *Store) SaveUser(ctx context.Context, u repository.User) error {
	return s.exec(ctx, "SaveUser", `
DECLARE $id AS Utf8;
DECLARE $email AS Utf8;
DECLARE $nickname AS Utf8;
DECLARE $password_hash AS Utf8;
DECLARE $role AS Utf8;
DECLARE $created_at AS Optional<Timestamp>;
UPSERT INTO users (id, email, nickname, password_hash, role, created_at)
VALUES ($id, $email, $nickname, $password_hash, $role, $created_at);`,
		table.ValueParam("$id", types.UTF8Value(u.ID)),
		table.ValueParam("$email", types.UTF8Value(u.Email)),
		table.ValueParam("$nickname", types.UTF8Value(u.Nickname)),
		table.ValueParam("$password_hash", types.UTF8Value(u.PasswordHash)),
		table.ValueParam("$role", types.UTF8Value(u.Role)),
		table.ValueParam("$created_at", timestamp(u.CreatedAt)),
	)
}

func (s *Store) userBy(ctx context.Context, column, value string) (*repository.User, error) {
	var users []repository.User
	err := s.query(ctx, "UserBy"+column, `
DECLARE $value AS Utf8;
SELECT * FROM users WHERE `+column+` = $value LIMIT 1;`,
		func(res result.Result) error {
			var u repository.User
			if err := scanUser(res, &u); err != nil {
				return err
			}
			users = append(users, u)
			return nil
		},
		table.ValueParam("$value", types.UTF8Value(value)),
	)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user with %s %s: %w", column, value, repository.ErrNotFound)
	}
	return &users[0], nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*repository.User, error) {
	return s.userBy(ctx, "id", id)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*repository.User, error) {
	return s.userBy(ctx, "email", email)
}

func (s *Store) ListUsers(ctx context.Context) ([]repository.User, error) {
	var users []repository.User
	err := s.query(ctx, "ListUsers", `SELECT * FROM users ORDER BY created_at, id;`,
		func(res result.Result) error {
			var u repository.User
			if err := scanUser(res, &u); err != nil {
				return err
			}
			users = append(users, u)
			return nil
		},
	)
	return users, err
}
