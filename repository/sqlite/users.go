package sqlite

import (
	"context"
	"fmt"

	"mikhailche/lurelog/lib/tracer.v2"
	"mikhailche/lurelog/repository"
)

const userColumns = `id, email, nickname, password_hash, role, created_at`

func scanUser(row rowScanner) (repository.User, error) {
	var u repository.User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Email, &u.Nickname, &u.PasswordHash, &u.Role, &createdAt)
	u.CreatedAt = fromMillis(createdAt)
	return u, err
}

func (s *Store) SaveUser(ctx context.Context, u repository.User) error {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::SaveUser"))
	defer span.Close()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	email = excluded.email,
	nickname = excluded.nickname,
	password_hash = excluded.password_hash,
	role = excluded.role`,
		u.ID, u.Email, u.Nickname, u.PasswordHash, u.Role, millis(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*repository.User, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::UserByID"))
	defer span.Close()
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "select user "+id)
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*repository.User, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::UserByEmail"))
	defer span.Close()
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, notFound(err, "select user by email")
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]repository.User, error) {
	ctx, span := tracer.Open(ctx, tracer.Named("sqlite::ListUsers"))
	defer span.Close()
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()
	var users []repository.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
