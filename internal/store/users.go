package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog/internal/models"
)

func (s *SQLStore) CreateUser(ctx context.Context, username, digest string) (*models.User, error) {
	u := &models.User{Username: username, PasswordDigest: digest, CreatedAt: s.now()}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(username,password_digest,created_at) VALUES(?,?,?)`,
		u.Username, u.PasswordDigest, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username %q: %w", username, ErrConflict)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *SQLStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_digest, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordDigest, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
