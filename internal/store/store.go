package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"blog/internal/models"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a uniqueness violation, such as a taken username.
	ErrConflict = errors.New("conflict")
)

// RecentLimit is the size of the front page.
const RecentLimit = 10

// Store is everything the handlers need from persistence.
type Store interface {
	CreateUser(ctx context.Context, username, digest string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreatePost(ctx context.Context, authorID int64, title, body string) (*models.Post, error)
	GetPostByID(ctx context.Context, id int64) (*models.Post, error)
	UpdatePost(ctx context.Context, id int64, title, body string) (*models.Post, error)
	DeletePost(ctx context.Context, id int64) error
	RecentPosts(ctx context.Context, limit int) ([]models.Post, error)

	CreateComment(ctx context.Context, postID, authorID int64, body string) (*models.Comment, error)
	CommentsByPost(ctx context.Context, postID int64) ([]models.Comment, error)

	CreateLike(ctx context.Context, postID, userID int64, status bool) (*models.Like, error)
	DeleteLike(ctx context.Context, id int64) error
	FindLike(ctx context.Context, postID, userID int64) (*models.Like, error)
	CountLikeScore(ctx context.Context, postID int64) (int, error)
	CastVote(ctx context.Context, postID, userID int64, action models.VoteAction) (models.VoteState, error)

	Close() error
}

// SQLStore implements Store on a SQLite database opened by db.Open.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn in a transaction, committing on success.
func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// primary code only when extended codes are off
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
