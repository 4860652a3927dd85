package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog/internal/models"
)

func (s *SQLStore) CreateLike(ctx context.Context, postID, userID int64, status bool) (*models.Like, error) {
	return createLike(ctx, s.db, postID, userID, status)
}

func createLike(ctx context.Context, q queryer, postID, userID int64, status bool) (*models.Like, error) {
	l := &models.Like{PostID: postID, UserID: userID, Status: status}
	res, err := q.ExecContext(ctx, `INSERT INTO likes(user_id,post_id,status) VALUES(?,?,?)`, userID, postID, status)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("like on post %d: %w", postID, ErrConflict)
		}
		return nil, fmt.Errorf("insert like: %w", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *SQLStore) DeleteLike(ctx context.Context, id int64) error {
	return deleteLike(ctx, s.db, id)
}

func deleteLike(ctx context.Context, q queryer, id int64) error {
	res, err := q.ExecContext(ctx, `DELETE FROM likes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete like %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) FindLike(ctx context.Context, postID, userID int64) (*models.Like, error) {
	return findLike(ctx, s.db, postID, userID)
}

func findLike(ctx context.Context, q queryer, postID, userID int64) (*models.Like, error) {
	var l models.Like
	err := q.QueryRowContext(ctx,
		`SELECT id, user_id, post_id, status FROM likes WHERE post_id = ? AND user_id = ?`, postID, userID).
		Scan(&l.ID, &l.UserID, &l.PostID, &l.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find like: %w", err)
	}
	return &l, nil
}

// CountLikeScore is upvotes minus downvotes, computed on every call.
func (s *SQLStore) CountLikeScore(ctx context.Context, postID int64) (int, error) {
	var up, down int
	err := s.db.QueryRowContext(ctx,
		`SELECT IFNULL(SUM(status = 1), 0), IFNULL(SUM(status = 0), 0) FROM likes WHERE post_id = ?`, postID).
		Scan(&up, &down)
	if err != nil {
		return 0, fmt.Errorf("score of post %d: %w", postID, err)
	}
	return up - down, nil
}

// CastVote moves the (post, user) vote through the toggle state machine. The
// lookup of the current vote and the writes that follow share a transaction.
func (s *SQLStore) CastVote(ctx context.Context, postID, userID int64, action models.VoteAction) (models.VoteState, error) {
	var next models.VoteState
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := findLike(ctx, tx, postID, userID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		next = models.StateOf(cur).Apply(action)
		if cur != nil {
			if err := deleteLike(ctx, tx, cur.ID); err != nil {
				return err
			}
		}
		if status, ok := next.Status(); ok {
			if _, err := createLike(ctx, tx, postID, userID, status); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NoVote, err
	}
	return next, nil
}
