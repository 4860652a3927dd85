package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"blog/internal/models"
)

const postColumns = `p.id, p.user_id, u.username, p.title, p.body, p.created_at,
	IFNULL((SELECT SUM(CASE WHEN l.status = 1 THEN 1 ELSE -1 END) FROM likes l WHERE l.post_id = p.id), 0)`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.AuthorID, &p.Author, &p.Title, &p.Body, &p.CreatedAt, &p.Score); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLStore) CreatePost(ctx context.Context, authorID int64, title, body string) (*models.Post, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts(user_id,title,body,created_at) VALUES(?,?,?,?)`,
		authorID, title, body, s.now())
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetPostByID(ctx, id)
}

func (s *SQLStore) GetPostByID(ctx context.Context, id int64) (*models.Post, error) {
	return getPost(ctx, s.db, id)
}

func getPost(ctx context.Context, q queryer, id int64) (*models.Post, error) {
	p, err := scanPost(q.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.user_id WHERE p.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return p, nil
}

// UpdatePost replaces title and body. created_at and the author never change.
func (s *SQLStore) UpdatePost(ctx context.Context, id int64, title, body string) (*models.Post, error) {
	var p *models.Post
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE posts SET title = ?, body = ? WHERE id = ?`, title, body, id)
		if err != nil {
			return fmt.Errorf("update post %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		p, err = getPost(ctx, tx, id)
		return err
	})
	return p, err
}

// DeletePost removes the post with its likes and comments in one transaction.
func (s *SQLStore) DeletePost(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("delete likes of post %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("delete comments of post %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete post %d: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLStore) RecentPosts(ctx context.Context, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = RecentLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}
