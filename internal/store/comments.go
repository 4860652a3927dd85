package store

import (
	"context"
	"fmt"

	"blog/internal/models"
)

func (s *SQLStore) CreateComment(ctx context.Context, postID, authorID int64, body string) (*models.Comment, error) {
	c := &models.Comment{PostID: postID, AuthorID: authorID, Body: body, CreatedAt: s.now()}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments(post_id,user_id,body,created_at) VALUES(?,?,?,?)`,
		c.PostID, c.AuthorID, c.Body, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return c, nil
}

// CommentsByPost lists a post's comments, newest first.
func (s *SQLStore) CommentsByPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.post_id, c.user_id, u.username, c.body, c.created_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ? ORDER BY c.created_at DESC, c.id DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("comments of post %d: %w", postID, err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
