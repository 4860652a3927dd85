package auth

import "blog/internal/models"

// CanEdit covers both edit and delete: only the author may change a post.
func CanEdit(u *models.User, p *models.Post) bool {
	return u != nil && p != nil && u.Username == p.Author
}

// CanVote forbids voting on your own post.
func CanVote(u *models.User, p *models.Post) bool {
	return u != nil && p != nil && u.Username != p.Author
}
