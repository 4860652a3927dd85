package models

import "time"

type User struct {
	ID             int64
	Username       string
	PasswordDigest string
	CreatedAt      time.Time
}

type Post struct {
	ID        int64
	AuthorID  int64
	Author    string
	Title     string
	Body      string
	CreatedAt time.Time
	Score     int
}

type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Author    string
	Body      string
	CreatedAt time.Time
}

// Like is a single user's vote on a post. Status true is an upvote.
type Like struct {
	ID     int64
	UserID int64
	PostID int64
	Status bool
}
