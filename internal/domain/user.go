package domain

import "time"

// User represents an authenticated author of posts and comments.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) String() string {
	return u.Username
}
