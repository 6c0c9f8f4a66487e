package domain

import "time"

const postStringLength = 15

// Post is a single authored entry. AuthorID never changes after creation.
type Post struct {
	ID        int64
	Text      string
	CreatedAt time.Time
	AuthorID  int64
	Author    User
	GroupID   *int64
	Group     *Group
	Image     string
}

// String returns the first characters of the post text.
func (p Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > postStringLength {
		return string(runes[:postStringLength])
	}
	return p.Text
}

// Comment is an append-only reply to a post.
type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Author    User
	Text      string
	CreatedAt time.Time
}

// Follow is a directed edge: UserID receives AuthorID's posts in the following feed.
type Follow struct {
	ID        int64
	UserID    int64
	AuthorID  int64
	User      User
	Author    User
	CreatedAt time.Time
}
