package repository

import (
	"context"
	"time"

	"yatube/internal/domain"
)

// PostFilter narrows a post listing. Nil fields do not filter.
type PostFilter struct {
	GroupID *int64
	// AuthorID selects one author's posts.
	AuthorID *int64
	// FollowerID selects posts whose author is followed by this user.
	FollowerID *int64
	// Text matches posts containing the substring, ignoring case.
	Text string
	// CreatedFrom and CreatedBefore bound the creation time, [from, before).
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
}

// PostRepository exposes persistence operations for posts. Listings are
// ordered newest first.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]domain.Post, error)
	Count(ctx context.Context, filter PostFilter) (int, error)
}

// CommentRepository manages replies to posts.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.Comment) (int64, error)
	// ListByPost returns a post's comments oldest first.
	ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error)
	// List returns the newest comments; limit <= 0 returns all of them.
	List(ctx context.Context, limit int) ([]domain.Comment, error)
	Count(ctx context.Context) (int, error)
}
