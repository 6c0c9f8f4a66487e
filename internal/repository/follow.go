package repository

import (
	"context"

	"yatube/internal/domain"
)

// FollowRepository manages follow edges. The (user, author) pair is unique at
// the storage level.
type FollowRepository interface {
	Init(ctx context.Context) error
	// Create inserts the edge unless it exists and reports whether a row was added.
	Create(ctx context.Context, userID, authorID int64) (bool, error)
	// Delete removes the edge and reports whether a row was removed.
	Delete(ctx context.Context, userID, authorID int64) (bool, error)
	Exists(ctx context.Context, userID, authorID int64) (bool, error)
	// List returns edges oldest first; limit <= 0 returns all of them.
	List(ctx context.Context, limit int) ([]domain.Follow, error)
	Count(ctx context.Context) (int, error)
}
