package repository

import (
	"context"

	"yatube/internal/domain"
)

// GroupRepository manages groups. Slugs are unique.
type GroupRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, group *domain.Group) (int64, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Group, error)
	GetByID(ctx context.Context, id int64) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
}
