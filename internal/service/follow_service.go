package service

import (
	"context"

	"yatube/internal/domain"
	"yatube/internal/repository"
)

// FollowService manages follow edges between users.
type FollowService interface {
	// Follow creates the edge actor -> username and reports whether it is new.
	Follow(ctx context.Context, actor *domain.User, username string) (*domain.User, bool, error)
	// Unfollow removes the edge; a missing edge is not an error.
	Unfollow(ctx context.Context, actor *domain.User, username string) (*domain.User, error)
	IsFollowing(ctx context.Context, viewer, author *domain.User) (bool, error)
}

type followService struct {
	users     repository.UserRepository
	follows   repository.FollowRepository
	allowSelf bool
}

func NewFollowService(users repository.UserRepository, follows repository.FollowRepository, allowSelf bool) FollowService {
	return &followService{
		users:     users,
		follows:   follows,
		allowSelf: allowSelf,
	}
}

func (s *followService) Follow(ctx context.Context, actor *domain.User, username string) (*domain.User, bool, error) {
	if actor == nil {
		return nil, false, ErrUnauthenticated
	}
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, false, err
	}
	author = sanitizeUser(author)
	if !CanFollow(actor, author, s.allowSelf) {
		return author, false, ErrForbidden
	}

	created, err := s.follows.Create(ctx, actor.ID, author.ID)
	if err != nil {
		return author, false, err
	}
	return author, created, nil
}

func (s *followService) Unfollow(ctx context.Context, actor *domain.User, username string) (*domain.User, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	author = sanitizeUser(author)
	if _, err := s.follows.Delete(ctx, actor.ID, author.ID); err != nil {
		return author, err
	}
	return author, nil
}

func (s *followService) IsFollowing(ctx context.Context, viewer, author *domain.User) (bool, error) {
	if viewer == nil || author == nil || viewer.ID == author.ID {
		return false, nil
	}
	return s.follows.Exists(ctx, viewer.ID, author.ID)
}
