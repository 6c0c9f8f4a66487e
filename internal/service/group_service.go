package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"yatube/internal/domain"
	"yatube/internal/repository"
)

const (
	maxSlugLength  = 50
	maxTitleLength = 200
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidSlug reports whether slug is usable as a group identifier.
func ValidSlug(slug string) bool {
	return len(slug) <= maxSlugLength && slugPattern.MatchString(slug)
}

// GroupService covers the operator side of groups: they are created
// administratively and posts are moved between them.
type GroupService interface {
	Create(ctx context.Context, title, slug, description string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	SetPostGroup(ctx context.Context, postID int64, groupID *int64) (*domain.Post, error)
}

type groupService struct {
	groups repository.GroupRepository
	posts  repository.PostRepository
}

func NewGroupService(groups repository.GroupRepository, posts repository.PostRepository) GroupService {
	return &groupService{groups: groups, posts: posts}
}

func (s *groupService) Create(ctx context.Context, title, slug, description string) (*domain.Group, error) {
	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)

	if title == "" {
		return nil, FieldErrors{"title": "title is required"}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, FieldErrors{"title": fmt.Sprintf("title must be at most %d characters", maxTitleLength)}
	}
	if !ValidSlug(slug) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}

	group := &domain.Group{
		Title:       title,
		Slug:        slug,
		Description: strings.TrimSpace(description),
	}
	if _, err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *groupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.groups.List(ctx)
}

// SetPostGroup changes only the group of a post. A nil groupID detaches it.
func (s *groupService) SetPostGroup(ctx context.Context, postID int64, groupID *int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if groupID != nil {
		if _, err := s.groups.GetByID(ctx, *groupID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, FieldErrors{"group": "select a valid group"}
			}
			return nil, err
		}
	}
	post.GroupID = groupID
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.Get(ctx, postID)
}
