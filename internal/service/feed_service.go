package service

import (
	"context"
	"strconv"

	"yatube/internal/domain"
	"yatube/internal/repository"
)

// DefaultPageSize is used when the configured size is not positive.
const DefaultPageSize = 10

// GroupFeed is the group listing view.
type GroupFeed struct {
	Group *domain.Group
	Page  *domain.Page
}

// ProfileFeed is an author's listing. Following is set only when an
// authenticated viewer other than the author follows them.
type ProfileFeed struct {
	Author    *domain.User
	Page      *domain.Page
	PostCount int
	Following bool
}

// PostDetail is a single post with its comments, oldest first.
type PostDetail struct {
	Post            *domain.Post
	AuthorPostCount int
	Comments        []domain.Comment
}

// FeedService composes the read side. All listings share one page size.
type FeedService interface {
	Global(ctx context.Context, page int) (*domain.Page, error)
	Group(ctx context.Context, slug string, page int) (*GroupFeed, error)
	Profile(ctx context.Context, viewer *domain.User, username string, page int) (*ProfileFeed, error)
	Following(ctx context.Context, viewer *domain.User, page int) (*domain.Page, error)
	PostDetail(ctx context.Context, id int64) (*PostDetail, error)
}

type feedService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	groups   repository.GroupRepository
	users    repository.UserRepository
	follows  FollowService
	pageSize int
}

func NewFeedService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	follows FollowService,
	pageSize int,
) FeedService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &feedService{
		posts:    posts,
		comments: comments,
		groups:   groups,
		users:    users,
		follows:  follows,
		pageSize: pageSize,
	}
}

// PageNumber parses a ?page= value. Anything missing, malformed or below 1 is page 1.
func PageNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (s *feedService) Global(ctx context.Context, page int) (*domain.Page, error) {
	return s.paginate(ctx, repository.PostFilter{}, page)
}

func (s *feedService) Group(ctx context.Context, slug string, page int) (*GroupFeed, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	p, err := s.paginate(ctx, repository.PostFilter{GroupID: &group.ID}, page)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, Page: p}, nil
}

func (s *feedService) Profile(ctx context.Context, viewer *domain.User, username string, page int) (*ProfileFeed, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	author = sanitizeUser(author)

	p, err := s.paginate(ctx, repository.PostFilter{AuthorID: &author.ID}, page)
	if err != nil {
		return nil, err
	}
	following, err := s.follows.IsFollowing(ctx, viewer, author)
	if err != nil {
		return nil, err
	}
	return &ProfileFeed{
		Author:    author,
		Page:      p,
		PostCount: p.Total,
		Following: following,
	}, nil
}

func (s *feedService) Following(ctx context.Context, viewer *domain.User, page int) (*domain.Page, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	return s.paginate(ctx, repository.PostFilter{FollowerID: &viewer.ID}, page)
}

func (s *feedService) PostDetail(ctx context.Context, id int64) (*PostDetail, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Post:            post,
		AuthorPostCount: count,
		Comments:        comments,
	}, nil
}

// paginate returns an empty page, not an error, past the last page.
func (s *feedService) paginate(ctx context.Context, filter repository.PostFilter, number int) (*domain.Page, error) {
	if number < 1 {
		number = 1
	}
	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	numPages := (total + s.pageSize - 1) / s.pageSize
	if numPages < 1 {
		numPages = 1
	}

	page := &domain.Page{
		Number:   number,
		Size:     s.pageSize,
		Total:    total,
		NumPages: numPages,
	}
	if number > numPages {
		return page, nil
	}

	posts, err := s.posts.List(ctx, filter, s.pageSize, (number-1)*s.pageSize)
	if err != nil {
		return nil, err
	}
	page.Posts = posts
	return page, nil
}
