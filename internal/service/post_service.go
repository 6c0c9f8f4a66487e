package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"yatube/internal/domain"
	"yatube/internal/repository"
	"yatube/internal/storage"
)

// AttachmentStore keeps uploaded post images.
type AttachmentStore interface {
	Save(ctx context.Context, filename string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Upload is an image submitted with a post form.
type Upload struct {
	Filename string
	Body     io.Reader
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Text    string
	GroupID *int64
	Image   *Upload
}

// PostService describes post and comment mutations.
type PostService interface {
	Create(ctx context.Context, actor *domain.User, in PostInput) (*domain.Post, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	Edit(ctx context.Context, actor *domain.User, id int64, in PostInput) (*domain.Post, error)
	Delete(ctx context.Context, actor *domain.User, id int64) error
	AddComment(ctx context.Context, actor *domain.User, postID int64, text string) (*domain.Comment, error)
}

type postService struct {
	posts       repository.PostRepository
	comments    repository.CommentRepository
	groups      repository.GroupRepository
	attachments AttachmentStore
	clock       Clock
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	groups repository.GroupRepository,
	attachments AttachmentStore,
	clock Clock,
) PostService {
	return &postService{
		posts:       posts,
		comments:    comments,
		groups:      groups,
		attachments: attachments,
		clock:       clock,
	}
}

func (s *postService) Create(ctx context.Context, actor *domain.User, in PostInput) (*domain.Post, error) {
	if !CanCreate(actor) {
		return nil, ErrUnauthenticated
	}
	text, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		Text:      text,
		CreatedAt: s.clock.Now().UTC(),
		AuthorID:  actor.ID,
		GroupID:   in.GroupID,
	}
	if post.Image, err = s.saveImage(ctx, in.Image); err != nil {
		return nil, err
	}

	if _, err := s.posts.Create(ctx, post); err != nil {
		s.dropImage(ctx, post.Image)
		return nil, err
	}
	return s.posts.Get(ctx, post.ID)
}

func (s *postService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	return s.posts.Get(ctx, id)
}

func (s *postService) Edit(ctx context.Context, actor *domain.User, id int64, in PostInput) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkAuthor(actor, post); err != nil {
		return nil, err
	}
	text, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	post.Text = text
	post.GroupID = in.GroupID
	oldImage := post.Image
	if in.Image != nil {
		if post.Image, err = s.saveImage(ctx, in.Image); err != nil {
			return nil, err
		}
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			s.dropImage(ctx, post.Image)
		}
		return nil, err
	}
	if post.Image != oldImage {
		s.dropImage(ctx, oldImage)
	}
	return s.posts.Get(ctx, post.ID)
}

// Delete removes the post, its comments and, when possible, its image.
func (s *postService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkAuthor(actor, post); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.dropImage(ctx, post.Image)
	return nil
}

func (s *postService) AddComment(ctx context.Context, actor *domain.User, postID int64, text string) (*domain.Comment, error) {
	if !CanComment(actor) {
		return nil, ErrUnauthenticated
	}
	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, FieldErrors{"text": "comment text is required"}
	}

	comment := &domain.Comment{
		PostID:    post.ID,
		AuthorID:  actor.ID,
		Author:    *actor,
		Text:      text,
		CreatedAt: s.clock.Now().UTC(),
	}
	if _, err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *postService) validate(ctx context.Context, in PostInput) (string, error) {
	fields := FieldErrors{}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		fields["text"] = "post text is required"
	}
	if in.GroupID != nil {
		if _, err := s.groups.GetByID(ctx, *in.GroupID); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return "", err
			}
			fields["group"] = "select a valid group"
		}
	}
	if len(fields) > 0 {
		return "", fields
	}
	return text, nil
}

func (s *postService) saveImage(ctx context.Context, up *Upload) (string, error) {
	if up == nil {
		return "", nil
	}
	if s.attachments == nil {
		return "", fmt.Errorf("attachment store is not configured")
	}
	key, err := s.attachments.Save(ctx, up.Filename, up.Body)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) {
			return "", FieldErrors{"image": err.Error()}
		}
		return "", fmt.Errorf("save image: %w", err)
	}
	return key, nil
}

// dropImage is best effort; an orphaned object is harmless.
func (s *postService) dropImage(ctx context.Context, key string) {
	if key == "" || s.attachments == nil {
		return
	}
	_ = s.attachments.Delete(ctx, key)
}
