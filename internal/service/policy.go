package service

import "yatube/internal/domain"

// Policy decisions. A nil actor is anonymous.

func CanCreate(actor *domain.User) bool {
	return actor != nil
}

// CanEditPost allows only the post's author.
func CanEditPost(actor *domain.User, post *domain.Post) bool {
	return actor != nil && post != nil && actor.ID == post.AuthorID
}

func CanDeletePost(actor *domain.User, post *domain.Post) bool {
	return CanEditPost(actor, post)
}

func CanComment(actor *domain.User) bool {
	return actor != nil
}

// CanFollow allows any authenticated actor; following oneself depends on allowSelf.
func CanFollow(actor, author *domain.User, allowSelf bool) bool {
	if actor == nil || author == nil {
		return false
	}
	return allowSelf || actor.ID != author.ID
}

// checkAuthor returns the error a mutation on post by actor should fail with.
func checkAuthor(actor *domain.User, post *domain.Post) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !CanEditPost(actor, post) {
		return ErrForbidden
	}
	return nil
}
