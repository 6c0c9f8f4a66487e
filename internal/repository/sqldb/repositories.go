package sqldb

import (
	"context"

	"yatube/internal/repository"
)

// Repositories bundles every repository backed by one database handle.
type Repositories struct {
	Users    repository.UserRepository
	Groups   repository.GroupRepository
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Follows  repository.FollowRepository
}

func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Groups:   NewGroupRepository(db),
		Posts:    NewPostRepository(db),
		Comments: NewCommentRepository(db),
		Follows:  NewFollowRepository(db),
	}
}

// Init creates the schema. Tables referenced by foreign keys come first.
func (r *Repositories) Init(ctx context.Context) error {
	return InitAll(ctx, r.Users, r.Groups, r.Posts, r.Comments, r.Follows)
}
