package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"yatube/internal/domain"
	"yatube/internal/repository"
)

const (
	createPostsTable = `
CREATE TABLE IF NOT EXISTS posts (
	id {{pk}},
	text TEXT NOT NULL,
	created_at {{ts}} NOT NULL,
	author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	group_id BIGINT NULL REFERENCES post_groups(id) ON DELETE SET NULL,
	image TEXT NOT NULL DEFAULT ''
)`
	createPostsCreatedIndex = `CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at)`
	createPostsAuthorIndex  = `CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id)`
	createPostsGroupIndex   = `CREATE INDEX IF NOT EXISTS idx_posts_group_id ON posts(group_id)`

	selectPosts = `
SELECT p.id, p.text, p.created_at, p.author_id, u.username,
	p.group_id, g.title, g.slug, g.description, p.image
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN post_groups g ON g.id = p.group_id`
)

type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) repository.PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Init(ctx context.Context) error {
	if err := r.db.createTable(ctx,
		createPostsTable,
		createPostsCreatedIndex,
		createPostsAuthorIndex,
		createPostsGroupIndex,
	); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) (int64, error) {
	var id int64
	err := r.db.queryRow(ctx, `
INSERT INTO posts (text, created_at, author_id, group_id, image)
VALUES (?, ?, ?, ?, ?)
RETURNING id`,
		post.Text,
		post.CreatedAt.UTC(),
		post.AuthorID,
		nullInt64(post.GroupID),
		post.Image,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	post.ID = id
	return id, nil
}

// Update writes the mutable fields. The author column is never touched.
func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	res, err := r.db.exec(ctx, `
UPDATE posts
SET text=?, group_id=?, image=?
WHERE id=?`,
		post.Text,
		nullInt64(post.GroupID),
		post.Image,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("post %d", post.ID))
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.exec(ctx, `DELETE FROM posts WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("post %d", id))
}

func (r *PostRepository) Get(ctx context.Context, id int64) (*domain.Post, error) {
	row := r.db.queryRow(ctx, selectPosts+`
WHERE p.id = ?`, id)
	post, err := scanPost(row)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostRepository) List(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]domain.Post, error) {
	where, args := r.where(filter)
	args = append(args, limit, offset)

	rows, err := r.db.query(ctx, selectPosts+where+`
ORDER BY p.created_at DESC, p.id DESC
LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

func (r *PostRepository) Count(ctx context.Context, filter repository.PostFilter) (int, error) {
	where, args := r.where(filter)
	var n int
	if err := r.db.queryRow(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *PostRepository) where(filter repository.PostFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.GroupID != nil {
		conds = append(conds, "p.group_id = ?")
		args = append(args, *filter.GroupID)
	}
	if filter.AuthorID != nil {
		conds = append(conds, "p.author_id = ?")
		args = append(args, *filter.AuthorID)
	}
	if filter.FollowerID != nil {
		conds = append(conds, "p.author_id IN (SELECT f.author_id FROM follows f WHERE f.user_id = ?)")
		args = append(args, *filter.FollowerID)
	}
	if filter.Text != "" {
		// sqlite LIKE folds ASCII case only
		op := "LIKE"
		if r.db.dialect == Postgres {
			op = "ILIKE"
		}
		conds = append(conds, "p.text "+op+` ? ESCAPE '\'`)
		args = append(args, "%"+likeEscaper.Replace(filter.Text)+"%")
	}
	if filter.CreatedFrom != nil {
		conds = append(conds, "p.created_at >= ?")
		args = append(args, filter.CreatedFrom.UTC())
	}
	if filter.CreatedBefore != nil {
		conds = append(conds, "p.created_at < ?")
		args = append(args, filter.CreatedBefore.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(conds, " AND "), args
}

func scanPost(scanner interface {
	Scan(dest ...any) error
}) (*domain.Post, error) {
	var (
		post        domain.Post
		groupID     sql.NullInt64
		groupTitle  sql.NullString
		groupSlug   sql.NullString
		description sql.NullString
	)
	if err := scanner.Scan(
		&post.ID,
		&post.Text,
		&post.CreatedAt,
		&post.AuthorID,
		&post.Author.Username,
		&groupID,
		&groupTitle,
		&groupSlug,
		&description,
		&post.Image,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("post: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}

	post.Author.ID = post.AuthorID
	if groupID.Valid {
		id := groupID.Int64
		post.GroupID = &id
		post.Group = &domain.Group{
			ID:          id,
			Title:       groupTitle.String,
			Slug:        groupSlug.String,
			Description: description.String,
		}
	}
	return &post, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func requireAffected(res sql.Result, what string) error {
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if aff == 0 {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return nil
}
