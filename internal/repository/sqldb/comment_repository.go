package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	"yatube/internal/domain"
	"yatube/internal/repository"
)

const (
	createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	id {{pk}},
	post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	created_at {{ts}} NOT NULL
)`
	createCommentsPostIndex = `CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id)`

	selectComments = `
SELECT c.id, c.post_id, c.author_id, u.username, c.text, c.created_at
FROM comments c
JOIN users u ON u.id = c.author_id`
)

type CommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) repository.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if err := r.db.createTable(ctx, createCommentsTable, createCommentsPostIndex); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (int64, error) {
	var id int64
	err := r.db.queryRow(ctx, `
INSERT INTO comments (post_id, author_id, text, created_at)
VALUES (?, ?, ?, ?)
RETURNING id`,
		comment.PostID,
		comment.AuthorID,
		comment.Text,
		comment.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	comment.ID = id
	return id, nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]domain.Comment, error) {
	rows, err := r.db.query(ctx, selectComments+`
WHERE c.post_id = ?
ORDER BY c.created_at ASC, c.id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	return collectComments(rows)
}

func (r *CommentRepository) List(ctx context.Context, limit int) ([]domain.Comment, error) {
	q, args := selectComments+`
ORDER BY c.created_at DESC, c.id DESC`, []any{}
	if limit > 0 {
		q += "\nLIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	return collectComments(rows)
}

func (r *CommentRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.queryRow(ctx, `SELECT COUNT(*) FROM comments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

func collectComments(rows *sql.Rows) ([]domain.Comment, error) {
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author.Username, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.Author.ID = c.AuthorID
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
