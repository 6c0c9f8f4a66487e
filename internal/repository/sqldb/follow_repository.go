package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"yatube/internal/domain"
	"yatube/internal/repository"
)

const (
	createFollowsTable = `
CREATE TABLE IF NOT EXISTS follows (
	id {{pk}},
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at {{ts}} NOT NULL,
	CONSTRAINT uq_follows_user_author UNIQUE (user_id, author_id)
)`
	createFollowsAuthorIndex = `CREATE INDEX IF NOT EXISTS idx_follows_author_id ON follows(author_id)`
)

type FollowRepository struct {
	db *DB
}

func NewFollowRepository(db *DB) repository.FollowRepository {
	return &FollowRepository{db: db}
}

func (r *FollowRepository) Init(ctx context.Context) error {
	if err := r.db.createTable(ctx, createFollowsTable, createFollowsAuthorIndex); err != nil {
		return fmt.Errorf("create follows table: %w", err)
	}
	return nil
}

// Create relies on the unique constraint, so concurrent calls for the same
// pair insert at most one row.
func (r *FollowRepository) Create(ctx context.Context, userID, authorID int64) (bool, error) {
	var id int64
	err := r.db.queryRow(ctx, `
INSERT INTO follows (user_id, author_id, created_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id, author_id) DO NOTHING
RETURNING id`,
		userID,
		authorID,
		time.Now().UTC(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert follow: %w", err)
	}
	return true, nil
}

func (r *FollowRepository) Delete(ctx context.Context, userID, authorID int64) (bool, error) {
	res, err := r.db.exec(ctx, `DELETE FROM follows WHERE user_id=? AND author_id=?`, userID, authorID)
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("follow delete rows affected: %w", err)
	}
	return aff > 0, nil
}

func (r *FollowRepository) Exists(ctx context.Context, userID, authorID int64) (bool, error) {
	var n int
	err := r.db.queryRow(ctx, `SELECT COUNT(*) FROM follows WHERE user_id=? AND author_id=?`, userID, authorID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query follow: %w", err)
	}
	return n > 0, nil
}

func (r *FollowRepository) List(ctx context.Context, limit int) ([]domain.Follow, error) {
	q, args := `
SELECT f.id, f.user_id, fu.username, f.author_id, au.username, f.created_at
FROM follows f
JOIN users fu ON fu.id = f.user_id
JOIN users au ON au.id = f.author_id
ORDER BY f.id ASC`, []any{}
	if limit > 0 {
		q += "\nLIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query follows: %w", err)
	}
	defer rows.Close()

	var follows []domain.Follow
	for rows.Next() {
		var f domain.Follow
		if err := rows.Scan(&f.ID, &f.UserID, &f.User.Username, &f.AuthorID, &f.Author.Username, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan follow: %w", err)
		}
		f.User.ID = f.UserID
		f.Author.ID = f.AuthorID
		follows = append(follows, f)
	}
	return follows, rows.Err()
}

func (r *FollowRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.queryRow(ctx, `SELECT COUNT(*) FROM follows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count follows: %w", err)
	}
	return n, nil
}
