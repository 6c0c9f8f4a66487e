package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"yatube/internal/domain"
	"yatube/internal/repository"
)

const createGroupsTable = `
CREATE TABLE IF NOT EXISTS post_groups (
	id {{pk}},
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT ''
)`

type GroupRepository struct {
	db *DB
}

func NewGroupRepository(db *DB) repository.GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Init(ctx context.Context) error {
	if err := r.db.createTable(ctx, createGroupsTable); err != nil {
		return fmt.Errorf("create post_groups table: %w", err)
	}
	return nil
}

func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) (int64, error) {
	var id int64
	err := r.db.queryRow(ctx, `
INSERT INTO post_groups (title, slug, description)
VALUES (?, ?, ?)
RETURNING id`,
		group.Title,
		group.Slug,
		group.Description,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("group %q: %w", group.Slug, repository.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("insert group: %w", err)
	}
	group.ID = id
	return id, nil
}

func (r *GroupRepository) GetBySlug(ctx context.Context, slug string) (*domain.Group, error) {
	row := r.db.queryRow(ctx, `
SELECT id, title, slug, description
FROM post_groups
WHERE slug = ?`, slug)
	return scanGroup(row)
}

func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	row := r.db.queryRow(ctx, `
SELECT id, title, slug, description
FROM post_groups
WHERE id = ?`, id)
	return scanGroup(row)
}

func (r *GroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	rows, err := r.db.query(ctx, `
SELECT id, title, slug, description
FROM post_groups
ORDER BY title ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *group)
	}
	return groups, rows.Err()
}

func scanGroup(row interface {
	Scan(dest ...any) error
}) (*domain.Group, error) {
	var group domain.Group
	if err := row.Scan(&group.ID, &group.Title, &group.Slug, &group.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan group: %w", err)
	}
	return &group, nil
}
