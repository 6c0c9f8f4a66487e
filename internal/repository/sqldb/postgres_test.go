package sqldb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"yatube/internal/domain"
	"yatube/internal/repository"
)

func TestPostgresRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres container test skipped in short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "yatube",
			"POSTGRES_PASSWORD": "yatube",
			"POSTGRES_DB":       "yatube",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://yatube:yatube@%s:%s/yatube?sslmode=disable", host, port.Port())

	db, err := Open(ctx, "postgres", "", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	assert.Equal(t, Postgres, db.Dialect())

	repos := NewRepositories(db)
	require.NoError(t, repos.Init(ctx))
	// Init is idempotent.
	require.NoError(t, repos.Init(ctx))

	t.Run("unique username", func(t *testing.T) {
		_, err := repos.Users.Create(ctx, &domain.User{Username: "pg", PasswordHash: "x"})
		require.NoError(t, err)
		_, err = repos.Users.Create(ctx, &domain.User{Username: "pg", PasswordHash: "x"})
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("follow edge is unique", func(t *testing.T) {
		a := &domain.User{Username: "pg-a", PasswordHash: "x"}
		b := &domain.User{Username: "pg-b", PasswordHash: "x"}
		_, err := repos.Users.Create(ctx, a)
		require.NoError(t, err)
		_, err = repos.Users.Create(ctx, b)
		require.NoError(t, err)

		created, err := repos.Follows.Create(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.True(t, created)
		created, err = repos.Follows.Create(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.False(t, created)

		// the reverse edge is still free
		followConcurrently(t, repos, b.ID, a.ID)
	})

	t.Run("text search folds case", func(t *testing.T) {
		author, err := repos.Users.GetByUsername(ctx, "pg")
		require.NoError(t, err)
		at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
		_, err = repos.Posts.Create(ctx, &domain.Post{Text: "Привет, Мир", AuthorID: author.ID, CreatedAt: at})
		require.NoError(t, err)

		n, err := repos.Posts.Count(ctx, repository.PostFilter{Text: "мир"})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		from, before := at.Truncate(24*time.Hour), at.Truncate(24*time.Hour).AddDate(0, 0, 1)
		n, err = repos.Posts.Count(ctx, repository.PostFilter{CreatedFrom: &from, CreatedBefore: &before})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("posts with group", func(t *testing.T) {
		author, err := repos.Users.GetByUsername(ctx, "pg")
		require.NoError(t, err)
		g := &domain.Group{Title: "PG", Slug: "pg"}
		_, err = repos.Groups.Create(ctx, g)
		require.NoError(t, err)

		p := &domain.Post{Text: "hello", AuthorID: author.ID, GroupID: &g.ID, CreatedAt: time.Now()}
		_, err = repos.Posts.Create(ctx, p)
		require.NoError(t, err)

		posts, err := repos.Posts.List(ctx, repository.PostFilter{GroupID: &g.ID}, 10, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "PG", posts[0].Group.Title)
	})
}
