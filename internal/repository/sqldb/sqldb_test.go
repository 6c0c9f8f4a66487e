package sqldb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/internal/domain"
	"yatube/internal/repository"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "yatube.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := NewRepositories(db)
	require.NoError(t, repos.Init(context.Background()))
	return repos
}

func mustUser(t *testing.T, repos *Repositories, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, PasswordHash: "x"}
	_, err := repos.Users.Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func mustPost(t *testing.T, repos *Repositories, author *domain.User, group *domain.Group, text string, at time.Time) *domain.Post {
	t.Helper()
	p := &domain.Post{Text: text, AuthorID: author.ID, CreatedAt: at}
	if group != nil {
		p.GroupID = &group.ID
	}
	_, err := repos.Posts.Create(context.Background(), p)
	require.NoError(t, err)
	return p
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	u := mustUser(t, repos, "leo")
	require.NotZero(t, u.ID)

	got, err := repos.Users.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "x", got.PasswordHash)

	_, err = repos.Users.Create(ctx, &domain.User{Username: "leo", PasswordHash: "y"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	_, err = repos.Users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	mustUser(t, repos, "ann")
	users, err := repos.Users.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestGroupRepository(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	g := &domain.Group{Title: "Cats", Slug: "cats", Description: "about cats"}
	_, err := repos.Groups.Create(ctx, g)
	require.NoError(t, err)

	got, err := repos.Groups.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, *g, *got)

	_, err = repos.Groups.Create(ctx, &domain.Group{Title: "Other", Slug: "cats"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	_, err = repos.Groups.GetBySlug(ctx, "dogs")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostRepositoryListsNewestFirst(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	author := mustUser(t, repos, "author")
	group := &domain.Group{Title: "G", Slug: "g"}
	_, err := repos.Groups.Create(ctx, group)
	require.NoError(t, err)

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		var g *domain.Group
		if i%2 == 0 {
			g = group
		}
		mustPost(t, repos, author, g, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repos.Posts.List(ctx, repository.PostFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "post 13", first[0].Text)
	assert.Equal(t, "author", first[0].Author.Username)

	rest, err := repos.Posts.List(ctx, repository.PostFilter{}, 10, 10)
	require.NoError(t, err)
	require.Len(t, rest, 4)
	assert.Equal(t, "post 0", rest[3].Text)

	n, err := repos.Posts.Count(ctx, repository.PostFilter{GroupID: &group.ID})
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	inGroup, err := repos.Posts.List(ctx, repository.PostFilter{GroupID: &group.ID}, 10, 0)
	require.NoError(t, err)
	for _, p := range inGroup {
		require.NotNil(t, p.Group)
		assert.Equal(t, "g", p.Group.Slug)
	}

	matched, err := repos.Posts.Count(ctx, repository.PostFilter{Text: "post 1"})
	require.NoError(t, err)
	assert.Equal(t, 5, matched) // 1, 10..13
}

func TestPostRepositoryUpdateKeepsAuthor(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	author := mustUser(t, repos, "author")
	other := mustUser(t, repos, "other")
	p := mustPost(t, repos, author, nil, "before", time.Now())

	p.Text = "after"
	p.AuthorID = other.ID
	require.NoError(t, repos.Posts.Update(ctx, p))

	got, err := repos.Posts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Text)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.Nil(t, got.Group)

	err = repos.Posts.Update(ctx, &domain.Post{ID: 999, Text: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostDeleteCascadesComments(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	author := mustUser(t, repos, "author")
	p := mustPost(t, repos, author, nil, "text", time.Now())

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := repos.Comments.Create(ctx, &domain.Comment{
			PostID:    p.ID,
			AuthorID:  author.ID,
			Text:      fmt.Sprintf("c%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	comments, err := repos.Comments.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "c0", comments[0].Text)
	assert.Equal(t, "author", comments[0].Author.Username)

	require.NoError(t, repos.Posts.Delete(ctx, p.ID))
	n, err := repos.Comments.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, repos.Posts.Delete(ctx, p.ID), repository.ErrNotFound)
	_, err = repos.Posts.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFollowRepository(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)

	a := mustUser(t, repos, "a")
	b := mustUser(t, repos, "b")
	c := mustUser(t, repos, "c")

	created, err := repos.Follows.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repos.Follows.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)

	n, err := repos.Follows.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mustPost(t, repos, b, nil, "from b", time.Now())
	mustPost(t, repos, c, nil, "from c", time.Now())

	feed, err := repos.Posts.List(ctx, repository.PostFilter{FollowerID: &a.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "from b", feed[0].Text)

	follows, err := repos.Follows.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, follows, 1)
	assert.Equal(t, "a", follows[0].User.Username)
	assert.Equal(t, "b", follows[0].Author.Username)

	removed, err := repos.Follows.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repos.Follows.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	exists, err := repos.Follows.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

// followConcurrently fires parallel Create calls for one edge and checks
// that exactly one of them inserted it.
func followConcurrently(t *testing.T, repos *Repositories, userID, authorID int64) {
	t.Helper()
	ctx := context.Background()
	before, err := repos.Follows.Count(ctx)
	require.NoError(t, err)

	const workers = 16
	start := make(chan struct{})
	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := repos.Follows.Create(ctx, userID, authorID)
			if !assert.NoError(t, err) {
				return
			}
			if ok {
				created.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	after, err := repos.Follows.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func TestFollowRepositoryConcurrentCreate(t *testing.T) {
	repos := newTestRepos(t)
	a := mustUser(t, repos, "a")
	b := mustUser(t, repos, "b")
	followConcurrently(t, repos, a.ID, b.ID)
}

func TestPostFilterTextAndDates(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	author := mustUser(t, repos, "author")
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	mustPost(t, repos, author, nil, "Hello World", day.Add(-time.Minute))
	mustPost(t, repos, author, nil, "100% done", day)
	mustPost(t, repos, author, nil, "snake_case", day.Add(23*time.Hour))
	mustPost(t, repos, author, nil, "tomorrow", day.AddDate(0, 0, 1))

	count := func(f repository.PostFilter) int {
		n, err := repos.Posts.Count(ctx, f)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 1, count(repository.PostFilter{Text: "hello"}))
	assert.Equal(t, 1, count(repository.PostFilter{Text: "0%"}))
	assert.Equal(t, 1, count(repository.PostFilter{Text: "_"}))
	assert.Equal(t, 1, count(repository.PostFilter{Text: "%"}))

	next := day.AddDate(0, 0, 1)
	within := repository.PostFilter{CreatedFrom: &day, CreatedBefore: &next}
	assert.Equal(t, 2, count(within))
	posts, err := repos.Posts.List(ctx, within, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "snake_case", posts[0].Text)
	assert.Equal(t, "100% done", posts[1].Text)
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: Postgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &DB{dialect: SQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", "")
	assert.Error(t, err)
}
