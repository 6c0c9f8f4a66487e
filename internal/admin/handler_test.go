package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/internal/admin"
	"yatube/internal/cache"
	"yatube/internal/domain"
	"yatube/internal/repository/sqldb"
	"yatube/internal/service"
	"yatube/internal/testutil"
)

type adminFixture struct {
	router *gin.Engine
	repos  *sqldb.Repositories
	cache  *cache.Memory
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := testutil.NewTestRepositories(t)
	logger, _ := testutil.NewNullLogger()
	registry, err := admin.NewDefaultRegistry(admin.Sources{
		Groups:   repos.Groups,
		Posts:    repos.Posts,
		Comments: repos.Comments,
		Follows:  repos.Follows,
	})
	require.NoError(t, err)

	pageCache := cache.NewMemory(16, time.Minute)
	router := gin.New()
	h := admin.NewHandler(registry, service.NewGroupService(repos.Groups, repos.Posts), pageCache, logger)
	h.RegisterRoutes(router.Group("/admin", gin.BasicAuth(gin.Accounts{"admin": "secret"})))

	return &adminFixture{router: router, repos: repos, cache: pageCache}
}

func (f *adminFixture) do(t *testing.T, method, target string, form url.Values, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if auth {
		req.SetBasicAuth("admin", "secret")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAdminRequiresBasicAuth(t *testing.T) {
	f := newAdminFixture(t)
	w := f.do(t, http.MethodGet, "/admin/", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminListsModels(t *testing.T) {
	f := newAdminFixture(t)
	w := f.do(t, http.MethodGet, "/admin/", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Models []admin.ModelResponse `json:"models"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Models, 4)
	assert.Equal(t, "group", resp.Models[0].Name)
	assert.Equal(t, []string{"group"}, resp.Models[1].ListEditable)

	w = f.do(t, http.MethodGet, "/admin/unknown/", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCreateGroupAndEditPost(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)

	w := f.do(t, http.MethodPost, "/admin/group/", url.Values{"title": {"Cats"}, "slug": {"cats"}}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/admin/group/", url.Values{"title": {"Cats"}, "slug": {"cats"}}, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/admin/group/", url.Values{"title": {"Bad"}, "slug": {"no spaces"}}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	group, err := f.repos.Groups.GetBySlug(ctx, "cats")
	require.NoError(t, err)

	author := &domain.User{Username: "author", PasswordHash: "x"}
	_, err = f.repos.Users.Create(ctx, author)
	require.NoError(t, err)
	post := &domain.Post{Text: "a post", AuthorID: author.ID, CreatedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	_, err = f.repos.Posts.Create(ctx, post)
	require.NoError(t, err)

	w = f.do(t, http.MethodGet, "/admin/post/", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var rows admin.RowsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows.Rows, 1)
	assert.Equal(t, "-пусто-", rows.Rows[0]["group"])

	w = f.do(t, http.MethodPost, "/admin/post/"+strconv.FormatInt(post.ID, 10)+"/", url.Values{"group": {strconv.FormatInt(group.ID, 10)}}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := f.repos.Posts.Get(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Group)
	assert.Equal(t, "cats", got.Group.Slug)
	assert.Equal(t, "a post", got.Text)

	w = f.do(t, http.MethodGet, "/admin/post/?pub_date=2024-01-15", nil, true)
	var filtered admin.RowsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &filtered))
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, "Cats", filtered.Rows[0]["group"])

	w = f.do(t, http.MethodGet, "/admin/group/?q=dogs", nil, true)
	var searched admin.RowsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &searched))
	assert.Equal(t, "group", searched.Model)
	assert.Empty(t, searched.Rows)

	w = f.do(t, http.MethodPost, "/admin/post/999/", url.Values{"group": {""}}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminClearCache(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)
	require.NoError(t, f.cache.Set(ctx, "page:anonymous:/", []byte("stale")))

	w := f.do(t, http.MethodPost, "/admin/cache/clear", nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	_, ok, err := f.cache.Get(ctx, "page:anonymous:/")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdminPostSearchReachesEveryRow(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture(t)

	author := &domain.User{Username: "author", PasswordHash: "x"}
	_, err := f.repos.Users.Create(ctx, author)
	require.NoError(t, err)

	const total = 2*admin.DefaultPageSize + 50
	start := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	for i := 0; i < total; i++ {
		text := "post " + strconv.Itoa(i)
		switch i {
		case 0:
			text = "the oldest needle"
		case 1:
			text = "100% sure"
		}
		p := &domain.Post{Text: text, AuthorID: author.ID, CreatedAt: start.Add(time.Duration(i) * 10 * time.Minute)}
		_, err := f.repos.Posts.Create(ctx, p)
		require.NoError(t, err)
	}

	list := func(t *testing.T, target string) admin.RowsResponse {
		t.Helper()
		w := f.do(t, http.MethodGet, target, nil, true)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp admin.RowsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	first := list(t, "/admin/post/")
	assert.Len(t, first.Rows, admin.DefaultPageSize)
	assert.Equal(t, total, first.Total)
	assert.Equal(t, 3, first.NumPages)

	last := list(t, "/admin/post/?page=3")
	require.Len(t, last.Rows, 50)
	assert.Equal(t, "the oldest needle", last.Rows[49]["text"])

	needle := list(t, "/admin/post/?q=NEEDLE")
	require.Len(t, needle.Rows, 1)
	assert.Equal(t, "the oldest needle", needle.Rows[0]["text"])
	assert.Equal(t, 1, needle.Total)

	// LIKE wildcards in the search term are literal
	percent := list(t, "/admin/post/?q="+url.QueryEscape("0%"))
	require.Len(t, percent.Rows, 1)
	assert.Equal(t, "100% sure", percent.Rows[0]["text"])

	// 144 posts a day at ten minute steps starting at midnight
	day := list(t, "/admin/post/?pub_date=2024-01-14")
	assert.Equal(t, 144, day.Total)
	hour := list(t, "/admin/post/?pub_date="+url.QueryEscape("2024-01-14 00"))
	assert.Equal(t, 6, hour.Total)

	w := f.do(t, http.MethodGet, "/admin/post/?pub_date=someday", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
