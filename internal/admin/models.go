package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"yatube/internal/repository"
)

const (
	emptyDisplay        = "-пусто-"
	defaultEmptyDisplay = "-"
	timeLayout          = "2006-01-02 15:04:05"
)

// Sources are the repositories the default registrations read from.
type Sources struct {
	Groups   repository.GroupRepository
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Follows  repository.FollowRepository
}

// NewDefaultRegistry registers group, post, comment and follow.
func NewDefaultRegistry(src Sources) (*Registry, error) {
	r := NewRegistry()
	for _, m := range []ModelAdmin{
		{
			Name:              "group",
			ListDisplay:       []string{"pk", "title", "slug", "description"},
			SearchFields:      []string{"title"},
			EmptyValueDisplay: emptyDisplay,
			Rows:              groupRows(src.Groups),
		},
		{
			Name:              "post",
			ListDisplay:       []string{"pk", "text", "pub_date", "author", "group"},
			ListEditable:      []string{"group"},
			SearchFields:      []string{"text"},
			ListFilter:        []string{"pub_date"},
			EmptyValueDisplay: emptyDisplay,
			Search:            postSearch(src.Posts),
		},
		{
			Name:              "comment",
			ListDisplay:       []string{"post", "author", "text", "created"},
			ListFilter:        []string{"text", "created"},
			EmptyValueDisplay: defaultEmptyDisplay,
			Rows:              commentRows(src.Comments),
		},
		{
			Name:              "follow",
			ListDisplay:       []string{"user", "author"},
			ListFilter:        []string{"user", "author"},
			EmptyValueDisplay: defaultEmptyDisplay,
			Rows:              followRows(src.Follows),
		},
	} {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func groupRows(groups repository.GroupRepository) func(context.Context) ([]Row, error) {
	return func(ctx context.Context) ([]Row, error) {
		list, err := groups.List(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(list))
		for _, g := range list {
			rows = append(rows, Row{
				"pk":          strconv.FormatInt(g.ID, 10),
				"title":       g.Title,
				"slug":        g.Slug,
				"description": g.Description,
			})
		}
		return rows, nil
	}
}

// postSearch pushes search and the pub_date filter down to the repository so
// every post is reachable however many there are.
func postSearch(posts repository.PostRepository) func(context.Context, Query, int, int) ([]Row, int, error) {
	return func(ctx context.Context, q Query, limit, offset int) ([]Row, int, error) {
		filter := repository.PostFilter{Text: strings.TrimSpace(q.Search)}
		if v := strings.TrimSpace(q.Filters["pub_date"]); v != "" {
			from, before, err := datePrefixRange(v)
			if err != nil {
				return nil, 0, err
			}
			filter.CreatedFrom, filter.CreatedBefore = &from, &before
		}

		total, err := posts.Count(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
		list, err := posts.List(ctx, filter, limit, offset)
		if err != nil {
			return nil, 0, err
		}
		rows := make([]Row, 0, len(list))
		for _, p := range list {
			row := Row{
				"pk":       strconv.FormatInt(p.ID, 10),
				"text":     p.Text,
				"pub_date": formatTime(p.CreatedAt),
				"author":   p.Author.Username,
				"group":    "",
			}
			if p.Group != nil {
				row["group"] = p.Group.String()
			}
			rows = append(rows, row)
		}
		return rows, total, nil
	}
}

var datePrefixes = []struct {
	layout string
	next   func(time.Time) time.Time
}{
	{"2006-01-02 15:04:05", func(t time.Time) time.Time { return t.Add(time.Second) }},
	{"2006-01-02 15:04", func(t time.Time) time.Time { return t.Add(time.Minute) }},
	{"2006-01-02 15", func(t time.Time) time.Time { return t.Add(time.Hour) }},
	{"2006-01-02", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
	{"2006-01", func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
	{"2006", func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }},
}

// datePrefixRange turns a prefix of timeLayout into the UTC interval it
// covers, e.g. 2024-01-15 becomes [2024-01-15, 2024-01-16).
func datePrefixRange(v string) (time.Time, time.Time, error) {
	for _, p := range datePrefixes {
		if t, err := time.ParseInLocation(p.layout, v, time.UTC); err == nil {
			return t, p.next(t), nil
		}
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: %q is not a date", ErrInvalidFilter, v)
}

func commentRows(comments repository.CommentRepository) func(context.Context) ([]Row, error) {
	return func(ctx context.Context) ([]Row, error) {
		list, err := comments.List(ctx, 0)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(list))
		for _, c := range list {
			rows = append(rows, Row{
				"post":    strconv.FormatInt(c.PostID, 10),
				"author":  c.Author.Username,
				"text":    c.Text,
				"created": formatTime(c.CreatedAt),
			})
		}
		return rows, nil
	}
}

func followRows(follows repository.FollowRepository) func(context.Context) ([]Row, error) {
	return func(ctx context.Context) ([]Row, error) {
		list, err := follows.List(ctx, 0)
		if err != nil {
			return nil, err
		}
		rows := make([]Row, 0, len(list))
		for _, f := range list {
			rows = append(rows, Row{
				"user":   f.User.Username,
				"author": f.Author.Username,
			})
		}
		return rows, nil
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
