package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultPageSize is the number of rows in one listing page.
const DefaultPageSize = 100

var (
	// ErrAlreadyRegistered is returned when a model name is registered twice.
	ErrAlreadyRegistered = errors.New("model already registered")
	// ErrInvalidFilter is returned for a filter value a source cannot apply.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Row holds the display values of one entity keyed by column name.
type Row map[string]string

// Query narrows a model listing. Filters on columns outside ListFilter are ignored.
type Query struct {
	Search  string
	Filters map[string]string
	// Page is 1-based; anything below 1 is the first page.
	Page int
}

// Result is one page of a listing. Total counts every matching row.
type Result struct {
	Rows     []Row
	Total    int
	Page     int
	NumPages int
}

// ModelAdmin describes how operators see one entity.
type ModelAdmin struct {
	Name              string
	ListDisplay       []string
	ListEditable      []string
	SearchFields      []string
	ListFilter        []string
	EmptyValueDisplay string
	// Rows loads every row with at least the ListDisplay, SearchFields and
	// ListFilter columns. Matching and paging happen in memory.
	Rows func(ctx context.Context) ([]Row, error)
	// Search replaces Rows for sources that match and page themselves. It
	// returns one window of matching rows and the total match count.
	Search func(ctx context.Context, q Query, limit, offset int) ([]Row, int, error)
}

// List applies search and filters, pages the matches and projects them onto
// ListDisplay. For in-memory sources search is a case-insensitive substring
// match over SearchFields and a filter matches a value equal to or starting
// with the given one, so a date filter such as 2024-01-15 selects the whole
// day.
func (m *ModelAdmin) List(ctx context.Context, q Query) (Result, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * DefaultPageSize

	var (
		rows  []Row
		total int
	)
	if m.Search != nil {
		var err error
		rows, total, err = m.Search(ctx, q, DefaultPageSize, offset)
		if err != nil {
			return Result{}, fmt.Errorf("search %s rows: %w", m.Name, err)
		}
	} else {
		all, err := m.Rows(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("load %s rows: %w", m.Name, err)
		}
		matched := m.match(all, q)
		total = len(matched)
		if offset < len(matched) {
			rows = matched[offset:min(offset+DefaultPageSize, len(matched))]
		}
	}

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, m.project(row))
	}
	return Result{
		Rows:     out,
		Total:    total,
		Page:     page,
		NumPages: max(1, (total+DefaultPageSize-1)/DefaultPageSize),
	}, nil
}

func (m *ModelAdmin) match(rows []Row, q Query) []Row {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if search != "" && !m.matchesSearch(row, search) {
			continue
		}
		if !m.matchesFilters(row, q.Filters) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func (m *ModelAdmin) matchesSearch(row Row, search string) bool {
	if len(m.SearchFields) == 0 {
		return true
	}
	for _, f := range m.SearchFields {
		if strings.Contains(strings.ToLower(row[f]), search) {
			return true
		}
	}
	return false
}

func (m *ModelAdmin) matchesFilters(row Row, filters map[string]string) bool {
	for _, f := range m.ListFilter {
		want, ok := filters[f]
		if !ok || want == "" {
			continue
		}
		if !strings.HasPrefix(row[f], want) {
			return false
		}
	}
	return true
}

func (m *ModelAdmin) project(row Row) Row {
	out := make(Row, len(m.ListDisplay))
	for _, col := range m.ListDisplay {
		v := row[col]
		if v == "" {
			v = m.EmptyValueDisplay
		}
		out[col] = v
	}
	return out
}

// Editable reports whether column may be changed from the listing.
func (m *ModelAdmin) Editable(column string) bool {
	for _, c := range m.ListEditable {
		if c == column {
			return true
		}
	}
	return false
}

// Registry is the set of entities exposed to operators. It is built at
// startup and read only afterwards.
type Registry struct {
	models map[string]*ModelAdmin
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*ModelAdmin)}
}

func (r *Registry) Register(m ModelAdmin) error {
	if m.Name == "" {
		return errors.New("model name is required")
	}
	if (m.Rows == nil) == (m.Search == nil) {
		return fmt.Errorf("model %s: exactly one of Rows and Search is required", m.Name)
	}
	if _, ok := r.models[m.Name]; ok {
		return fmt.Errorf("%s: %w", m.Name, ErrAlreadyRegistered)
	}
	r.models[m.Name] = &m
	r.order = append(r.order, m.Name)
	return nil
}

func (r *Registry) Get(name string) (*ModelAdmin, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Names lists registered models in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
