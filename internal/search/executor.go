package search

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/quarry/internal/filter"
	"github.com/roach88/quarry/internal/plan"
	"github.com/roach88/quarry/internal/predicate"
	"github.com/roach88/quarry/internal/query"
	"github.com/roach88/quarry/internal/querysql"
	"github.com/roach88/quarry/internal/searchconfig"
	"github.com/roach88/quarry/internal/searcherr"
	"github.com/roach88/quarry/internal/timerange"
)

// Querier runs statements on the request's connection. *sql.Conn, *sql.DB
// and *sql.Tx all satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Request is one search request.
type Request struct {
	Text     string
	Page     int
	PageSize int
	// UserID is the acting user for special filters. Zero is anonymous.
	UserID int64
}

// Entity is one result row: its primary key and the configured fields,
// including "id".
type Entity struct {
	ID     int64          `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Page is a paginated result.
type Page struct {
	Query    string   `json:"query"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Total    int64    `json:"total"`
	Results  []Entity `json:"results"`
}

// Around holds the neighbors of one entity. Either may be nil.
type Around struct {
	Previous *Entity `json:"previous"`
	Next     *Entity `json:"next"`
}

// Executor compiles queries against an entity configuration and runs them.
// It holds no per-request state and is safe for concurrent use.
type Executor struct {
	// Parser tokenizes query text. Nil parses without caching.
	Parser *query.Parser
	// Dates resolves date phrases. Nil uses the system clock.
	Dates timerange.Resolver
	// MaxPageSize clamps Request.PageSize. Zero disables clamping.
	MaxPageSize int

	compiler querysql.Compiler
}

// compiled is a query text resolved against one configuration.
type compiled struct {
	filter predicate.Predicate
	sort   searchconfig.SortColumn
	dir    plan.Direction
}

// Execute runs a paginated search.
//
// Page and page size are validated before anything else; the page size is
// then clamped to MaxPageSize. Results are ordered by the active sort and
// then by primary key, so repeated calls page identically.
func (e *Executor) Execute(ctx context.Context, db Querier, cfg *searchconfig.Config, req Request) (*Page, error) {
	if req.Page < 1 {
		return nil, searcherr.Validationf("page must be at least 1, got %d", req.Page)
	}
	if req.PageSize < 1 {
		return nil, searcherr.Validationf("page size must be at least 1, got %d", req.PageSize)
	}
	pageSize := req.PageSize
	if e.MaxPageSize > 0 && pageSize > e.MaxPageSize {
		pageSize = e.MaxPageSize
	}

	// Resolve every token before touching storage
	c, err := e.compile(cfg, req)
	if err != nil {
		return nil, err
	}

	// Total ignores pagination
	countSQL, countParams, err := e.compiler.CompileCount(cfg.CountQuery().Where(c.filter))
	if err != nil {
		return nil, fmt.Errorf("compile count query: %w", err)
	}
	var total int64
	if err := db.QueryRowContext(ctx, countSQL, countParams...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s: %w", cfg.Entity(), err)
	}

	// Active sort first, then id so ties page the same way every time
	p := cfg.BaseQuery().
		Where(c.filter).
		OrderBy(
			plan.OrderTerm{Expr: c.sort.Expr, Dir: c.dir},
			plan.OrderTerm{Expr: cfg.IDColumn().SQL(), Dir: plan.Asc},
		).
		Paginate(pageSize, (req.Page-1)*pageSize)

	results, err := e.fetch(ctx, db, p)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", cfg.Entity(), err)
	}

	return &Page{
		Query:    req.Text,
		Page:     req.Page,
		PageSize: pageSize,
		Total:    total,
		Results:  results,
	}, nil
}

// Around finds the entities immediately before and after id under the
// request's filters and active sort. Page fields of req are ignored. An
// unknown id yields an empty Around.
func (e *Executor) Around(ctx context.Context, db Querier, cfg *searchconfig.Config, req Request, id int64) (*Around, error) {
	c, err := e.compile(cfg, req)
	if err != nil {
		return nil, err
	}
	if !c.sort.Deterministic {
		return nil, searcherr.Searchf("cannot find neighbors under a random sort")
	}

	// Load the target's sort value; the target need not match the filters
	targetSQL, targetParams, err := e.compiler.CompileSelect(cfg.TargetQuery(c.sort, id))
	if err != nil {
		return nil, fmt.Errorf("compile target query: %w", err)
	}
	var value any
	err = db.QueryRowContext(ctx, targetSQL, targetParams...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return &Around{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %d: %w", cfg.Entity(), id, err)
	}

	// One row on each side of (value, id) under the filtered ordering
	prev, next, err := cfg.AroundQueries(cfg.BaseQuery().Where(c.filter), c.sort, c.dir, id, normalize(value))
	if err != nil {
		return nil, err
	}

	var out Around
	if out.Previous, err = e.fetchOne(ctx, db, prev); err != nil {
		return nil, fmt.Errorf("previous %s: %w", cfg.Entity(), err)
	}
	if out.Next, err = e.fetchOne(ctx, db, next); err != nil {
		return nil, fmt.Errorf("next %s: %w", cfg.Entity(), err)
	}
	return &out, nil
}

func (e *Executor) parse(text string) (query.ParsedQuery, error) {
	if e.Parser != nil {
		return e.Parser.Parse(text)
	}
	return query.Parse(text)
}

// compile resolves every token of the request against cfg. It touches no
// storage, so a failure leaves nothing behind.
func (e *Executor) compile(cfg *searchconfig.Config, req Request) (compiled, error) {
	parsed, err := e.parse(req.Text)
	if err != nil {
		return compiled{}, err
	}

	dates := e.Dates
	if dates == nil {
		dates = timerange.NewResolver(nil)
	}
	fctx := filter.Context{Dates: dates}

	var preds []predicate.Predicate

	for _, tok := range parsed.Anonymous {
		d, ok := cfg.AnonymousFilter()
		if !ok {
			return compiled{}, searcherr.Searchf("%s cannot be searched by anonymous tokens", cfg.Entity())
		}
		p, err := filter.Compile(fctx, d, tok.Criterion, tok.Negated)
		if err != nil {
			return compiled{}, err
		}
		preds = append(preds, p)
	}

	for _, tok := range parsed.Named {
		d, ok := cfg.NamedFilter(tok.Key)
		if !ok {
			return compiled{}, searcherr.Searchf("unknown named token: %q", tok.Key)
		}
		p, err := filter.Compile(fctx, d, tok.Criterion, tok.Negated)
		if err != nil {
			return compiled{}, err
		}
		preds = append(preds, p)
	}

	// Specials see the acting user; anonymous requests get UserID 0
	sctx := searchconfig.SpecialContext{UserID: req.UserID}
	for _, tok := range parsed.Special {
		fn, ok := cfg.SpecialFilter(tok.Value)
		if !ok {
			return compiled{}, searcherr.Searchf("unknown special token: %q", tok.Value)
		}
		p, err := fn(sctx, tok.Negated)
		if err != nil {
			return compiled{}, err
		}
		preds = append(preds, p)
	}

	// Last sort token wins
	key, order := cfg.DefaultSortKey(), query.Default
	if n := len(parsed.Sort); n > 0 {
		key, order = parsed.Sort[n-1].Key, parsed.Sort[n-1].Order
	}
	col, ok := cfg.SortColumn(key)
	if !ok {
		return compiled{}, searcherr.Searchf("unknown sort token: %q", key)
	}

	return compiled{
		filter: predicate.AndOf(preds...),
		sort:   col,
		dir:    direction(order, col.Default),
	}, nil
}

func direction(o query.Order, def plan.Direction) plan.Direction {
	switch o {
	case query.Ascending:
		return plan.Asc
	case query.Descending:
		return plan.Desc
	case query.NegatedDefault:
		return def.Opposite()
	default:
		return def
	}
}

func (e *Executor) fetch(ctx context.Context, db Querier, p plan.Plan) ([]Entity, error) {
	sqlText, params, err := e.compiler.CompileSelect(p)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}

	rows, err := db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	// Scan into a generic row; field names come from the plan's aliases
	results := []Entity{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		ent := Entity{Fields: make(map[string]any, len(cols))}
		for i, name := range cols {
			ent.Fields[name] = normalize(values[i])
		}
		id, ok := ent.Fields["id"].(int64)
		if !ok {
			return nil, fmt.Errorf("row has non-integer id %v", ent.Fields["id"])
		}
		ent.ID = id
		results = append(results, ent)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Executor) fetchOne(ctx context.Context, db Querier, p plan.Plan) (*Entity, error) {
	results, err := e.fetch(ctx, db, p)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return &results[0], nil
}

// normalize turns driver text into strings so values compare and encode
// predictably.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
