package searchconfig

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/quarry/internal/filter"
	"github.com/roach88/quarry/internal/plan"
	"github.com/roach88/quarry/internal/predicate"
	"github.com/roach88/quarry/internal/searcherr"
)

// SortColumn is a sortable expression and the direction used when a sort
// token does not name one.
type SortColumn struct {
	Expr          string
	Default       plan.Direction
	Deterministic bool
}

// SpecialContext carries the requester into special filters.
type SpecialContext struct {
	// UserID is the acting user. Zero means anonymous.
	UserID int64
}

// Anonymous reports whether no user is acting.
func (c SpecialContext) Anonymous() bool {
	return c.UserID == 0
}

// SpecialFunc builds the predicate for a "special:" keyword.
type SpecialFunc func(ctx SpecialContext, negated bool) (predicate.Predicate, error)

// Config is the search configuration of one entity type. It is built once
// and never modified afterwards, so it is safe for concurrent use.
type Config struct {
	entity      string
	table       string
	id          predicate.Column
	fields      []plan.Field
	joins       []string
	anonymous   *filter.Descriptor
	filters     map[string]filter.Descriptor
	sorts       map[string]SortColumn
	specials    map[string]SpecialFunc
	defaultSort string

	filterKeys  []string
	sortKeys    []string
	specialKeys []string
}

// Entity is the entity type name, e.g. "posts".
func (c *Config) Entity() string { return c.entity }

// Table is the table the entity lives in.
func (c *Config) Table() string { return c.table }

// IDColumn is the entity's primary key.
func (c *Config) IDColumn() predicate.Column { return c.id }

// DefaultSortKey names the sort used when a query has no sort token.
func (c *Config) DefaultSortKey() string { return c.defaultSort }

// AnonymousFilter returns the filter applied to untagged terms.
func (c *Config) AnonymousFilter() (filter.Descriptor, bool) {
	if c.anonymous == nil {
		return filter.Descriptor{}, false
	}
	return *c.anonymous, true
}

// NamedFilter looks up a filter by canonical name or alias.
func (c *Config) NamedFilter(key string) (filter.Descriptor, bool) {
	d, ok := c.filters[key]
	return d, ok
}

// SortColumn looks up a sort by canonical name or alias.
func (c *Config) SortColumn(key string) (SortColumn, bool) {
	s, ok := c.sorts[key]
	return s, ok
}

// SpecialFilter looks up a special keyword.
func (c *Config) SpecialFilter(key string) (SpecialFunc, bool) {
	f, ok := c.specials[key]
	return f, ok
}

// FilterKeys lists every filter name and alias in registration order.
func (c *Config) FilterKeys() []string { return slices.Clone(c.filterKeys) }

// SortKeys lists every sort name and alias in registration order.
func (c *Config) SortKeys() []string { return slices.Clone(c.sortKeys) }

// SpecialKeys lists every special keyword in registration order.
func (c *Config) SpecialKeys() []string { return slices.Clone(c.specialKeys) }

// FieldNames lists the output fields of result entities.
func (c *Config) FieldNames() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

// BaseQuery returns the unfiltered, unordered result query. The first
// selected field is always the primary key.
func (c *Config) BaseQuery() plan.Plan {
	p := plan.New(c.table, c.fields...)
	for _, j := range c.joins {
		p = p.Join(j)
	}
	return p
}

// CountQuery returns the unfiltered count query. Filters only reference
// the entity table or subqueries, so joins are left out.
func (c *Config) CountQuery() plan.Plan {
	return plan.New(c.table)
}

// TargetQuery selects the value of a sort expression for one entity.
func (c *Config) TargetQuery(col SortColumn, id int64) plan.Plan {
	p := plan.New(c.table, plan.Field{Name: "sort_value", Expr: col.Expr})
	for _, j := range c.joins {
		p = p.Join(j)
	}
	return p.
		Where(predicate.Equals{Column: c.id, Value: id}).
		OrderBy(plan.OrderTerm{Expr: c.id.SQL(), Dir: plan.Asc}).
		Paginate(1, 0)
}

// AroundQueries extends a filtered base query into the two single-row
// queries that find the entities immediately before and after the target
// in the order (col dir, id asc). value is the target's sort value.
func (c *Config) AroundQueries(base plan.Plan, col SortColumn, dir plan.Direction, id int64, value any) (prev, next plan.Plan, err error) {
	if !col.Deterministic {
		return plan.Plan{}, plan.Plan{}, searcherr.Searchf("sort %q has no stable order; neighbors are undefined", col.Expr)
	}

	expr := predicate.Expression(col.Expr)
	after, before := predicate.OpGreater, predicate.OpLess
	if dir == plan.Desc {
		after, before = before, after
	}

	neighbor := func(valueOp, idOp predicate.Operator) predicate.Predicate {
		return predicate.OrOf(
			predicate.Compare{Column: expr, Op: valueOp, Value: value},
			predicate.AndOf(
				predicate.Equals{Column: expr, Value: value},
				predicate.Compare{Column: c.id, Op: idOp, Value: id},
			),
		)
	}

	idExpr := c.id.SQL()
	next = base.
		Where(neighbor(after, predicate.OpGreater)).
		OrderBy(
			plan.OrderTerm{Expr: col.Expr, Dir: dir},
			plan.OrderTerm{Expr: idExpr, Dir: plan.Asc},
		).
		Paginate(1, 0)
	prev = base.
		Where(neighbor(before, predicate.OpLess)).
		OrderBy(
			plan.OrderTerm{Expr: col.Expr, Dir: dir.Opposite()},
			plan.OrderTerm{Expr: idExpr, Dir: plan.Desc},
		).
		Paginate(1, 0)
	return prev, next, nil
}

// Builder assembles a Config. Problems are collected and reported together
// by Build.
type Builder struct {
	cfg  Config
	errs []error
}

// NewBuilder starts a configuration for entity stored in table, keyed by
// table.id.
func NewBuilder(entity, table string) *Builder {
	return &Builder{cfg: Config{
		entity:   entity,
		table:    table,
		id:       predicate.Col(table, "id"),
		filters:  make(map[string]filter.Descriptor),
		sorts:    make(map[string]SortColumn),
		specials: make(map[string]SpecialFunc),
	}}
}

// Field adds an output field. The primary key is always selected first.
func (b *Builder) Field(name, expr string) *Builder {
	if name == "id" {
		b.fail("field name %q is reserved", name)
		return b
	}
	b.cfg.fields = append(b.cfg.fields, plan.Field{Name: name, Expr: expr})
	return b
}

// Join adds a join used by result queries, typically for sorting on a
// related table.
func (b *Builder) Join(clause string) *Builder {
	b.cfg.joins = append(b.cfg.joins, clause)
	return b
}

// Anonymous sets the filter for untagged terms.
func (b *Builder) Anonymous(d filter.Descriptor) *Builder {
	if err := d.Validate(); err != nil {
		b.fail("anonymous filter: %v", err)
		return b
	}
	b.cfg.anonymous = &d
	return b
}

// Filter registers a named filter under a canonical name and aliases.
func (b *Builder) Filter(d filter.Descriptor, names ...string) *Builder {
	if err := d.Validate(); err != nil {
		b.fail("filter %v: %v", names, err)
		return b
	}
	for _, name := range b.names("filter", names) {
		if _, dup := b.cfg.filters[name]; dup {
			b.fail("filter name %q registered twice", name)
			continue
		}
		b.cfg.filters[name] = d
		b.cfg.filterKeys = append(b.cfg.filterKeys, name)
	}
	return b
}

// Sort registers a sort column under a canonical name and aliases.
func (b *Builder) Sort(col SortColumn, names ...string) *Builder {
	if col.Expr == "" {
		b.fail("sort %v has no expression", names)
		return b
	}
	if col.Default == 0 {
		col.Default = plan.Asc
	}
	for _, name := range b.names("sort", names) {
		if _, dup := b.cfg.sorts[name]; dup {
			b.fail("sort name %q registered twice", name)
			continue
		}
		b.cfg.sorts[name] = col
		b.cfg.sortKeys = append(b.cfg.sortKeys, name)
	}
	return b
}

// Special registers a special keyword handler.
func (b *Builder) Special(fn SpecialFunc, names ...string) *Builder {
	if fn == nil {
		b.fail("special %v has no handler", names)
		return b
	}
	for _, name := range b.names("special", names) {
		if _, dup := b.cfg.specials[name]; dup {
			b.fail("special name %q registered twice", name)
			continue
		}
		b.cfg.specials[name] = fn
		b.cfg.specialKeys = append(b.cfg.specialKeys, name)
	}
	return b
}

// DefaultSort sets the sort used when a query has none.
func (b *Builder) DefaultSort(key string) *Builder {
	b.cfg.defaultSort = key
	return b
}

// Build validates and returns the configuration.
func (b *Builder) Build() (*Config, error) {
	if b.cfg.entity == "" || b.cfg.table == "" {
		b.fail("entity and table are required")
	}
	if b.cfg.defaultSort == "" {
		b.fail("no default sort")
	} else if _, ok := b.cfg.sorts[b.cfg.defaultSort]; !ok {
		b.fail("default sort %q is not a registered sort", b.cfg.defaultSort)
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("search configuration %q: %w", b.cfg.entity, errors.Join(b.errs...))
	}

	cfg := b.cfg
	cfg.fields = append([]plan.Field{{Name: "id", Expr: cfg.id.SQL()}}, cfg.fields...)
	cfg.joins = slices.Clone(cfg.joins)
	cfg.filters = maps.Clone(cfg.filters)
	cfg.sorts = maps.Clone(cfg.sorts)
	cfg.specials = maps.Clone(cfg.specials)
	return &cfg, nil
}

// names validates registration names. Tokens are lower cased before lookup,
// so names must already be lower case.
func (b *Builder) names(kind string, names []string) []string {
	if len(names) == 0 {
		b.fail("%s registered without a name", kind)
		return nil
	}
	valid := make([]string, 0, len(names))
	for _, name := range names {
		switch {
		case name == "":
			b.fail("%s has an empty name", kind)
		case name != strings.ToLower(name):
			b.fail("%s name %q must be lower case", kind, name)
		default:
			valid = append(valid, name)
		}
	}
	return valid
}

func (b *Builder) fail(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}
