// Package plan provides the request-scoped query plan.
//
// A Plan is an immutable value. Every builder method returns a new Plan and
// leaves the receiver untouched, so a base plan shared by a search
// configuration can be extended by any number of requests.
package plan

import (
	"slices"

	"github.com/roach88/quarry/internal/predicate"
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota + 1
	Desc
)

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// SQL renders the direction keyword.
func (d Direction) SQL() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// Field is one selected output column.
type Field struct {
	Name string
	Expr string
}

// OrderTerm is one ORDER BY term.
type OrderTerm struct {
	Expr string
	Dir  Direction
}

// Plan describes a SELECT over one entity table.
type Plan struct {
	from    string
	joins   []string
	fields  []Field
	filters []predicate.Predicate
	order   []OrderTerm
	limit   int
	offset  int
}

// New starts a plan selecting fields from a table.
func New(from string, fields ...Field) Plan {
	return Plan{from: from, fields: slices.Clone(fields)}
}

// Join adds a join clause such as
// "LEFT JOIN users ON users.id = comments.user_id".
func (p Plan) Join(clause string) Plan {
	p.joins = append(slices.Clip(p.joins), clause)
	return p
}

// Where conjoins pred with the existing filters.
func (p Plan) Where(pred predicate.Predicate) Plan {
	p.filters = append(slices.Clip(p.filters), pred)
	return p
}

// OrderBy appends order terms after the existing ones.
func (p Plan) OrderBy(terms ...OrderTerm) Plan {
	p.order = append(slices.Clip(p.order), terms...)
	return p
}

// Paginate sets LIMIT and OFFSET. A limit of zero means no limit.
func (p Plan) Paginate(limit, offset int) Plan {
	p.limit = limit
	p.offset = offset
	return p
}

// Select replaces the selected fields.
func (p Plan) Select(fields ...Field) Plan {
	p.fields = slices.Clone(fields)
	return p
}

func (p Plan) From() string { return p.from }
func (p Plan) Joins() []string { return slices.Clone(p.joins) }
func (p Plan) Fields() []Field { return slices.Clone(p.fields) }
func (p Plan) Order() []OrderTerm { return slices.Clone(p.order) }
func (p Plan) Filters() []predicate.Predicate { return slices.Clone(p.filters) }
func (p Plan) Limit() int { return p.limit }
func (p Plan) Offset() int { return p.offset }

// Filter returns the conjunction of all filters.
func (p Plan) Filter() predicate.Predicate {
	return predicate.AndOf(p.filters...)
}
