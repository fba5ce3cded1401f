package predicate

import "time"

// Column references a table column, or a raw SQL expression when Expr is set.
type Column struct {
	Table string
	Name  string
	Expr  string
}

// Col references table.name.
func Col(table, name string) Column {
	return Column{Table: table, Name: name}
}

// Expression wraps a raw SQL expression such as "posts.width * posts.height".
// Expressions come from entity configuration, never from user input.
func Expression(expr string) Column {
	return Column{Expr: expr}
}

// SQL renders the column reference.
func (c Column) SQL() string {
	if c.Expr != "" {
		return c.Expr
	}
	if c.Table == "" {
		return c.Name
	}
	return c.Table + "." + c.Name
}

// IsZero reports whether the column references nothing.
func (c Column) IsZero() bool {
	return c.Expr == "" && c.Name == ""
}

// Predicate is a boolean condition over rows.
type Predicate interface {
	predicateNode()
}

// True always holds.
type True struct{}

func (True) predicateNode() {}

// False never holds.
type False struct{}

func (False) predicateNode() {}

// Equals holds when Column = Value.
type Equals struct {
	Column Column
	Value  any
}

func (Equals) predicateNode() {}

// In holds when Column is one of Values. An empty list never holds.
type In struct {
	Column Column
	Values []any
}

func (In) predicateNode() {}

// Between holds when Low <= Column <= High.
type Between struct {
	Column Column
	Low    any
	High   any
}

func (Between) predicateNode() {}

// Operator is a one-sided comparison.
type Operator string

const (
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
)

// Compare holds when Column Op Value.
type Compare struct {
	Column Column
	Op     Operator
	Value  any
}

func (Compare) predicateNode() {}

// Within holds when From <= Column < To.
type Within struct {
	Column Column
	From   time.Time
	To     time.Time
}

func (Within) predicateNode() {}

// Like holds when Column matches Pattern case-insensitively. Pattern uses
// '%' and '_' as wildcards and '\' as the escape character.
type Like struct {
	Column  Column
	Pattern string
}

func (Like) predicateNode() {}

// And holds when every predicate holds. An empty And holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or holds when any predicate holds. An empty Or never holds.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not inverts Predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Subquery selects one column from a source filtered by a predicate.
type Subquery struct {
	// From is a table, or a table plus joins, e.g.
	// "post_tags JOIN tag_names ON tag_names.tag_id = post_tags.tag_id".
	From   string
	Select Column
	Filter Predicate
}

// InSubquery holds when Column is among the values selected by Subquery.
type InSubquery struct {
	Column   Column
	Subquery Subquery
}

func (InSubquery) predicateNode() {}
