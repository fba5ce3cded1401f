package query

import (
	"strconv"
	"strings"

	"github.com/roach88/quarry/internal/criteria"
)

// Token is one lexical unit of the query language.
//
// This is a sealed interface; the four implementations are Anonymous, Named,
// Special and Sort.
type Token interface {
	String() string
	tokenNode()
}

// Anonymous is an untagged term such as "cat" or "-dog".
type Anonymous struct {
	Criterion criteria.Criterion
	Negated   bool
}

func (t Anonymous) String() string {
	return "anonymous(" + t.Criterion.String() + "," + strconv.FormatBool(t.Negated) + ")"
}

func (Anonymous) tokenNode() {}

// Named is a "key:value" term. Key has -min/-max already folded into the
// criterion.
type Named struct {
	Key       string
	Criterion criteria.Criterion
	Negated   bool
}

func (t Named) String() string {
	return "named(" + strconv.Quote(t.Key) + "," + t.Criterion.String() + "," + strconv.FormatBool(t.Negated) + ")"
}

func (Named) tokenNode() {}

// Special is a "special:keyword" term. The keyword is resolved by the
// entity configuration.
type Special struct {
	Value   string
	Negated bool
}

func (t Special) String() string {
	return "special(" + strconv.Quote(t.Value) + "," + strconv.FormatBool(t.Negated) + ")"
}

func (Special) tokenNode() {}

// Sort is a "sort:key[,direction]" term.
type Sort struct {
	Key   string
	Order Order
}

func (t Sort) String() string {
	return "sort(" + strconv.Quote(t.Key) + "," + t.Order.String() + ")"
}

func (Sort) tokenNode() {}

// Order is the direction requested by a sort token.
type Order int

const (
	// Default uses the sort column's configured direction.
	Default Order = iota
	// NegatedDefault uses the opposite of the configured direction.
	NegatedDefault
	Ascending
	Descending
)

func (o Order) String() string {
	switch o {
	case Default:
		return "default"
	case NegatedDefault:
		return "negated-default"
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "order(" + strconv.Itoa(int(o)) + ")"
	}
}

// Negate flips the order: Asc<->Desc, Default<->NegatedDefault.
func (o Order) Negate() Order {
	switch o {
	case Ascending:
		return Descending
	case Descending:
		return Ascending
	case Default:
		return NegatedDefault
	default:
		return Default
	}
}

// ParsedQuery is the tokenized form of a query string.
// Token order is preserved within each kind.
type ParsedQuery struct {
	Anonymous []Anonymous
	Named     []Named
	Special   []Special
	Sort      []Sort
}

// Key renders the full content of the query canonically. Two queries are
// equal exactly when their keys are equal.
func (q ParsedQuery) Key() string {
	var b strings.Builder
	write := func(label string, n int, at func(int) string) {
		b.WriteString(label)
		b.WriteByte('[')
		for i := 0; i < n; i++ {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteString(at(i))
		}
		b.WriteByte(']')
	}
	write("anonymous", len(q.Anonymous), func(i int) string { return q.Anonymous[i].String() })
	write("named", len(q.Named), func(i int) string { return q.Named[i].String() })
	write("special", len(q.Special), func(i int) string { return q.Special[i].String() })
	write("sort", len(q.Sort), func(i int) string { return q.Sort[i].String() })
	return b.String()
}

// Equal reports whether q and other hold the same tokens in the same order.
func (q ParsedQuery) Equal(other ParsedQuery) bool {
	return q.Key() == other.Key()
}

// Empty reports whether the query holds no tokens at all.
func (q ParsedQuery) Empty() bool {
	return len(q.Anonymous) == 0 && len(q.Named) == 0 && len(q.Special) == 0 && len(q.Sort) == 0
}
