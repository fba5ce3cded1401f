package filter

import (
	"fmt"

	"github.com/roach88/quarry/internal/predicate"
	"github.com/roach88/quarry/internal/timerange"
)

// Family selects how a criterion is turned into a predicate.
type Family int

const (
	Numeric Family = iota + 1
	Text
	Date
	Relation
)

func (f Family) String() string {
	switch f {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	case Date:
		return "date"
	case Relation:
		return "relation"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Descriptor describes one filter: which family compiles it and which
// column (or related collection) it applies to.
type Descriptor struct {
	Family   Family
	Column   predicate.Column
	Relation *Link
}

// Link describes a many-to-many (or many-to-one) related collection:
//
//	Owner IN (SELECT RelatedID FROM From WHERE <Family filter on Value>)
type Link struct {
	Owner     predicate.Column
	From      string
	RelatedID predicate.Column
	Value     predicate.Column
	Family    Family
}

// NumericOn describes an integer column filter.
func NumericOn(col predicate.Column) Descriptor {
	return Descriptor{Family: Numeric, Column: col}
}

// TextOn describes a wildcard text column filter.
func TextOn(col predicate.Column) Descriptor {
	return Descriptor{Family: Text, Column: col}
}

// DateOn describes a timestamp column filter.
func DateOn(col predicate.Column) Descriptor {
	return Descriptor{Family: Date, Column: col}
}

// Related describes an existence filter over a related collection.
func Related(link Link) Descriptor {
	return Descriptor{Family: Relation, Relation: &link}
}

// Validate checks that d is complete. Entity configurations call this once
// at build time.
func (d Descriptor) Validate() error {
	switch d.Family {
	case Numeric, Text, Date:
		if d.Column.IsZero() {
			return fmt.Errorf("%s filter has no column", d.Family)
		}
		return nil
	case Relation:
		l := d.Relation
		if l == nil {
			return fmt.Errorf("relation filter has no link")
		}
		if l.Owner.IsZero() || l.RelatedID.IsZero() || l.Value.IsZero() || l.From == "" {
			return fmt.Errorf("relation filter on %q is incomplete", l.From)
		}
		if l.Family != Text && l.Family != Numeric {
			return fmt.Errorf("relation filter on %q has unsupported base family %s", l.From, l.Family)
		}
		return nil
	default:
		return fmt.Errorf("unknown filter family %s", d.Family)
	}
}

// Context carries request-scoped collaborators into the compiler.
type Context struct {
	Dates timerange.Resolver
}
