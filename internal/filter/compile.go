package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/quarry/internal/criteria"
	"github.com/roach88/quarry/internal/predicate"
	"github.com/roach88/quarry/internal/searcherr"
)

// Compile turns a criterion into a predicate according to d's family.
// Negation is applied once, after the family has built its predicate.
func Compile(ctx Context, d Descriptor, c criteria.Criterion, negated bool) (predicate.Predicate, error) {
	var (
		p   predicate.Predicate
		err error
	)
	switch d.Family {
	case Numeric:
		p, err = numeric(d.Column, c)
	case Text:
		p, err = text(d.Column, c)
	case Date:
		p, err = date(ctx, d.Column, c)
	case Relation:
		p, err = related(ctx, d.Relation, c)
	default:
		err = fmt.Errorf("unknown filter family %s", d.Family)
	}
	if err != nil {
		return nil, err
	}

	if negated {
		return predicate.Negate(p), nil
	}
	return p, nil
}

func numeric(col predicate.Column, c criteria.Criterion) (predicate.Predicate, error) {
	parse := func(s string) (int64, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, searcherr.Searchf("criterion value %q must be a number", c.OriginalText())
		}
		return n, nil
	}

	switch v := c.(type) {
	case criteria.Plain:
		n, err := parse(v.Value)
		if err != nil {
			return nil, err
		}
		return predicate.Equals{Column: col, Value: n}, nil

	case criteria.Array:
		if len(v.Values) == 0 {
			return predicate.False{}, nil
		}
		values := make([]any, 0, len(v.Values))
		for _, s := range v.Values {
			n, err := parse(s)
			if err != nil {
				return nil, err
			}
			values = append(values, n)
		}
		return predicate.In{Column: col, Values: values}, nil

	case criteria.Ranged:
		switch {
		case v.Min != "" && v.Max != "":
			lo, err := parse(v.Min)
			if err != nil {
				return nil, err
			}
			hi, err := parse(v.Max)
			if err != nil {
				return nil, err
			}
			return predicate.Between{Column: col, Low: lo, High: hi}, nil
		case v.Min != "":
			lo, err := parse(v.Min)
			if err != nil {
				return nil, err
			}
			return predicate.Compare{Column: col, Op: predicate.OpGreaterOrEqual, Value: lo}, nil
		default:
			hi, err := parse(v.Max)
			if err != nil {
				return nil, err
			}
			return predicate.Compare{Column: col, Op: predicate.OpLessOrEqual, Value: hi}, nil
		}

	default:
		return nil, fmt.Errorf("unsupported criterion %T", c)
	}
}

// WildcardPattern escapes LIKE metacharacters in s and maps '*' to '%'.
func WildcardPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `%`)
	return r.Replace(s)
}

func text(col predicate.Column, c criteria.Criterion) (predicate.Predicate, error) {
	switch v := c.(type) {
	case criteria.Plain:
		return predicate.Like{Column: col, Pattern: WildcardPattern(v.Value)}, nil
	case criteria.Array:
		preds := make([]predicate.Predicate, len(v.Values))
		for i, s := range v.Values {
			preds[i] = predicate.Like{Column: col, Pattern: WildcardPattern(s)}
		}
		return predicate.OrOf(preds...), nil
	case criteria.Ranged:
		// Ranges have no lexicographic meaning here; match the raw text.
		return predicate.Like{Column: col, Pattern: WildcardPattern(v.Original)}, nil
	default:
		return nil, fmt.Errorf("unsupported criterion %T", c)
	}
}

func date(ctx Context, col predicate.Column, c criteria.Criterion) (predicate.Predicate, error) {
	if ctx.Dates == nil {
		return nil, fmt.Errorf("date filter on %s: no date resolver", col.SQL())
	}

	switch v := c.(type) {
	case criteria.Plain:
		r, err := ctx.Dates.Resolve(v.Value)
		if err != nil {
			return nil, err
		}
		return predicate.Within{Column: col, From: r.Start, To: r.End}, nil

	case criteria.Array:
		preds := make([]predicate.Predicate, 0, len(v.Values))
		for _, s := range v.Values {
			r, err := ctx.Dates.Resolve(s)
			if err != nil {
				return nil, err
			}
			preds = append(preds, predicate.Within{Column: col, From: r.Start, To: r.End})
		}
		return predicate.OrOf(preds...), nil

	case criteria.Ranged:
		switch {
		case v.Min != "" && v.Max != "":
			lo, err := ctx.Dates.Resolve(v.Min)
			if err != nil {
				return nil, err
			}
			hi, err := ctx.Dates.Resolve(v.Max)
			if err != nil {
				return nil, err
			}
			return predicate.Within{Column: col, From: lo.Start, To: hi.End}, nil
		case v.Min != "":
			lo, err := ctx.Dates.Resolve(v.Min)
			if err != nil {
				return nil, err
			}
			return predicate.Compare{Column: col, Op: predicate.OpGreaterOrEqual, Value: lo.Start}, nil
		default:
			hi, err := ctx.Dates.Resolve(v.Max)
			if err != nil {
				return nil, err
			}
			return predicate.Compare{Column: col, Op: predicate.OpLess, Value: hi.End}, nil
		}

	default:
		return nil, fmt.Errorf("unsupported criterion %T", c)
	}
}

func related(ctx Context, l *Link, c criteria.Criterion) (predicate.Predicate, error) {
	if l == nil {
		return nil, fmt.Errorf("relation filter has no link")
	}

	inner, err := Compile(ctx, Descriptor{Family: l.Family, Column: l.Value}, c, false)
	if err != nil {
		return nil, err
	}

	return predicate.InSubquery{
		Column: l.Owner,
		Subquery: predicate.Subquery{
			From:   l.From,
			Select: l.RelatedID,
			Filter: inner,
		},
	}, nil
}
