package querysql

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/quarry/internal/plan"
	"github.com/roach88/quarry/internal/predicate"
	"github.com/roach88/quarry/internal/timerange"
)

// Compiler compiles plans and predicates to parameterized SQL for SQLite.
//
// CRITICAL: every SELECT carries an ORDER BY; plans without one are rejected.
// CRITICAL: values are always bound as ? parameters, never interpolated.
type Compiler struct{}

// NewCompiler creates a Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// CompileSelect converts a plan into a SELECT statement.
// Returns (sql, params, error).
func (c *Compiler) CompileSelect(p plan.Plan) (string, []any, error) {
	fields := p.Fields()
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("plan on %q selects no fields", p.From())
	}

	// MANDATORY: refuse to build a SELECT without ORDER BY
	order := p.Order()
	if len(order) == 0 {
		return "", nil, fmt.Errorf("plan on %q has no ORDER BY; results would not be deterministic", p.From())
	}

	// Build WHERE clause and collect parameters
	where, params, err := c.CompilePredicate(p.Filter())
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	// Assemble SELECT ... FROM ... WHERE ... ORDER BY
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(compileFields(fields))
	c.writeFrom(&b, p)
	b.WriteString(" WHERE ")
	b.WriteString(where)
	b.WriteString(" ORDER BY ")
	b.WriteString(compileOrder(order))

	// Pagination is bound too, after the filter parameters
	if p.Limit() > 0 {
		b.WriteString(" LIMIT ? OFFSET ?")
		params = append(params, int64(p.Limit()), int64(p.Offset()))
	}

	return b.String(), params, nil
}

// CompileCount converts a plan into a COUNT(*) statement. Fields, order and
// pagination are ignored.
func (c *Compiler) CompileCount(p plan.Plan) (string, []any, error) {
	where, params, err := c.CompilePredicate(p.Filter())
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	// Count plans carry no joins, so each row is counted once
	var b strings.Builder
	b.WriteString("SELECT COUNT(*)")
	c.writeFrom(&b, p)
	b.WriteString(" WHERE ")
	b.WriteString(where)

	return b.String(), params, nil
}

func (c *Compiler) writeFrom(b *strings.Builder, p plan.Plan) {
	b.WriteString(" FROM ")
	b.WriteString(p.From())
	// Joins are trusted SQL from the entity configuration, not user input
	for _, j := range p.Joins() {
		b.WriteByte(' ')
		b.WriteString(j)
	}
}

// compileFields renders "expr AS name" pairs in plan order.
func compileFields(fields []plan.Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		if f.Expr == "" || f.Expr == f.Name {
			// No alias needed
			parts[i] = f.Name
		} else {
			// Alias: expr AS name
			parts[i] = fmt.Sprintf("%s AS %s", f.Expr, f.Name)
		}
	}
	return strings.Join(parts, ", ")
}

// compileOrder renders ORDER BY terms. The plan already ends with the id
// tiebreak, so no term is added here.
func compileOrder(terms []plan.OrderTerm) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.Expr + " " + t.Dir.SQL()
	}
	return strings.Join(parts, ", ")
}

// CompilePredicate compiles a predicate to a WHERE clause fragment.
// Returns (sql, params, error).
func (c *Compiler) CompilePredicate(p predicate.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil // Always true
	}

	switch pred := p.(type) {
	case predicate.True:
		return "1 = 1", nil, nil

	case predicate.False:
		return "0 = 1", nil, nil

	case predicate.Equals:
		v, err := toParam(pred.Value)
		if err != nil {
			return "", nil, err
		}
		return pred.Column.SQL() + " = ?", []any{v}, nil

	case predicate.In:
		// "IN ()" is a syntax error in SQLite; an empty set matches nothing
		if len(pred.Values) == 0 {
			return "0 = 1", nil, nil
		}
		params := make([]any, len(pred.Values))
		for i, raw := range pred.Values {
			v, err := toParam(raw)
			if err != nil {
				return "", nil, err
			}
			params[i] = v
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
		return pred.Column.SQL() + " IN (" + marks + ")", params, nil

	case predicate.Between:
		lo, err := toParam(pred.Low)
		if err != nil {
			return "", nil, err
		}
		hi, err := toParam(pred.High)
		if err != nil {
			return "", nil, err
		}
		return pred.Column.SQL() + " BETWEEN ? AND ?", []any{lo, hi}, nil

	case predicate.Compare:
		// Op is written into the SQL text, so only known operators pass
		switch pred.Op {
		case predicate.OpGreater, predicate.OpGreaterOrEqual, predicate.OpLess, predicate.OpLessOrEqual:
		default:
			return "", nil, fmt.Errorf("unsupported comparison operator %q", pred.Op)
		}
		v, err := toParam(pred.Value)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s ?", pred.Column.SQL(), pred.Op), []any{v}, nil

	case predicate.Within:
		// Half-open [From, To) so adjacent ranges never share a row
		col := pred.Column.SQL()
		return fmt.Sprintf("(%s >= ? AND %s < ?)", col, col),
			[]any{timerange.Format(pred.From), timerange.Format(pred.To)}, nil

	case predicate.Like:
		return pred.Column.SQL() + ` LIKE ? ESCAPE '\'`, []any{pred.Pattern}, nil

	case predicate.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")

	case predicate.Or:
		return c.compileJunction(pred.Predicates, " OR ", "0 = 1")

	case predicate.Not:
		inner, params, err := c.CompilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + inner + ")", params, nil

	case predicate.InSubquery:
		// Relation filters: column IN (SELECT ... FROM link WHERE ...)
		sub := pred.Subquery
		if sub.From == "" || sub.Select.IsZero() {
			return "", nil, fmt.Errorf("incomplete subquery on %s", pred.Column.SQL())
		}
		where, params, err := c.CompilePredicate(sub.Filter)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s)",
			pred.Column.SQL(), sub.Select.SQL(), sub.From, where), params, nil

	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *Compiler) compileJunction(preds []predicate.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil // Vacuous truth for AND, nothing for OR
	}

	parts := make([]string, 0, len(preds))
	var params []any
	for _, p := range preds {
		sql, ps, err := c.CompilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	// Parenthesize so an OR nested in an AND keeps its grouping
	if len(parts) == 1 {
		return parts[0], params, nil
	}
	return "(" + strings.Join(parts, sep) + ")", params, nil
}

// toParam converts a predicate value into a driver parameter.
// Times are bound in timerange.Layout so they compare lexically.
func toParam(v any) (any, error) {
	switch val := v.(type) {
	case int64, string:
		return val, nil
	case int:
		return int64(val), nil
	case time.Time:
		return timerange.Format(val), nil
	case nil:
		return nil, fmt.Errorf("nil cannot be used as a SQL parameter")
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
