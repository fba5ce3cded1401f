// Package criteria classifies the right-hand value of a query term.
//
// A raw value becomes exactly one of three variants:
//
//	a,b,c   -> Array{"a", "b", "c"}
//	1..5    -> Ranged{Min: "1", Max: "5"}
//	foo     -> Plain{"foo"}
//
// Criterion is a sealed interface; filter families switch over the three
// variants exhaustively.
package criteria

import (
	"strconv"
	"strings"

	"github.com/roach88/quarry/internal/searcherr"
)

// Criterion is a classified term value.
type Criterion interface {
	// OriginalText is the unsplit input the criterion was built from.
	OriginalText() string

	// String renders a canonical form used for equality and cache keys.
	String() string

	criterionNode()
}

// Plain is a single value.
type Plain struct {
	Value    string
	Original string
}

func (c Plain) OriginalText() string { return c.Original }

func (c Plain) String() string {
	return "plain(" + strconv.Quote(c.Value) + "," + strconv.Quote(c.Original) + ")"
}

func (Plain) criterionNode() {}

// Array is a comma-separated list of values.
// Empty pieces are dropped, so Values may be empty.
type Array struct {
	Values   []string
	Original string
}

func (c Array) OriginalText() string { return c.Original }

func (c Array) String() string {
	quoted := make([]string, len(c.Values))
	for i, v := range c.Values {
		quoted[i] = strconv.Quote(v)
	}
	return "array([" + strings.Join(quoted, ",") + "]," + strconv.Quote(c.Original) + ")"
}

func (Array) criterionNode() {}

// Ranged is a dotted range. At least one of Min and Max is non-empty.
type Ranged struct {
	Min      string
	Max      string
	Original string
}

func (c Ranged) OriginalText() string { return c.Original }

func (c Ranged) String() string {
	return "ranged(" + strconv.Quote(c.Min) + "," + strconv.Quote(c.Max) + "," + strconv.Quote(c.Original) + ")"
}

func (Ranged) criterionNode() {}

// Classify classifies raw, keeping raw as the original text.
func Classify(raw string) (Criterion, error) {
	return ClassifyWithOriginal(raw, raw)
}

// ClassifyWithOriginal classifies value but records original as the
// criterion's original text. Named tokens use this after -min/-max folding
// rewrote the value.
func ClassifyWithOriginal(original, value string) (Criterion, error) {
	if strings.Contains(value, ",") {
		var values []string
		for _, part := range strings.Split(value, ",") {
			if part != "" {
				values = append(values, part)
			}
		}
		if values == nil {
			values = []string{}
		}
		return Array{Values: values, Original: original}, nil
	}

	if low, high, ok := strings.Cut(value, ".."); ok {
		if low == "" && high == "" {
			return nil, searcherr.Searchf("empty ranged value")
		}
		return Ranged{Min: low, Max: high, Original: original}, nil
	}

	return Plain{Value: value, Original: original}, nil
}
