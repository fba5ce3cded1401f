// Package predicate provides the boolean predicate IR produced by the filter
// compiler and consumed by the SQL backend.
//
// The IR is plain data: building a predicate never touches storage, so the
// filter compiler can be tested by comparing trees, and the SQL backend can be
// tested without a compiler.
//
// # Sealed interface
//
// Predicate is sealed with a marker method. Backends switch over the concrete
// types exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case In:
//	case Between:
//	...
//	}
//
// # Node semantics
//
//	True, False          constant truth values
//	Equals               col = v
//	In                   col IN (v1, v2, ...)         empty list is false
//	Between              lo <= col <= hi              inclusive
//	Compare              col >= v | col <= v | col < v
//	Within               from <= col < to             half-open instant interval
//	Like                 col LIKE pattern, case-insensitive, '\' escapes
//	And, Or              n-ary; And{} is true, Or{} is false
//	Not                  negation
//	InSubquery           col IN (SELECT select FROM from WHERE filter)
//
// Values are int64, string or time.Time.
package predicate
