// Package filter compiles (descriptor, criterion, negation) triples into
// predicate trees.
//
// A Descriptor is a plain value naming a filter family and the column it
// applies to; there are no captured closures. Four families exist:
//
//	Numeric   integer equality, set membership, inclusive ranges
//	Text      case-insensitive wildcard match ('*' is any run of characters)
//	Date      date phrases resolved to half-open instant intervals
//	Relation  membership of the owner id in a filtered related collection
//
// Negation never changes how a family reads the criterion. Compile builds
// the positive predicate and wraps it in predicate.Not at the very end. For
// Relation filters this turns "has a related row matching X" into "has no
// related row matching X", so an entity with no related rows matches the
// negated filter.
package filter
