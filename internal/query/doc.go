// Package query tokenizes search query strings.
//
// The query language is a whitespace-separated list of chunks. Each chunk is
// one of:
//
//	cat                  anonymous term
//	name:foo,bar         named term (Array criterion)
//	usage-count:5..10    named term (Ranged criterion)
//	usage-count-min:5    same as usage-count:5..
//	special:liked        special keyword
//	sort:name,desc       sort key with optional direction
//
// Any chunk may be prefixed with one or more '-'; each dash flips negation.
// For sort tokens negation reverses the direction.
//
// Input is lower cased before splitting, so "Name:Foo" and "name:foo" parse
// identically. Letters are not otherwise normalized: "straße" stays "straße".
//
// Parse is a pure function. Parser wraps it with a bounded LRU cache keyed by
// the raw query text.
package query
