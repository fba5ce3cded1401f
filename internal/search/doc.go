// Package search executes text queries against entity configurations.
//
// An Executor turns one request into SQL in three stages:
//
//  1. Tokenize the query text (package query).
//  2. Resolve every token against the entity's searchconfig.Config and
//     compose the resulting predicates with AND.
//  3. Order by the active sort and the primary key, paginate, and run the
//     count and result queries.
//
// Stages 1 and 2 never touch storage; SearchError and ValidationError are
// raised there, before any statement runs.
//
// Service wraps the Executor for callers: it resolves the entity name,
// holds one connection from the store for the whole request, and logs and
// records the outcome.
package search
