// Package store provides the SQLite database that searches run against.
//
// # Tables
//
//   - users, tag_categories, tags (+ tag_names), posts (+ post_tags,
//     post_favorites, post_scores), comments
//
// Counters such as posts.tag_count, posts.score and tags.post_count are
// denormalized and kept current by the write helpers in this package.
// Writing rows by other means leaves them stale.
//
// Times are stored as UTC text in timerange.Layout so that range filters
// and sorts compare them lexically.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Searches take a dedicated connection through Acquire and must close it
// when the request ends.
package store
