// Package querysql compiles query plans and predicate trees into
// parameterized SQLite statements.
//
// Two rules hold for every statement produced here:
//
//   - Values are bound as ? parameters. Only column references and
//     configuration-supplied expressions are written into the SQL text.
//   - SELECT statements carry an ORDER BY. The executor always ends the order
//     with the entity's primary key, so paging is stable across calls.
package querysql
