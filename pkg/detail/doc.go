// Package detail rewrites aggregate reporting SQL into detail SQL.
//
// A detail statement keeps the join topology of the source statement but
// replaces its projection with the row-level fields configured for the
// driving table, so report maintainers can drill down from a summarized
// figure to the rows behind it.
//
// The rewrite is text based:
//   - Normalize strips block comments and collapses whitespace
//   - ResolveTable finds the FROM clause and the driving table key
//   - SplitUnion breaks a wrapped UNION statement into its branches
//   - Transformer assembles the detail statement and the FROM fragment
//
// A statement that cannot be rewritten yields an empty Result. That is a
// routine outcome for real-world report SQL and is never reported as an
// error; Explain additionally says why.
package detail
