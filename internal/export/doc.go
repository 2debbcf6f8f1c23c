// Package export writes the artifacts a harvest run leaves behind: the
// extracted catalog as JSON, the flattened items as CSV, the per-dish
// nutrition report, and an optional SQLite snapshot of both.
//
// Nothing here is read back by menuscope. Each artifact is rewritten in full
// on every run.
package export
