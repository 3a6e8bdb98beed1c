// Package row provides the dynamically typed result model returned by
// analytical queries.
//
// The embedded engine reads heterogeneous JSON-derived columns, so a result
// row is a map from column name to a tagged Value rather than a fixed struct.
// Value is sealed: only Null, Int, Float, String, Bool and JSON implement it,
// and every driver scan result is normalised into one of them by FromDriver.
//
// This package imports nothing internal.
package row
