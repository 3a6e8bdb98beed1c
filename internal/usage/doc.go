// Package usage turns Claude Code session logs into usage reports.
//
// The logs are newline-delimited JSON files under ~/.claude/projects, one
// event per line. Every report is a single SQL statement over those files
// (DuckDB's read_json), executed through a Querier; the package builds the
// statements and shapes the returned rows into typed responses.
//
// Statements:
//   - DailyStatsSQL: per-day sessions, interactions, projects and tokens
//   - EventsSQL: recent events, newest first
//   - TokenTotalsSQL, CostSQL, CostByProjectSQL: the summary report
//   - HookCountSQL, HookEventsByTypeSQL, ToolUsageSQL: recorded hook events
//
// Paths embedded in statements are always forward-slashed and quote-escaped.
package usage
