// Package store opens the embedded analytical engine behind database/sql.
//
// DuckDB is the default engine: it reads newline-delimited JSON log files
// directly through read_json and keeps per-connection caches warm, which is
// why the process holds exactly one connection for its whole lifetime.
// SQLite is supported as an alternate in-process engine for environments
// without DuckDB and for tests.
//
// # Connection Model
//
//   - One *sql.DB per Conn, capped at a single open connection
//   - That connection is pinned with db.Conn so session state survives
//     between statements
//   - Query scans every column through row.FromDriver
//
// Conn does no locking. Callers must ensure only one statement runs at a
// time; internal/coordinator provides that guarantee.
package store
