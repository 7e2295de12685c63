// Package sqlite provides a store.Store backed by SQLite via the pure-Go
// modernc.org/sqlite driver. It is suitable for single-process deployments
// that need execution history to survive restarts.
//
// Open a store with a file path, or ":memory:" for tests:
//
//	st, err := sqlite.Open("tempo.db")
//	if err != nil { ... }
//	defer st.Close()
//	if err := st.Migrate(ctx); err != nil { ... }
package sqlite
