// Package sqlite provides a SQLite-backed run store. Suitable for
// single-node deployments that need runs to survive restarts without an
// external database.
package sqlite
