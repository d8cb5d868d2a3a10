// Package postgres provides a PostgreSQL-backed run store, for
// multi-node deployments with an existing Postgres.
package postgres
