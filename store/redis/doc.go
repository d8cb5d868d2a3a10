// Package redis provides a Redis-backed run store, for deployments that
// already run Redis and want shared, optionally expiring run history.
package redis
