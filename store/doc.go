// Package store persists engine run records. The RunStore interface
// extends the engine's RunRecorder contract with read-back operations;
// backends live in subpackages (sqlite, postgres, redis) plus an
// in-memory implementation here.
package store
