// Package database persists the processing history: one row per completed
// operation, with enough detail to answer the history and stats endpoints.
// SQLite in WAL mode is used so concurrent request handlers can record
// results without blocking readers.
package database
