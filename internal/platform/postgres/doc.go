// Package postgres provides the PostgreSQL-backed implementations of the
// store contracts: a JSONB document table for the metadata collections and a
// bytea table for heavy candidate payloads.
package postgres
