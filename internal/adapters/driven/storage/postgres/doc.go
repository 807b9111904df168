// Package postgres provides a PostgreSQL implementation of the learning
// store's persistence ports, for deployments where several pipeline
// processes share learned patterns and the blocklist.
//
// The schema is created on Initialize with CREATE TABLE IF NOT EXISTS.
// Seed blocklist phrases are inserted with ON CONFLICT DO NOTHING, so
// operator removals of non-seed entries survive restarts.
package postgres
