// Package database provides the storage context: named connection settings
// loaded from YAML and the environment, a Bun-backed connection manager for
// MySQL, PostgreSQL and SQLite, lazy open with exactly-once release, schema
// creation for registered models, query hooks, metrics and SQL error
// classification.
package database
