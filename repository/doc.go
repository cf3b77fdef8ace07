// Package repository provides a generic repository built on Bun: create,
// read, filter with eager-loaded relations, full-record update, delete,
// pagination and raw SQL, scoped to a Session that owns one storage context.
package repository
