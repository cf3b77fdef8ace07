// Package store declares the catalog entities (users, categories, products
// and the user/product join) and a storage context exposing one collection
// per entity.
package store
