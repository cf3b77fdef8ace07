/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"context"
	"database/sql"

	"github.com/tomoncle/shelf/database"
	"github.com/uptrace/bun"
)

// Context is the catalog storage context. It behaves like database.Context
// and adds one queryable collection per entity.
type Context struct {
	*database.Context
}

// NewContext returns an unconnected catalog context for cfg.
func NewContext(cfg *database.ConnectionConfig, opts ...database.ContextOption) *Context {
	opts = append([]database.ContextOption{database.WithModels(Models()...)}, opts...)
	return &Context{Context: database.NewContext(cfg, opts...)}
}

func (c *Context) Users(ctx context.Context) (*bun.SelectQuery, error) {
	return c.collection(ctx, (*User)(nil))
}

func (c *Context) Categories(ctx context.Context) (*bun.SelectQuery, error) {
	return c.collection(ctx, (*Category)(nil))
}

func (c *Context) Products(ctx context.Context) (*bun.SelectQuery, error) {
	return c.collection(ctx, (*Product)(nil))
}

func (c *Context) UserProducts(ctx context.Context) (*bun.SelectQuery, error) {
	return c.collection(ctx, (*UserProduct)(nil))
}

func (c *Context) collection(ctx context.Context, model interface{}) (*bun.SelectQuery, error) {
	db, err := c.DB(ctx)
	if err != nil {
		return nil, err
	}
	return db.NewSelect().Model(model), nil
}

// Raw builds a raw query; scan its rows with Scan.
func (c *Context) Raw(ctx context.Context, query string, args ...interface{}) (*bun.RawQuery, error) {
	db, err := c.DB(ctx)
	if err != nil {
		return nil, err
	}
	return db.NewRaw(query, args...), nil
}

// Exec runs a statement that returns no rows.
func (c *Context) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	db, err := c.DB(ctx)
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, database.NewPersistenceError("exec", err)
	}
	return res, nil
}
