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

package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

// Context is one logical session against a store. It connects on first use
// and releases its connection exactly once on Close. A Context is meant for
// one caller and one unit of work; the mutex only keeps open and close
// consistent with each other.
type Context struct {
	id      string
	config  *ConnectionConfig
	factory *BaseDatabaseFactory
	logger  Logger
	models  []SQLModel
	metrics prometheus.Registerer

	mu      sync.Mutex
	manager AbstractDatabaseManager
	db      *bun.DB
	closed  bool
}

type ContextOption func(*Context)

// WithLogger sets the logger of the context and of the manager it opens.
func WithLogger(logger Logger) ContextOption {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithManagerConstructor replaces the Bun-backed manager, mainly for tests.
func WithManagerConstructor(fn ManagerConstructor) ContextOption {
	return func(c *Context) { c.factory.SetManagerConstructor(fn) }
}

// WithModels restricts the context to the given models instead of the
// default registry. They are created in priority order.
func WithModels(models ...SQLModel) ContextOption {
	return func(c *Context) {
		c.models = append([]SQLModel{}, models...)
		sortModels(c.models)
	}
}

// WithMetrics records query metrics on reg once the context connects.
func WithMetrics(reg prometheus.Registerer) ContextOption {
	return func(c *Context) { c.metrics = reg }
}

// NewContext returns an unconnected context for cfg. cfg is copied, so
// environment overrides applied on connect do not leak back to the caller.
func NewContext(cfg *ConnectionConfig, opts ...ContextOption) *Context {
	if cfg == nil {
		cfg = DefaultConnectionConfig()
	}
	c := &Context{
		id:      uuid.NewString(),
		config:  cfg.Clone(),
		factory: NewDatabaseFactory(),
		logger:  GetLogger(),
	}
	if c.config.Name == "" {
		c.config.Name = DefaultConnectionName
	}
	for _, opt := range opts {
		opt(c)
	}
	c.factory.SetLogger(c.logger)
	if c.models == nil {
		c.models = GetRegisteredModels()
	}
	return c
}

// NewContextByName returns an unconnected context for a configured connection.
func NewContextByName(cfg *Config, name string, opts ...ContextOption) (*Context, error) {
	conn, err := cfg.Connection(name)
	if err != nil {
		return nil, err
	}
	return NewContext(conn, opts...), nil
}

// ID identifies the session in log lines.
func (c *Context) ID() string { return c.id }

// Name returns the connection name the context was built for.
func (c *Context) Name() string { return c.config.Name }

// Models returns the entity models declared for this context.
func (c *Context) Models() []interface{} { return modelInstances(c.models) }

// DB returns the connected Bun handle, connecting on the first call. A
// failed connect leaves the context unconnected so the next call retries.
func (c *Context) DB(ctx context.Context) (*bun.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &PersistenceError{Op: "open", Kind: ClosedErr, Err: ErrContextClosed}
	}
	if c.db != nil {
		return c.db, nil
	}

	start := time.Now()
	manager, err := c.factory.CreateFromConfig(c.config)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Kind: ConnectivityErr, Err: err}
	}
	if err := manager.Connect(ctx); err != nil {
		c.logger.Error("Storage context failed to connect", "session", c.id, "name", c.config.Name, "error", err)
		return nil, &PersistenceError{Op: "open", Kind: ConnectivityErr, Err: err}
	}
	db := manager.GetDB()
	if err := c.prepare(ctx, db); err != nil {
		_ = manager.Disconnect()
		return nil, NewPersistenceError("open", err)
	}

	c.manager, c.db = manager, db
	c.logger.Debug("Storage context opened", "session", c.id, "name", c.config.Name, "elapsed", time.Since(start))
	return c.db, nil
}

func (c *Context) prepare(ctx context.Context, db *bun.DB) error {
	instances := modelInstances(c.models)
	db.RegisterModel(instances...)
	if c.metrics != nil {
		m, err := NewQueryMetrics(c.metrics)
		if err != nil {
			return fmt.Errorf("failed to register query metrics: %w", err)
		}
		db.AddQueryHook(m.Hook(c.config.Name))
	}
	if c.config.AutoCreate {
		if err := CreateSchema(ctx, db, instances...); err != nil {
			return err
		}
	}
	return nil
}

// Connected reports whether the context currently holds a connection.
func (c *Context) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db != nil
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// HealthCheck pings the store without opening a connection that is not
// already there.
func (c *Context) HealthCheck(ctx context.Context) *HealthStatus {
	c.mu.Lock()
	manager := c.manager
	c.mu.Unlock()
	if manager == nil {
		return &HealthStatus{LastError: "Storage context not connected", LastCheckTime: time.Now()}
	}
	return manager.HealthCheck(ctx)
}

// Stats returns pool statistics, zero when unconnected.
func (c *Context) Stats() *DBStats {
	c.mu.Lock()
	manager := c.manager
	c.mu.Unlock()
	if manager == nil {
		return &DBStats{}
	}
	return manager.GetStats()
}

// Close releases the connection. Only the first call does anything; later
// calls return nil, and a context that never connected has nothing to
// release.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.manager == nil {
		return nil
	}
	err := c.manager.Disconnect()
	c.manager, c.db = nil, nil
	c.logger.Debug("Storage context closed", "session", c.id, "name", c.config.Name)
	return NewPersistenceError("close", err)
}
