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

package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/tomoncle/shelf/database"
	"github.com/uptrace/bun"
)

// Store is the storage context a session owns. database.Context and
// store.Context both satisfy it.
type Store interface {
	DB(ctx context.Context) (*bun.DB, error)
	Close() error
}

// Session owns one storage context for one unit of work. Repositories
// obtained with Of share its connection. A Session is not meant to be used
// from several goroutines at once.
type Session struct {
	store Store

	mu     sync.Mutex
	closed bool
}

// NewSession wraps store; closing the session closes store.
func NewSession(store Store) *Session {
	return &Session{store: store}
}

// Open returns a session over a new, unconnected database.Context for cfg.
func Open(cfg *database.ConnectionConfig, opts ...database.ContextOption) (*Session, error) {
	if cfg == nil {
		return nil, database.NewPersistenceError("open", errors.New("connection config is nil"))
	}
	return NewSession(database.NewContext(cfg, opts...)), nil
}

// Store returns the storage context the session owns.
func (s *Session) Store() Store { return s.store }

// DB returns the session's connection, opening it on first use.
func (s *Session) DB(ctx context.Context) (*bun.DB, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, &database.PersistenceError{Op: "open", Kind: database.ClosedErr, Err: database.ErrContextClosed}
	}
	return s.store.DB(ctx)
}

// Close releases the storage context. Calls after the first return nil
// without touching the context again.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.store.Close()
}

// WithSession opens a session, runs fn with it and always closes it, also
// when fn fails or panics. A close error is joined with fn's error.
func WithSession(open func() (*Session, error), fn func(*Session) error) (err error) {
	s, err := open()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, s.Close())
	}()
	return fn(s)
}
