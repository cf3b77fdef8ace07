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

package shelf

import (
	"context"

	"github.com/tomoncle/shelf/database"
	"github.com/tomoncle/shelf/repository"
	"github.com/tomoncle/shelf/store"
)

// SessionOpener returns a fresh session for one call.
type SessionOpener func() (*repository.Session, error)

type UserManager interface {
	// GetUserByID returns the user with the given id, or false when there
	// is none.
	GetUserByID(ctx context.Context, id int64) (*store.User, bool, error)
}

type userManagerImpl struct {
	open SessionOpener
}

// NewUserManager returns a manager that opens a new catalog context for cfg
// on every call and closes it before returning.
func NewUserManager(cfg *database.ConnectionConfig, opts ...database.ContextOption) UserManager {
	return NewUserManagerWithOpener(func() (*repository.Session, error) {
		return repository.NewSession(store.NewContext(cfg, opts...)), nil
	})
}

func NewUserManagerWithOpener(open SessionOpener) UserManager {
	return &userManagerImpl{open: open}
}

func (m *userManagerImpl) GetUserByID(ctx context.Context, id int64) (*store.User, bool, error) {
	var (
		user  *store.User
		found bool
	)
	err := repository.WithSession(m.open, func(s *repository.Session) error {
		var err error
		user, found, err = repository.Of[store.User](s).ReadByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return user, found, nil
}
