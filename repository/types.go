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
	"iter"

	"github.com/tomoncle/shelf/types"
)

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	// Create inserts entity and returns it with its store-assigned identity set.
	Create(ctx context.Context, entity *T) (*T, error)

	// Read returns the first entity matching predicate. A nil predicate
	// matches every row; absent rows report false with a nil error.
	Read(ctx context.Context, predicate types.Predicate, includes ...string) (*T, bool, error)

	// ReadByID returns the entity whose primary key is id.
	ReadByID(ctx context.Context, id any, includes ...string) (*T, bool, error)

	// Update replaces the stored row with entity's field values, whether or
	// not entity was loaded through this session. It reports false when no
	// row has entity's primary key.
	Update(ctx context.Context, entity *T) (bool, error)

	// Delete removes the row with entity's primary key and reports whether
	// one existed.
	Delete(ctx context.Context, entity *T) (bool, error)

	// DeleteByID removes the row whose primary key is id.
	DeleteByID(ctx context.Context, id any) (bool, error)
}

// QueryRepository filters entities and runs raw SQL mapped onto them.
type QueryRepository[T any] interface {
	// Filter returns the matching rows and their total count. The count
	// ignores paging. A non-zero pageIndex skips that many rows and a
	// non-zero pageSize caps the rows returned; zero means no offset and no
	// cap. Rows are loaded when the sequence is ranged over.
	Filter(ctx context.Context, predicate types.Predicate, pageIndex, pageSize int, includes ...string) (iter.Seq2[*T, error], int, error)

	// SQLQuery runs a raw SELECT and maps its rows onto T. Bun's formatter
	// escapes args into the "?" placeholders.
	SQLQuery(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	// ExecuteSQLCommand runs a raw statement and returns the affected rows.
	ExecuteSQLCommand(ctx context.Context, query string, args ...interface{}) (int64, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines CRUD, filtering and pagination over one entity type.
type Repository[T any] interface {
	CrudRepository[T]
	QueryRepository[T]
	PageQueryRepository[T]
}
