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
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"math"
	"reflect"

	"github.com/tomoncle/shelf/database"
	"github.com/tomoncle/shelf/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/schema"
)

var (
	ErrNilEntity     = errors.New("entity is nil")
	ErrInvalidPaging = errors.New("page index and page size must not be negative")
)

type baseRepositoryImpl[T any] struct {
	session *Session
	name    string
}

// Of returns the repository for T over the session's connection. Any number
// of repositories may share one session.
func Of[T any](s *Session) Repository[T] {
	return &baseRepositoryImpl[T]{session: s, name: reflect.TypeFor[T]().Name()}
}

func (r *baseRepositoryImpl[T]) fail(op string, err error) error {
	return database.NewPersistenceError(op+" "+r.name, err)
}

func (r *baseRepositoryImpl[T]) db(ctx context.Context, op string) (*bun.DB, error) {
	db, err := r.session.DB(ctx)
	if err != nil {
		return nil, r.fail(op, err)
	}
	return db, nil
}

// pk returns the single primary-key column of T.
func (r *baseRepositoryImpl[T]) pk(db *bun.DB) (string, error) {
	table := db.Table(reflect.TypeFor[T]())
	if len(table.PKs) != 1 {
		return "", fmt.Errorf("%s has %d primary key columns, want 1", table.Name, len(table.PKs))
	}
	return table.PKs[0].Name, nil
}

func (r *baseRepositoryImpl[T]) selectQuery(db *bun.DB, model interface{}, predicate types.Predicate, includes []string) *bun.SelectQuery {
	query := db.NewSelect().Model(model)
	for _, path := range includes {
		query = query.Relation(path)
	}
	if predicate != nil {
		if where, args := predicate.Clause(); where != "" {
			query = query.Where(where, args...)
		}
	}
	return query
}

func orderByPK(query *bun.SelectQuery, pk string) *bun.SelectQuery {
	return query.OrderExpr("?TableAlias.? ASC", bun.Ident(pk))
}

// paginate applies OFFSET and LIMIT, zero meaning none. Dialects that reject
// OFFSET on its own get a LIMIT no table reaches; Bun keeps the limit as an
// int32 and drops non-positive values.
func paginate(query *bun.SelectQuery, d schema.Dialect, offset, limit int) *bun.SelectQuery {
	if offset != 0 {
		query = query.Offset(offset)
		if limit == 0 {
			limit = unboundedLimit(d)
		}
	}
	if limit != 0 {
		query = query.Limit(limit)
	}
	return query
}

func unboundedLimit(d schema.Dialect) int {
	switch d.Name() {
	case dialect.SQLite, dialect.MySQL:
		return math.MaxInt32
	default:
		return 0
	}
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, r.fail("create", ErrNilEntity)
	}
	db, err := r.db(ctx, "create")
	if err != nil {
		return nil, err
	}
	if _, err := db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, r.fail("create", err)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) Read(ctx context.Context, predicate types.Predicate, includes ...string) (*T, bool, error) {
	db, err := r.db(ctx, "read")
	if err != nil {
		return nil, false, err
	}
	pk, err := r.pk(db)
	if err != nil {
		return nil, false, r.fail("read", err)
	}
	entity := new(T)
	err = orderByPK(r.selectQuery(db, entity, predicate, includes), pk).Limit(1).Scan(ctx)
	return r.one(entity, "read", err)
}

func (r *baseRepositoryImpl[T]) ReadByID(ctx context.Context, id any, includes ...string) (*T, bool, error) {
	db, err := r.db(ctx, "read")
	if err != nil {
		return nil, false, err
	}
	pk, err := r.pk(db)
	if err != nil {
		return nil, false, r.fail("read", err)
	}
	entity := new(T)
	err = r.selectQuery(db, entity, nil, includes).
		Where("?TableAlias.? = ?", bun.Ident(pk), id).
		Scan(ctx)
	return r.one(entity, "read", err)
}

func (r *baseRepositoryImpl[T]) one(entity *T, op string, err error) (*T, bool, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, r.fail(op, err)
	}
	return entity, true, nil
}

func (r *baseRepositoryImpl[T]) Filter(ctx context.Context, predicate types.Predicate, pageIndex, pageSize int, includes ...string) (iter.Seq2[*T, error], int, error) {
	if pageIndex < 0 || pageSize < 0 {
		return nil, 0, r.fail("filter", ErrInvalidPaging)
	}
	db, err := r.db(ctx, "filter")
	if err != nil {
		return nil, 0, err
	}
	pk, err := r.pk(db)
	if err != nil {
		return nil, 0, r.fail("filter", err)
	}
	total, err := r.selectQuery(db, new([]*T), predicate, includes).Count(ctx)
	if err != nil {
		return nil, 0, r.fail("filter", err)
	}

	seq := func(yield func(*T, error) bool) {
		var entities []*T
		query := orderByPK(r.selectQuery(db, &entities, predicate, includes), pk)
		if err := paginate(query, db.Dialect(), pageIndex, pageSize).Scan(ctx); err != nil {
			yield(nil, r.fail("filter", err))
			return
		}
		for _, entity := range entities {
			if !yield(entity, nil) {
				return
			}
		}
	}
	return seq, total, nil
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	if pageRequest == nil {
		pageRequest = types.NewDefaultPageRequest(1, types.DefaultPageSize)
	}
	db, err := r.db(ctx, "page")
	if err != nil {
		return nil, err
	}
	pk, err := r.pk(db)
	if err != nil {
		return nil, r.fail("page", err)
	}

	var entities []*T
	query := r.selectQuery(db, &entities, pageRequest.GetFilter(), pageRequest.GetIncludes())
	pagination := types.NewDefaultPagination[T](pageRequest.GetPage(), pageRequest.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, r.fail("page", err)
	}
	if orders := pageRequest.GetOrders(); len(orders) > 0 {
		query = query.Order(orders...)
	} else {
		query = orderByPK(query, pk)
	}
	err = query.
		Offset(pageRequest.GetOffset()).
		Limit(pageRequest.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, r.fail("page", err)
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) (bool, error) {
	if entity == nil {
		return false, r.fail("update", ErrNilEntity)
	}
	db, err := r.db(ctx, "update")
	if err != nil {
		return false, err
	}
	res, err := db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return r.affected("update", res, err)
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, entity *T) (bool, error) {
	if entity == nil {
		return false, r.fail("delete", ErrNilEntity)
	}
	db, err := r.db(ctx, "delete")
	if err != nil {
		return false, err
	}
	res, err := db.NewDelete().Model(entity).WherePK().Exec(ctx)
	return r.affected("delete", res, err)
}

func (r *baseRepositoryImpl[T]) DeleteByID(ctx context.Context, id any) (bool, error) {
	db, err := r.db(ctx, "delete")
	if err != nil {
		return false, err
	}
	pk, err := r.pk(db)
	if err != nil {
		return false, r.fail("delete", err)
	}
	res, err := db.NewDelete().Model((*T)(nil)).Where("? = ?", bun.Ident(pk), id).Exec(ctx)
	return r.affected("delete", res, err)
}

func (r *baseRepositoryImpl[T]) affected(op string, res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, r.fail(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, r.fail(op, err)
	}
	return n > 0, nil
}

func (r *baseRepositoryImpl[T]) SQLQuery(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	db, err := r.db(ctx, "query")
	if err != nil {
		return nil, err
	}
	var entities []*T
	if err := db.NewRaw(query, args...).Scan(ctx, &entities); err != nil {
		return nil, r.fail("query", err)
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) ExecuteSQLCommand(ctx context.Context, query string, args ...interface{}) (int64, error) {
	db, err := r.db(ctx, "exec")
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, r.fail("exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, r.fail("exec", err)
	}
	return n, nil
}
