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

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/shelf/database"
	"github.com/tomoncle/shelf/repository"
	"github.com/tomoncle/shelf/store"
	"github.com/tomoncle/shelf/types"
)

func testConfig() *database.ConnectionConfig {
	cfg := database.DefaultConnectionConfig()
	cfg.Name = "repotest"
	cfg.Type = "sqlite"
	cfg.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	cfg.AutoCreate = true
	cfg.ConnectTimeout = 5 * time.Second
	cfg.SlowQueryTime = 0
	return cfg
}

func newSession(t *testing.T) *repository.Session {
	t.Helper()
	s := repository.NewSession(store.NewContext(testConfig()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUsers(t *testing.T, s *repository.Session, n int) []*store.User {
	t.Helper()
	users := repository.Of[store.User](s)
	created := make([]*store.User, 0, n)
	for i := 1; i <= n; i++ {
		lastName := "Smith"
		if i%2 == 0 {
			lastName = "Jones"
		}
		u, err := users.Create(context.Background(), &store.User{
			FirstName: fmt.Sprintf("user%d", i),
			LastName:  lastName,
			Email:     fmt.Sprintf("user%d@example.com", i),
		})
		require.NoError(t, err)
		created = append(created, u)
	}
	return created
}

func collect[T any](t *testing.T, seq iter.Seq2[*T, error]) []*T {
	t.Helper()
	var items []*T
	for item, err := range seq {
		require.NoError(t, err)
		items = append(items, item)
	}
	return items
}

func ids(users []*store.User) []int64 {
	out := make([]int64, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func TestCreateThenReadByID(t *testing.T) {
	ctx := context.Background()
	users := repository.Of[store.User](newSession(t))

	in := &store.User{FirstName: "Ana", LastName: "Lima", Email: "ana@example.com", Phone: "555-0100", DocumentID: "X1", Address: "1 Main St"}
	created, err := users.Create(ctx, in)
	require.NoError(t, err)
	assert.Same(t, in, created)
	assert.NotZero(t, created.ID)

	got, found, err := users.ReadByID(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Ana", got.FirstName)
	assert.Equal(t, "Lima", got.LastName)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Equal(t, "X1", got.DocumentID)
	assert.Equal(t, "1 Main St", got.Address)
}

func TestReadByIDAbsent(t *testing.T) {
	got, found, err := repository.Of[store.User](newSession(t)).ReadByID(context.Background(), int64(4242))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestRead(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	seeded := seedUsers(t, s, 4)
	users := repository.Of[store.User](s)

	got, found, err := users.Read(ctx, types.Field("email").Eq("user3@example.com"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, seeded[2].ID, got.ID)

	got, found, err = users.Read(ctx, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, seeded[0].ID, got.ID)

	got, found, err = users.Read(ctx, types.And(types.Field("last_name").Eq("Jones"), types.Field("first_name").Ne("user2")))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, seeded[3].ID, got.ID)

	_, found, err = users.Read(ctx, types.Field("email").Eq("nobody@example.com"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFilterWithoutPaging(t *testing.T) {
	s := newSession(t)
	seeded := seedUsers(t, s, 5)

	seq, total, err := repository.Of[store.User](s).Filter(context.Background(), nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, ids(seeded), ids(collect(t, seq)))
}

func TestFilterPageSizeKeepsTotal(t *testing.T) {
	s := newSession(t)
	seeded := seedUsers(t, s, 5)

	seq, total, err := repository.Of[store.User](s).Filter(context.Background(), nil, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, ids(seeded[:3]), ids(collect(t, seq)))
}

func TestFilterOffset(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	seeded := seedUsers(t, s, 6)
	users := repository.Of[store.User](s)

	seq, total, err := users.Filter(ctx, nil, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Equal(t, ids(seeded[2:5]), ids(collect(t, seq)))

	seq, _, err = users.Filter(ctx, nil, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, ids(seeded[4:]), ids(collect(t, seq)))

	seq, _, err = users.Filter(ctx, nil, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, collect(t, seq))
}

func TestFilterPredicate(t *testing.T) {
	s := newSession(t)
	seeded := seedUsers(t, s, 5)

	seq, total, err := repository.Of[store.User](s).Filter(context.Background(), types.Field("last_name").Eq("Smith"), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []int64{seeded[0].ID, seeded[2].ID}, ids(collect(t, seq)))

	seq, total, err = repository.Of[store.User](s).Filter(context.Background(), types.Field("id").In(seeded[1].ID, seeded[3].ID), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []int64{seeded[1].ID, seeded[3].ID}, ids(collect(t, seq)))
}

func TestFilterIsDeferred(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	seedUsers(t, s, 2)
	users := repository.Of[store.User](s)

	seq, total, err := users.Filter(ctx, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, err = users.Create(ctx, &store.User{FirstName: "late"})
	require.NoError(t, err)

	assert.Len(t, collect(t, seq), 3)
	assert.Len(t, collect(t, seq), 3)
}

func TestFilterStopsEarly(t *testing.T) {
	s := newSession(t)
	seedUsers(t, s, 4)

	seq, _, err := repository.Of[store.User](s).Filter(context.Background(), nil, 0, 0)
	require.NoError(t, err)
	n := 0
	for _, err := range seq {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestFilterRejectsNegativePaging(t *testing.T) {
	_, _, err := repository.Of[store.User](newSession(t)).Filter(context.Background(), nil, -1, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrInvalidPaging)
	assert.True(t, database.IsPersistenceError(err))
}

func TestUpdateDetachedEntity(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	seeded := seedUsers(t, s, 1)
	users := repository.Of[store.User](s)

	detached := &store.User{ID: seeded[0].ID, FirstName: "Renamed", LastName: "Doe"}
	ok, err := users.Update(ctx, detached)
	require.NoError(t, err)
	assert.True(t, ok)

	got, found, err := users.ReadByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Renamed", got.FirstName)
	assert.Equal(t, "Doe", got.LastName)
	assert.Empty(t, got.Email)
}

func TestUpdateMissingEntity(t *testing.T) {
	ok, err := repository.Of[store.User](newSession(t)).Update(context.Background(), &store.User{ID: 9999, FirstName: "ghost"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteThenRead(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	seeded := seedUsers(t, s, 3)
	users := repository.Of[store.User](s)

	ok, err := users.Delete(ctx, seeded[1])
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := users.ReadByID(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.False(t, found)

	ok, err = users.Delete(ctx, seeded[1])
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = users.DeleteByID(ctx, seeded[2].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = users.DeleteByID(ctx, seeded[2].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, total, err := users.Filter(ctx, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestNilEntity(t *testing.T) {
	ctx := context.Background()
	users := repository.Of[store.User](newSession(t))

	_, err := users.Create(ctx, nil)
	assert.ErrorIs(t, err, repository.ErrNilEntity)
	_, err = users.Update(ctx, nil)
	assert.ErrorIs(t, err, repository.ErrNilEntity)
	_, err = users.Delete(ctx, nil)
	assert.ErrorIs(t, err, repository.ErrNilEntity)
}

func TestSQLQueryAndCommand(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	seeded := seedUsers(t, s, 4)
	users := repository.Of[store.User](s)

	got, err := users.SQLQuery(ctx, "SELECT * FROM users WHERE last_name = ? ORDER BY id", "Jones")
	require.NoError(t, err)
	assert.Equal(t, []int64{seeded[1].ID, seeded[3].ID}, ids(got))
	assert.Equal(t, "user2@example.com", got[0].Email)

	n, err := users.ExecuteSQLCommand(ctx, "UPDATE users SET phone = ? WHERE last_name = ?", "000", "Smith")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	u, _, err := users.ReadByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "000", u.Phone)

	_, err = users.SQLQuery(ctx, "SELECT * FROM no_such_table")
	require.Error(t, err)
	assert.Equal(t, database.NoTableErr, database.KindOf(err))
}

func TestPage(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	seeded := seedUsers(t, s, 5)
	users := repository.Of[store.User](s)

	page, err := users.Page(ctx, types.NewDefaultPageRequest(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages())
	assert.Equal(t, ids(seeded[2:4]), ids(page.Items))

	page, err = users.Page(ctx, types.NewPageRequest(1, 2, types.Field("last_name").Eq("Smith"), []string{"id DESC"}))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []int64{seeded[4].ID, seeded[2].ID}, ids(page.Items))

	page, err = users.Page(ctx, types.NewPageRequestWithFilter(1, 10, types.Field("last_name").Eq("Nobody")))
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Items)
}

func seedCatalog(t *testing.T, s *repository.Session) (*store.User, *store.Product, *store.UserProduct) {
	t.Helper()
	ctx := context.Background()

	category, err := repository.Of[store.Category](s).Create(ctx, &store.Category{Name: "Tools"})
	require.NoError(t, err)
	user, err := repository.Of[store.User](s).Create(ctx, &store.User{FirstName: "Ana"})
	require.NoError(t, err)
	product, err := repository.Of[store.Product](s).Create(ctx, &store.Product{Name: "Widget", CategoryID: category.ID})
	require.NoError(t, err)
	link, err := repository.Of[store.UserProduct](s).Create(ctx, &store.UserProduct{UserID: user.ID, ProductID: product.ID})
	require.NoError(t, err)
	return user, product, link
}

func TestFilterIncludesBelongsTo(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	_, product, link := seedCatalog(t, s)
	assert.False(t, link.CreatedAt.IsZero())

	seq, total, err := repository.Of[store.UserProduct](s).Filter(ctx, nil, 0, 0, store.RelUser)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	rows := collect(t, seq)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].User)
	assert.Equal(t, "Ana", rows[0].User.FirstName)
	assert.Equal(t, product.ID, rows[0].ProductID)
	assert.Nil(t, rows[0].Product)
}

func TestFilterOnIncludedColumn(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	seedCatalog(t, s)
	links := repository.Of[store.UserProduct](s)

	seq, total, err := links.Filter(ctx, types.Field("user.first_name").Eq("Ana"), 0, 0, store.RelUser, store.RelProduct)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	rows := collect(t, seq)
	require.Len(t, rows, 1)
	assert.Equal(t, "Widget", rows[0].Product.Name)

	_, total, err = links.Filter(ctx, types.Field("user.first_name").Eq("Bob"), 0, 0, store.RelUser)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestFilterOffsetWithInclude(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	ana, product, first := seedCatalog(t, s)
	bob, err := repository.Of[store.User](s).Create(ctx, &store.User{FirstName: "Bob"})
	require.NoError(t, err)

	links := repository.Of[store.UserProduct](s)
	want := []int64{}
	for _, owner := range []*store.User{bob, ana, ana} {
		link, err := links.Create(ctx, &store.UserProduct{UserID: owner.ID, ProductID: product.ID})
		require.NoError(t, err)
		if owner == ana {
			want = append(want, link.ID)
		}
	}

	seq, total, err := links.Filter(ctx, types.Field("user.first_name").Eq("Ana"), 1, 0, store.RelUser)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	rows := collect(t, seq)
	got := make([]int64, 0, len(rows))
	for _, row := range rows {
		require.NotNil(t, row.User)
		assert.Equal(t, "Ana", row.User.FirstName)
		got = append(got, row.ID)
	}
	assert.Equal(t, want, got)
	assert.NotContains(t, got, first.ID)

	seq, total, err = links.Filter(ctx, nil, 3, 0, store.RelUser)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	rows = collect(t, seq)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0].User.FirstName)
}

func TestReadByIDIncludesHasMany(t *testing.T) {
	ctx := context.Background()
	s := newSession(t)
	user, product, _ := seedCatalog(t, s)

	got, found, err := repository.Of[store.User](s).ReadByID(ctx, user.ID, store.RelUserProducts)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got.UserProducts, 1)
	assert.Equal(t, product.ID, got.UserProducts[0].ProductID)

	p, found, err := repository.Of[store.Product](s).ReadByID(ctx, product.ID, store.RelCategory)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Tools", p.Category.Name)
}

func TestUnknownInclude(t *testing.T) {
	_, _, err := repository.Of[store.User](newSession(t)).ReadByID(context.Background(), int64(1), "Nope")
	require.Error(t, err)
	assert.True(t, database.IsPersistenceError(err))
}

func TestForeignKeyViolation(t *testing.T) {
	_, err := repository.Of[store.UserProduct](newSession(t)).Create(context.Background(), &store.UserProduct{UserID: 77, ProductID: 88})
	require.Error(t, err)

	var pe *database.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, database.ForeignKeyViolationErr, pe.Kind)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestClosedSession(t *testing.T) {
	s := newSession(t)
	seedUsers(t, s, 1)
	require.NoError(t, s.Close())

	_, _, err := repository.Of[store.User](s).ReadByID(context.Background(), int64(1))
	require.Error(t, err)
	assert.Equal(t, database.ClosedErr, database.KindOf(err))
	assert.ErrorIs(t, err, database.ErrContextClosed)
}
