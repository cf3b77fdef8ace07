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
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

type pagedRow struct {
	bun.BaseModel `bun:"table:rows,alias:r"`
	ID            int64 `bun:"id,pk"`
}

func renderPage(t *testing.T, d schema.Dialect, offset, limit int) string {
	t.Helper()
	sqlDB, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	db := bun.NewDB(sqlDB, d)
	t.Cleanup(func() { _ = db.Close() })
	return paginate(db.NewSelect().Model((*pagedRow)(nil)), d, offset, limit).String()
}

func TestPaginateNone(t *testing.T) {
	for _, d := range []schema.Dialect{sqlitedialect.New(), mysqldialect.New(), pgdialect.New()} {
		q := renderPage(t, d, 0, 0)
		assert.NotContains(t, q, "LIMIT", d.Name().String())
		assert.NotContains(t, q, "OFFSET", d.Name().String())
	}
}

func TestPaginateLimitOnly(t *testing.T) {
	q := renderPage(t, sqlitedialect.New(), 0, 3)
	assert.Contains(t, q, "LIMIT 3")
	assert.NotContains(t, q, "OFFSET")
}

func TestPaginateOffsetWithoutLimit(t *testing.T) {
	q := renderPage(t, sqlitedialect.New(), 2, 0)
	assert.Contains(t, q, "LIMIT 2147483647")
	assert.Contains(t, q, "OFFSET 2")

	q = renderPage(t, mysqldialect.New(), 2, 0)
	assert.Contains(t, q, "LIMIT 2147483647")
	assert.Contains(t, q, "OFFSET 2")

	q = renderPage(t, pgdialect.New(), 2, 0)
	assert.NotContains(t, q, "LIMIT")
	assert.Contains(t, q, "OFFSET 2")
}

func TestPaginateOffsetAndLimit(t *testing.T) {
	q := renderPage(t, pgdialect.New(), 2, 3)
	assert.Contains(t, q, "LIMIT 3")
	assert.Contains(t, q, "OFFSET 2")
}
