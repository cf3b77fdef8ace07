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
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsSqlError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   bool
		kind SQLError
	}{
		{"nil", nil, false, UnknownErr},
		{"no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), true, NoRowsErr},
		{"closed", ErrContextClosed, true, ClosedErr},
		{"bad conn", driver.ErrBadConn, true, ConnectivityErr},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1' for key 'PRIMARY'"}, true, DuplicateKeyErr},
		{"mysql fk", &mysql.MySQLError{Number: 1452}, true, ForeignKeyViolationErr},
		{"mysql syntax", &mysql.MySQLError{Number: 1064}, true, SyntaxErr},
		{"mysql other", &mysql.MySQLError{Number: 1}, true, UnknownErr},
		{"pq unique", &pq.Error{Code: "23505"}, true, DuplicateKeyErr},
		{"pq fk", &pq.Error{Code: "23503"}, true, ForeignKeyViolationErr},
		{"pq no table", &pq.Error{Code: "42P01"}, true, NoTableErr},
		{"pq connection", &pq.Error{Code: "08006"}, true, ConnectivityErr},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), true, DuplicateKeyErr},
		{"sqlite not null", errors.New("NOT NULL constraint failed: users.first_name"), true, NotNullViolationErr},
		{"sqlite fk", errors.New("FOREIGN KEY constraint failed"), true, ForeignKeyViolationErr},
		{"sqlite no table", errors.New("SQL logic error: no such table: widgets (1)"), true, NoTableErr},
		{"sqlite no column", errors.New("table users has no column named nickname"), true, NoColumnErr},
		{"sqlite syntax", errors.New(`near "SELEC": syntax error`), true, SyntaxErr},
		{"other", errors.New("something else"), false, UnknownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is, kind := IsSqlError(tt.err)
			assert.Equal(t, tt.is, is)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestNewPersistenceError(t *testing.T) {
	assert.Nil(t, NewPersistenceError("create User", nil))

	driverErr := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	err := NewPersistenceError("create User", driverErr)

	var pe *PersistenceError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "create User", pe.Op)
	assert.Equal(t, DuplicateKeyErr, pe.Kind)
	assert.Equal(t, "create User: duplicate key: Error 1062: Duplicate entry", err.Error())

	var me *mysql.MySQLError
	assert.True(t, errors.As(err, &me))
	assert.Same(t, driverErr, me)

	again := NewPersistenceError("read User", err)
	assert.Same(t, err, again)
	assert.True(t, IsPersistenceError(fmt.Errorf("outer: %w", err)))
	assert.False(t, IsPersistenceError(driverErr))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ForeignKeyViolationErr, KindOf(&pq.Error{Code: "23503"}))
	assert.Equal(t, ClosedErr, KindOf(&PersistenceError{Op: "open", Kind: ClosedErr, Err: ErrContextClosed}))
	assert.Equal(t, UnknownErr, KindOf(errors.New("plain")))
}

func TestSQLErrorString(t *testing.T) {
	assert.Equal(t, "duplicate key", DuplicateKeyErr.String())
	assert.Equal(t, "unknown", SQLError(999).String())
}
