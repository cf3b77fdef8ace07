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
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
	SyntaxErr
	ConnectivityErr
	ClosedErr
)

var sqlErrorNames = map[SQLError]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no rows",
	NoIndexErr:                  "no such index",
	NoColumnErr:                 "no such column",
	ExistIndexErr:               "index exists",
	ExistColumnErr:              "column exists",
	NoTableErr:                  "no such table",
	ExistTableErr:               "table exists",
	DuplicateKeyErr:             "duplicate key",
	NotNullViolationErr:         "not null violation",
	ForeignKeyViolationErr:      "foreign key violation",
	CheckConstraintViolationErr: "check constraint violation",
	DataTruncatedErr:            "data truncated",
	InvalidTypeCastErr:          "invalid type cast",
	SyntaxErr:                   "syntax error",
	ConnectivityErr:             "connectivity",
	ClosedErr:                   "context closed",
}

func (e SQLError) String() string {
	if s, ok := sqlErrorNames[e]; ok {
		return s
	}
	return sqlErrorNames[UnknownErr]
}

// ErrContextClosed is returned by a storage context used after Close.
var ErrContextClosed = errors.New("storage context is closed")

// PersistenceError is the single error kind surfaced by the data-access
// layer. Err is the store error as the driver reported it.
type PersistenceError struct {
	Op   string
	Kind SQLError
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError classifies err and wraps it for operation op. It
// returns nil for a nil err and leaves an existing PersistenceError as is.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	_, kind := IsSqlError(err)
	return &PersistenceError{Op: op, Kind: kind, Err: err}
}

// IsPersistenceError reports whether err carries a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// KindOf returns the classification of err, UnknownErr when it has none.
func KindOf(err error) SQLError {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	_, kind := IsSqlError(err)
	return kind
}

var pqCodes = map[pq.ErrorCode]SQLError{
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42804": InvalidTypeCastErr,
	"42703": NoColumnErr,
	"42704": NoIndexErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"42601": SyntaxErr,
}

func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, ErrContextClosed) {
		return true, ClosedErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, mysql.ErrInvalidConn) {
		return true, ConnectivityErr
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1091:
			return true, NoIndexErr
		case 1054:
			return true, NoColumnErr
		case 1061:
			return true, ExistIndexErr
		case 1060:
			return true, ExistColumnErr
		case 1146:
			return true, NoTableErr
		case 1050:
			return true, ExistTableErr
		case 1062:
			return true, DuplicateKeyErr
		case 1048:
			return true, NotNullViolationErr
		case 1216, 1217, 1451, 1452:
			return true, ForeignKeyViolationErr
		case 3819:
			return true, CheckConstraintViolationErr
		case 1265, 1406:
			return true, DataTruncatedErr
		case 1064:
			return true, SyntaxErr
		default:
			return true, UnknownErr
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if kind, ok := pqCodes[pqErr.Code]; ok {
			return true, kind
		}
		if pqErr.Code.Class() == "08" {
			return true, ConnectivityErr
		}
		return true, UnknownErr
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "undefined column") ||
		strings.Contains(s, "no such column") ||
		strings.Contains(s, "has no column named"):
		return true, NoColumnErr
	case strings.Contains(s, "no such index"):
		return true, NoIndexErr
	case strings.Contains(s, "undefined table") ||
		strings.Contains(s, "no such table"):
		return true, NoTableErr
	case strings.Contains(s, "already exists") && strings.Contains(s, "index"):
		return true, ExistIndexErr
	case strings.Contains(s, "already exists") && strings.Contains(s, "table"):
		return true, ExistTableErr
	case strings.Contains(s, "unique constraint failed") ||
		strings.Contains(s, "duplicate key value"):
		return true, DuplicateKeyErr
	case strings.Contains(s, "not null constraint failed") ||
		strings.Contains(s, "not-null constraint"):
		return true, NotNullViolationErr
	case strings.Contains(s, "foreign key constraint failed") ||
		strings.Contains(s, "foreign key violation"):
		return true, ForeignKeyViolationErr
	case strings.Contains(s, "check constraint"):
		return true, CheckConstraintViolationErr
	case strings.Contains(s, "data truncated") ||
		strings.Contains(s, "string data right truncation"):
		return true, DataTruncatedErr
	case strings.Contains(s, "datatype mismatch"):
		return true, InvalidTypeCastErr
	case strings.Contains(s, "syntax error") ||
		strings.Contains(s, "incomplete input"):
		return true, SyntaxErr
	case strings.Contains(s, "connection refused") ||
		strings.Contains(s, "database is closed") ||
		strings.Contains(s, "broken pipe") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "unable to open database"):
		return true, ConnectivityErr
	}
	return false, UnknownErr
}
