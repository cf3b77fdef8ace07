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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type recordingLogger struct {
	warns  []string
	fields [][]interface{}
}

func (l *recordingLogger) SetLevel(LogLevel)                        {}
func (l *recordingLogger) Debug(msg string, fields ...interface{}) {}
func (l *recordingLogger) Info(msg string, fields ...interface{})  {}
func (l *recordingLogger) Error(msg string, fields ...interface{}) {}

func (l *recordingLogger) Warn(msg string, fields ...interface{}) {
	l.warns = append(l.warns, msg)
	l.fields = append(l.fields, fields)
}

func TestSlowQueryHook(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	logger := &recordingLogger{}
	hook := newSlowQueryHook(time.Second, logger)
	hook.now = func() time.Time { return start.Add(3 * time.Second) }
	ctx := context.Background()

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT * FROM users", StartTime: start})
	require.Len(t, logger.warns, 1)
	assert.Contains(t, logger.warns[0], "SLOW QUERY")
	assert.Contains(t, fmt.Sprint(logger.fields[0]...), "SELECT * FROM users")

	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: start.Add(2500 * time.Millisecond)})
	hook.AfterQuery(ctx, &bun.QueryEvent{Query: "SELECT 1", StartTime: start, Err: errors.New("failed")})
	assert.Len(t, logger.warns, 1)
}
