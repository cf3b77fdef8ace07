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
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var slowBadge = color.New(color.FgBlack, color.BgYellow)

var operationColors = map[string]*color.Color{
	"SELECT": color.New(color.FgGreen),
	"INSERT": color.New(color.FgBlue),
	"UPDATE": color.New(color.FgYellow),
	"DELETE": color.New(color.FgMagenta),
}

type slowQueryHook struct {
	slowTime time.Duration
	logger   Logger
	now      func() time.Time
}

var _ bun.QueryHook = (*slowQueryHook)(nil)

func newSlowQueryHook(slowTime time.Duration, logger Logger) *slowQueryHook {
	return &slowQueryHook{slowTime: slowTime, logger: logger, now: time.Now}
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil || h.logger == nil {
		return
	}
	duration := h.now().Sub(event.StartTime)
	if duration <= h.slowTime {
		return
	}
	h.logger.Warn(slowBadge.Sprint(" SLOW QUERY "),
		"duration", duration.Round(time.Microsecond),
		"slow_threshold", h.slowTime,
		"query", colorizeQuery(event.Operation(), event.Query),
	)
}

func colorizeQuery(operation, query string) string {
	if c, ok := operationColors[operation]; ok {
		return c.Sprint(query)
	}
	return color.RedString(query)
}
