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
	"database/sql"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
)

// QueryMetrics counts and times every statement sent through a Bun DB.
type QueryMetrics struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewQueryMetrics registers the query collectors on reg. Collectors already
// registered by an earlier call are reused.
func NewQueryMetrics(reg prometheus.Registerer) (*QueryMetrics, error) {
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shelf",
		Subsystem: "db",
		Name:      "queries_total",
		Help:      "Statements executed, by connection, operation and status.",
	}, []string{"connection", "operation", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shelf",
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Statement latency, by connection and operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"connection", "operation"})

	var err error
	if queries, err = registerOrReuse(reg, queries); err != nil {
		return nil, err
	}
	if duration, err = registerOrReuse(reg, duration); err != nil {
		return nil, err
	}
	return &QueryMetrics{queries: queries, duration: duration}, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Hook returns a query hook labelling observations with connection.
func (m *QueryMetrics) Hook(connection string) bun.QueryHook {
	return &metricsHook{metrics: m, connection: connection}
}

type metricsHook struct {
	metrics    *QueryMetrics
	connection string
}

func (h *metricsHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *metricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	operation := event.Operation()
	status := "ok"
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		status = "error"
	}
	h.metrics.queries.WithLabelValues(h.connection, operation, status).Inc()
	h.metrics.duration.WithLabelValues(h.connection, operation).Observe(time.Since(event.StartTime).Seconds())
}
