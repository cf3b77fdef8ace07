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

package types

import (
	"strings"

	"github.com/uptrace/bun"
)

const (
	matchAll  = "1 = 1"
	matchNone = "1 = 0"
)

// Predicate is a boolean condition over an entity's columns. Clause renders
// it as a Bun WHERE fragment; Bun's formatter fills the "?" placeholders
// with args in order, escaped for the dialect.
type Predicate interface {
	Clause() (string, []interface{})
}

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

func (f *QueryFilter) Clause() (string, []interface{}) {
	if f == nil || f.Schema == "" {
		return "", nil
	}
	return f.Schema, f.Args
}

// Column names an entity column. A bare name is qualified with the queried
// table's alias; a dotted name such as "user.first_name" is used as written,
// which is how columns of an included belongs-to relation are reached.
type Column string

// Field returns a column reference for building predicates.
func Field(name string) Column { return Column(name) }

func (c Column) clause() (string, []interface{}) {
	if strings.Contains(string(c), ".") {
		return "?", []interface{}{bun.Ident(string(c))}
	}
	return "?TableAlias.?", []interface{}{bun.Ident(string(c))}
}

// Eq matches rows whose column equals v; a nil v matches NULL.
func (c Column) Eq(v interface{}) Predicate {
	if v == nil {
		return nullCheck{column: c}
	}
	return comparison{column: c, op: "=", value: v}
}

func (c Column) Ne(v interface{}) Predicate {
	if v == nil {
		return nullCheck{column: c, not: true}
	}
	return comparison{column: c, op: "<>", value: v}
}

func (c Column) Gt(v interface{}) Predicate  { return comparison{column: c, op: ">", value: v} }
func (c Column) Gte(v interface{}) Predicate { return comparison{column: c, op: ">=", value: v} }
func (c Column) Lt(v interface{}) Predicate  { return comparison{column: c, op: "<", value: v} }
func (c Column) Lte(v interface{}) Predicate { return comparison{column: c, op: "<=", value: v} }

// Like matches with SQL LIKE; the pattern carries its own wildcards.
func (c Column) Like(pattern string) Predicate {
	return comparison{column: c, op: "LIKE", value: pattern}
}

// In matches any of values. No values matches nothing.
func (c Column) In(values ...interface{}) Predicate { return inList{column: c, values: values} }

func (c Column) NotIn(values ...interface{}) Predicate {
	return inList{column: c, values: values, not: true}
}

func (c Column) IsNull() Predicate    { return nullCheck{column: c} }
func (c Column) IsNotNull() Predicate { return nullCheck{column: c, not: true} }

type comparison struct {
	column Column
	op     string
	value  interface{}
}

func (p comparison) Clause() (string, []interface{}) {
	schema, args := p.column.clause()
	return schema + " " + p.op + " ?", append(args, p.value)
}

type nullCheck struct {
	column Column
	not    bool
}

func (p nullCheck) Clause() (string, []interface{}) {
	schema, args := p.column.clause()
	if p.not {
		return schema + " IS NOT NULL", args
	}
	return schema + " IS NULL", args
}

type inList struct {
	column Column
	values []interface{}
	not    bool
}

func (p inList) Clause() (string, []interface{}) {
	if len(p.values) == 0 {
		if p.not {
			return matchAll, nil
		}
		return matchNone, nil
	}
	schema, args := p.column.clause()
	op := " IN (?)"
	if p.not {
		op = " NOT IN (?)"
	}
	return schema + op, append(args, bun.In(p.values))
}

type group struct {
	sep   string
	empty string
	preds []Predicate
}

func (g group) Clause() (string, []interface{}) {
	parts := make([]string, 0, len(g.preds))
	var args []interface{}
	for _, p := range g.preds {
		if p == nil {
			continue
		}
		schema, pargs := p.Clause()
		if schema == "" {
			continue
		}
		parts = append(parts, schema)
		args = append(args, pargs...)
	}
	switch len(parts) {
	case 0:
		return g.empty, nil
	case 1:
		return parts[0], args
	}
	return "(" + strings.Join(parts, ")"+g.sep+"(") + ")", args
}

// And matches rows satisfying every predicate; nil entries are skipped and
// an empty And matches everything.
func And(preds ...Predicate) Predicate {
	return group{sep: " AND ", empty: matchAll, preds: preds}
}

// Or matches rows satisfying at least one predicate; nil entries are skipped
// and an empty Or matches nothing.
func Or(preds ...Predicate) Predicate {
	return group{sep: " OR ", empty: matchNone, preds: preds}
}

type negation struct {
	pred Predicate
}

func (n negation) Clause() (string, []interface{}) {
	if n.pred == nil {
		return matchNone, nil
	}
	schema, args := n.pred.Clause()
	if schema == "" {
		return matchNone, nil
	}
	return "NOT (" + schema + ")", args
}

// Not inverts p.
func Not(p Predicate) Predicate { return negation{pred: p} }
