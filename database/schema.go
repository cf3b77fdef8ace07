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
	"fmt"

	"github.com/uptrace/bun"
)

// CreateSchema creates a table for each model, in the given order, with the
// foreign keys Bun derives from belongs-to relations. Existing tables are
// left untouched.
func CreateSchema(ctx context.Context, db bun.IDB, models ...interface{}) error {
	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %s: %w", modelName(model), err)
		}
	}
	return nil
}

// DropSchema drops the tables of the given models in reverse order.
func DropSchema(ctx context.Context, db bun.IDB, models ...interface{}) error {
	for i := len(models) - 1; i >= 0; i-- {
		_, err := db.NewDropTable().
			Model(models[i]).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop table %s: %w", modelName(models[i]), err)
		}
	}
	return nil
}
