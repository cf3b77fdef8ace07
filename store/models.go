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

package store

import (
	"context"
	"time"

	"github.com/tomoncle/shelf/database"
	"github.com/uptrace/bun"
)

// Relation names accepted as include paths.
const (
	RelUser         = "User"
	RelProduct      = "Product"
	RelCategory     = "Category"
	RelProducts     = "Products"
	RelUserProducts = "UserProducts"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	FirstName  string    `bun:"first_name,notnull" json:"first_name"`
	LastName   string    `bun:"last_name" json:"last_name"`
	Email      string    `bun:"email" json:"email"`
	Phone      string    `bun:"phone" json:"phone"`
	DocumentID string    `bun:"document_id" json:"document_id"`
	Address    string    `bun:"address" json:"address"`
	Birthday   time.Time `bun:"birthday,nullzero" json:"birthday"`

	UserProducts []*UserProduct `bun:"rel:has-many,join:id=id_user" json:"user_products,omitempty"`
}

type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull" json:"name"`

	Products []*Product `bun:"rel:has-many,join:id=id_category" json:"products,omitempty"`
}

type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	Name       string    `bun:"name,notnull" json:"name"`
	Image      string    `bun:"image" json:"image"`
	CreatedAt  time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	Order      int       `bun:"display_order,notnull,default:0" json:"order"`
	CategoryID int64     `bun:"id_category,notnull" json:"category_id"`

	Category     *Category      `bun:"rel:belongs-to,join:id_category=id" json:"category,omitempty"`
	UserProducts []*UserProduct `bun:"rel:has-many,join:id=id_product" json:"user_products,omitempty"`
}

// UserProduct links a user to a product.
type UserProduct struct {
	bun.BaseModel `bun:"table:user_products,alias:up"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"id_user,notnull" json:"user_id"`
	ProductID int64     `bun:"id_product,notnull" json:"product_id"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`

	User    *User    `bun:"rel:belongs-to,join:id_user=id" json:"user,omitempty"`
	Product *Product `bun:"rel:belongs-to,join:id_product=id" json:"product,omitempty"`
}

var (
	_ bun.BeforeAppendModelHook = (*Product)(nil)
	_ bun.BeforeAppendModelHook = (*UserProduct)(nil)
)

func (p *Product) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampCreated(query, &p.CreatedAt)
	return nil
}

func (up *UserProduct) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	stampCreated(query, &up.CreatedAt)
	return nil
}

func stampCreated(query bun.Query, createdAt *time.Time) {
	if _, ok := query.(*bun.InsertQuery); ok && createdAt.IsZero() {
		*createdAt = time.Now().UTC().Truncate(time.Microsecond)
	}
}

// Models returns the entities in table creation order: categories and
// users first, then products, then the join table referencing both.
func Models() []database.SQLModel {
	return []database.SQLModel{
		database.NewModelAdapter((*Category)(nil), 1),
		database.NewModelAdapter((*User)(nil), 1),
		database.NewModelAdapter((*Product)(nil), 2),
		database.NewModelAdapter((*UserProduct)(nil), 3),
	}
}

func init() {
	database.RegisterModel[Category](1)
	database.RegisterModel[User](1)
	database.RegisterModel[Product](2)
	database.RegisterModel[UserProduct](3)
}
