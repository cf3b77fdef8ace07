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

const DefaultPageSize = 10

// PageRequest describes a 1-based page, optional filter, ordering and the
// relations to load with each row.
type PageRequest struct {
	page     int
	pageSize int
	filter   Predicate
	orders   []string // "id ASC", "name DESC"
	includes []string
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		return DefaultPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		return 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

func (p *PageRequest) GetFilter() Predicate {
	return p.filter
}

func (p *PageRequest) GetOrders() []string {
	return p.orders
}

func (p *PageRequest) GetIncludes() []string {
	return p.includes
}

// Include adds relations to eager-load and returns the request.
func (p *PageRequest) Include(paths ...string) *PageRequest {
	p.includes = append(p.includes, paths...)
	return p
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, filter Predicate, orders []string) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize, filter: filter, orders: orders}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter only.
func NewPageRequestWithFilter(page int, pageSize int, filter Predicate) *PageRequest {
	return NewPageRequest(page, pageSize, filter, nil)
}

// NewPageRequestWithOrders constructs a PageRequest with ordering only.
func NewPageRequestWithOrders(page int, pageSize int, orders []string) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orders)
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, nil)
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}

// TotalPages returns the number of pages needed for Total items.
func (p *Pagination[T]) TotalPages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}
