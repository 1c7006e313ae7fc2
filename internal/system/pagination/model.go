/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package pagination

import (
	"math"

	"github.com/wso2/email-gateway-service/internal/system/constants"
)

// Page is one page of an offset paginated listing. Total is the full filtered count.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// Bounds converts a 1-based page request to LIMIT/OFFSET. ok is false when the request can
// only yield an empty page. Page sizes above the maximum are capped.
func Bounds(page, pageSize int) (limit, offset int, ok bool) {
	if page <= 0 || pageSize <= 0 {
		return 0, 0, false
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}
	// An offset past math.MaxInt cannot address any row.
	if page-1 > math.MaxInt/pageSize {
		return 0, 0, false
	}
	return pageSize, (page - 1) * pageSize, true
}

// EffectivePageSize is the page size reported back to the caller.
func EffectivePageSize(pageSize int) int {
	if pageSize > constants.MaxPageSize {
		return constants.MaxPageSize
	}
	return pageSize
}

// NewPage builds a page, replacing a nil item slice with an empty one.
func NewPage[T any](items []T, total int64, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, PageSize: EffectivePageSize(pageSize)}
}
