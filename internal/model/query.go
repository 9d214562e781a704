// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import "strings"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultSort     = "-created_at"
)

var sortColumns = map[string]string{
	"created_at": "t_defect.created_at",
	"deadline":   "t_defect.deadline",
	"priority":   "t_defect.priority",
	"status":     "t_defect.status",
}

// DefectQuery filters the defect list. Zero values mean "no filter".
type DefectQuery struct {
	Status     DefectStatus
	Priority   Priority
	ExecutorID *uint64
	ProjectID  *uint64
	Search     string
	Sort       string
	PageNum    int
	PageSize   int
}

// Normalize clamps paging and falls back to the default sort for unknown keys.
func (q *DefectQuery) Normalize() {
	if q.PageNum <= 0 {
		q.PageNum = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	if _, ok := q.OrderBy(); !ok {
		q.Sort = DefaultSort
	}
}

// OrderBy returns the SQL ORDER BY clause for Sort, and false when the key is not whitelisted.
func (q *DefectQuery) OrderBy() (string, bool) {
	key, desc := strings.CutPrefix(strings.TrimSpace(q.Sort), "-")
	col, ok := sortColumns[key]
	if !ok {
		return "", false
	}
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	// id breaks ties so pages never overlap
	return col + dir + ", t_defect.id" + dir, true
}

// Page is one page of a listing.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	PageNum  int   `json:"pageNum"`
	PageSize int   `json:"pageSize"`
}
