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

package database

import (
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// ReadDB routes the query to a replica when replicas are registered.
// Without the resolver plugin the clause is ignored. The result is a new
// session, so each chain built on it starts from a clean statement.
func ReadDB(db *gorm.DB) *gorm.DB {
	return db.Clauses(dbresolver.Read).Session(&gorm.Session{})
}

// WriteDB forces the primary, for reads that must see the caller's own writes.
func WriteDB(db *gorm.DB) *gorm.DB {
	return db.Clauses(dbresolver.Write).Session(&gorm.Session{})
}
