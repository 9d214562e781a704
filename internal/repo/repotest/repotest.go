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

// Package repotest opens migrated sqlite databases and seeds fixtures for tests.
package repotest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/repo"
	"github.com/sistemakontrol/kontrol/pkg/database"
)

// Open returns repositories over a fresh, migrated sqlite file in t.TempDir.
func Open(t testing.TB) *repo.Repositories {
	t.Helper()
	_, r := OpenDB(t)
	return r
}

// OpenDB is Open that also returns the database, for tests that need raw SQL.
func OpenDB(t testing.TB) (database.IDatabase, *repo.Repositories) {
	t.Helper()
	db, err := database.NewDatabase(database.Database{
		Type:   database.TypeSQLite,
		SQLite: database.SQLiteConfig{Path: filepath.Join(t.TempDir(), "kontrol.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db, repo.NewRepositories(db)
}

func User(t testing.TB, r *repo.Repositories, username string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		Username:  username,
		FirstName: username,
		Password:  "x",
		Role:      role,
		IsEnabled: 1,
	}
	require.NoError(t, r.User.Create(context.Background(), u))
	return u
}

func Project(t testing.TB, r *repo.Repositories, name string) *model.Project {
	t.Helper()
	p := &model.Project{
		Name:      name,
		Address:   "Main st. 1",
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.Project.Create(context.Background(), p))
	return p
}

// Defect creates a new defect in project p, optionally assigned to executor.
func Defect(t testing.TB, r *repo.Repositories, p *model.Project, title string, executor *model.User) *model.Defect {
	t.Helper()
	d := &model.Defect{
		Title:     title,
		Priority:  model.PriorityMedium,
		Status:    model.StatusNew,
		ProjectID: p.ID,
	}
	if executor != nil {
		id := executor.ID
		d.ExecutorID = &id
	}
	require.NoError(t, r.Defect.Create(context.Background(), d))
	return d
}
