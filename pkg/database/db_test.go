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
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) IDatabase {
	t.Helper()
	db, err := NewDatabase(Database{
		Type:   TypeSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDatabase_Unsupported(t *testing.T) {
	_, err := NewDatabase(Database{Type: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestMigrate_SQLite(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, TypeSQLite, db.Type())

	status, err := Status(db)
	require.NoError(t, err)
	assert.True(t, status.Pending)
	assert.Equal(t, uint(0), status.CurrentVersion)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "second run is a no-op")

	status, err = Status(db)
	require.NoError(t, err)
	assert.False(t, status.Pending)
	assert.False(t, status.Dirty)
	assert.Equal(t, status.LatestVersion, status.CurrentVersion)

	for _, table := range []string{"t_user", "t_project", "t_project_stage", "t_defect", "t_defect_comment", "t_defect_attachment", "t_defect_history"} {
		assert.True(t, db.Database().Migrator().HasTable(table), table)
	}

	require.NoError(t, MigrateDown(db, 1))
	assert.False(t, db.Database().Migrator().HasTable("t_defect"))
}

func TestForeignKeysEnforced(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	err := db.Database().Exec(
		"INSERT INTO t_defect (title, description, priority, status, project_id, created_at, updated_at) VALUES ('x', '', 'low', 'new', 999, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
	).Error
	assert.Error(t, err)
}

func TestDSNBuilders(t *testing.T) {
	dsn := buildMySQLDSN("root", "pw", "db.local", "", "kontrol")
	assert.True(t, strings.HasPrefix(dsn, "root:pw@tcp(db.local:3306)/kontrol?"))
	assert.Contains(t, dsn, "multiStatements=true")

	assert.Contains(t, buildSQLiteDSN("/tmp/k.db"), "_foreign_keys=on")

	_, err := buildDialectors([]DatabaseSourceConfig{{Host: "r1"}})
	assert.Error(t, err)
}

func TestReadDB_ReusableAcrossQueries(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	base := ReadDB(db.Database())
	for i := range 2 {
		var n int64
		err := base.Table("t_defect").
			Joins("JOIN t_project ON t_project.id = t_defect.project_id").
			Where("t_project.id > ?", 0).
			Count(&n).Error
		require.NoError(t, err, "query %d", i)
		assert.Zero(t, n)
	}
}
