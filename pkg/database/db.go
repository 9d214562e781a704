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
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/sistemakontrol/kontrol/pkg/log"
)

// IDatabase exposes the underlying *gorm.DB.
type IDatabase interface {
	Database() *gorm.DB
	Type() string
	Close() error
}

type GormDB struct {
	db     *gorm.DB
	dbType string
}

// NewGormDB wraps an opened connection.
func NewGormDB(db *gorm.DB, dbType string) IDatabase {
	return &GormDB{db: db, dbType: dbType}
}

func (g *GormDB) Database() *gorm.DB {
	return g.db
}

func (g *GormDB) Type() string {
	return g.dbType
}

func (g *GormDB) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NewDatabase opens the configured driver, applies pool settings and pings it.
func NewDatabase(cfg Database) (IDatabase, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case TypeMySQL:
		c := cfg.MySQL
		dialector = mysql.Open(buildMySQLDSN(c.User, c.Password, c.Host, c.Port, c.DBName))
	case TypeSQLite, "":
		path := cfg.SQLite.Path
		if path == "" {
			path = "kontrol.db"
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		dialector = sqlite.Open(buildSQLiteDSN(path))
		cfg.Type = TypeSQLite
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(cfg)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.Type == TypeMySQL && len(cfg.MySQL.Replicas) > 0 {
		replicas, err := buildDialectors(cfg.MySQL.Replicas)
		if err != nil {
			return nil, fmt.Errorf("failed to build replica dialectors: %w", err)
		}
		err = db.Use(dbresolver.Register(dbresolver.Config{
			Replicas:          replicas,
			TraceResolverMode: cfg.OutPut,
		}).
			SetConnMaxIdleTime(GetConnMaxIdleTime(cfg.MaxIdleTime)).
			SetConnMaxLifetime(GetConnMaxLifetime(cfg.MaxLifetime)).
			SetMaxIdleConns(cfg.MaxIdleConns).
			SetMaxOpenConns(cfg.MaxOpenConns))
		if err != nil {
			return nil, fmt.Errorf("failed to register DBResolver plugin: %w", err)
		}
		log.Infow("read-write separation enabled", "replicas", len(replicas))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB handle: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(GetConnMaxLifetime(cfg.MaxLifetime))
	sqlDB.SetConnMaxIdleTime(GetConnMaxIdleTime(cfg.MaxIdleTime))

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Infow("database connected", "type", cfg.Type)
	return NewGormDB(db, cfg.Type), nil
}

func newGormLogger(cfg Database) gormlogger.Interface {
	if !cfg.OutPut {
		return gormlogger.Default.LogMode(gormlogger.Silent)
	}
	return NewGormLoggerAdapter(gormlogger.Config{
		SlowThreshold:             cfg.slowThreshold(),
		LogLevel:                  gormlogger.Info,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	}, gormlogger.Info)
}
