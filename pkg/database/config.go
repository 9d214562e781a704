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
	"net/url"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const (
	TypeMySQL  = "mysql"
	TypeSQLite = "sqlite"
)

// DatabaseSourceConfig is one extra MySQL source or replica.
type DatabaseSourceConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// MySQLConfig is the primary MySQL source. Replicas, when set, enable
// read-write separation through dbresolver.
type MySQLConfig struct {
	Host     string                 `mapstructure:"host"`
	Port     string                 `mapstructure:"port"`
	User     string                 `mapstructure:"user"`
	Password string                 `mapstructure:"password"`
	DBName   string                 `mapstructure:"dbname"`
	Replicas []DatabaseSourceConfig `mapstructure:"replicas"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// Database holds the pool settings shared by every driver.
type Database struct {
	Type          string       `mapstructure:"type"`
	OutPut        bool         `mapstructure:"output"`
	SlowThreshold int          `mapstructure:"slowThreshold"` // milliseconds
	MaxOpenConns  int          `mapstructure:"maxOpenConns"`
	MaxIdleConns  int          `mapstructure:"maxIdleConns"`
	MaxLifetime   int          `mapstructure:"maxLifeTime"`
	MaxIdleTime   int          `mapstructure:"maxIdleTime"`
	MySQL         MySQLConfig  `mapstructure:"mysql"`
	SQLite        SQLiteConfig `mapstructure:"sqlite"`
}

// GetConnMaxLifetime returns ConnMaxLifetime, default 5 minutes.
func GetConnMaxLifetime(maxLifetime int) time.Duration {
	if maxLifetime > 0 {
		return time.Duration(maxLifetime) * time.Second
	}
	return 300 * time.Second
}

// GetConnMaxIdleTime returns ConnMaxIdleTime, default 1 minute.
func GetConnMaxIdleTime(maxIdleTime int) time.Duration {
	if maxIdleTime > 0 {
		return time.Duration(maxIdleTime) * time.Second
	}
	return 60 * time.Second
}

func (d Database) slowThreshold() time.Duration {
	if d.SlowThreshold > 0 {
		return time.Duration(d.SlowThreshold) * time.Millisecond
	}
	return time.Second
}

// buildMySQLDSN enables multiStatements so migration files can hold several statements.
func buildMySQLDSN(user, password, host, port, db string) string {
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&multiStatements=true",
		user, password, host, port, db)
}

// buildSQLiteDSN turns on foreign keys and WAL, which mattn/go-sqlite3 leaves off by default.
func buildSQLiteDSN(path string) string {
	q := url.Values{}
	q.Set("_foreign_keys", "on")
	q.Set("_busy_timeout", "5000")
	q.Set("_journal_mode", "WAL")
	return "file:" + path + "?" + q.Encode()
}

func buildDialectors(configs []DatabaseSourceConfig) ([]gorm.Dialector, error) {
	if len(configs) == 0 {
		return nil, nil
	}
	dialectors := make([]gorm.Dialector, 0, len(configs))
	for _, c := range configs {
		if c.Host == "" || c.User == "" || c.DBName == "" {
			return nil, fmt.Errorf("incomplete database source config: host, user, and dbname are required")
		}
		dialectors = append(dialectors, mysql.Open(buildMySQLDSN(c.User, c.Password, c.Host, c.Port, c.DBName)))
	}
	return dialectors, nil
}
