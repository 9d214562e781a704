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

package conf

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/wire"
	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/sistemakontrol/kontrol/pkg/cache"
	"github.com/sistemakontrol/kontrol/pkg/database"
	"github.com/sistemakontrol/kontrol/pkg/http"
	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/pprof"
	"github.com/sistemakontrol/kontrol/pkg/storage"
)

const EnvPrefix = "KONTROL"

var ProviderSet = wire.NewSet(
	ProvideConf,
	wire.FieldsOf(new(*AppConfig), "Log", "Http", "Database", "Cache", "Storage", "Metrics", "Pprof", "App", "Backup"),
	ProvideLogConf,
)

type AppConfig struct {
	Log      log.Conf
	Http     http.Http
	Database database.Database
	Cache    cache.Conf
	Storage  storage.Conf
	Metrics  metrics.MetricsConfig
	Pprof    pprof.Conf
	App      App
	Backup   Backup
}

type App struct {
	Locale       string // fallback label language, "ru" or "en"
	Timezone     string // IANA name used to render timestamps in exports
	AnalyticsTTL int    // seconds
}

// Location resolves Timezone, UTC when unset or unknown.
func (a App) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		log.Warnw("unknown timezone, using UTC", "timezone", a.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

// Language is the fallback label language.
func (a App) Language() language.Tag {
	if a.Locale == "en" {
		return language.English
	}
	return language.Russian
}

// AnalyticsCacheTTL is AnalyticsTTL as a duration.
func (a App) AnalyticsCacheTTL() time.Duration {
	return time.Duration(a.AnalyticsTTL) * time.Second
}

type Backup struct {
	Dir       string
	Schedule  string // cron spec with seconds; empty disables scheduled backups
	Keep      int    // newest backups to retain; zero keeps all
	MysqlDump string // mysqldump binary
}

func ProvideConf(path string) (*AppConfig, error) {
	return Load(path)
}

func ProvideLogConf(c *AppConfig) *log.Conf {
	return &c.Log
}

var (
	watchMu sync.Mutex
	current *AppConfig
)

// Load reads the TOML file at path (or conf.d/config.toml when empty),
// overlays KONTROL_* environment variables and applies defaults. The file
// is watched: a change re-applies the log level without a restart.
func Load(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
		log.Warn("no configuration file found, using defaults and environment")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	watchMu.Lock()
	current = cfg
	watchMu.Unlock()

	if v.ConfigFileUsed() != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Infow("configuration changed, reloading", "file", e.Name)
			next, err := decode(v)
			if err != nil {
				log.Errorw("failed to reload configuration", "error", err)
				return
			}
			watchMu.Lock()
			prev := current
			current = next
			watchMu.Unlock()
			if prev == nil || prev.Log.Level != next.Log.Level {
				log.SetLevel(next.Log.Level)
				log.Infow("log level changed", "level", next.Log.Level)
			}
		})
		v.WatchConfig()
		log.Infow("configuration loaded", "file", v.ConfigFileUsed())
	}
	return cfg, nil
}

// Current returns the most recently loaded configuration.
func Current() *AppConfig {
	watchMu.Lock()
	defer watchMu.Unlock()
	return current
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./conf.d")
		v.SetConfigName("config")
	}
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

func decode(v *viper.Viper) (*AppConfig, error) {
	cfg := new(AppConfig)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults registers every key, which also makes each one overridable
// from the environment.
func SetDefaults(v *viper.Viper) {
	logDefaults := log.SetDefaults()
	v.SetDefault("log.output", logDefaults.Output)
	v.SetDefault("log.path", logDefaults.Path)
	v.SetDefault("log.filename", logDefaults.Filename)
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.keepHours", logDefaults.KeepHours)
	v.SetDefault("log.rotateSize", logDefaults.RotateSize)
	v.SetDefault("log.rotateNum", logDefaults.RotateNum)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.contextPath", "/api/v1")
	v.SetDefault("http.exposeMetrics", true)
	v.SetDefault("http.accessLog", true)
	v.SetDefault("http.bodyLimitMB", 20)
	v.SetDefault("http.readTimeout", 30)
	v.SetDefault("http.writeTimeout", 60)
	v.SetDefault("http.idleTimeout", 120)
	v.SetDefault("http.shutdownTimeout", 10)
	v.SetDefault("http.tls.certFile", "")
	v.SetDefault("http.tls.keyFile", "")
	v.SetDefault("http.auth.secretKey", "")
	v.SetDefault("http.auth.accessExpire", 720)
	v.SetDefault("http.auth.keyPrefix", "kontrol:")

	v.SetDefault("database.type", database.TypeSQLite)
	v.SetDefault("database.output", false)
	v.SetDefault("database.slowThreshold", 200)
	v.SetDefault("database.maxOpenConns", 0)
	v.SetDefault("database.maxIdleConns", 0)
	v.SetDefault("database.maxLifetime", 3600)
	v.SetDefault("database.maxIdleTime", 600)
	v.SetDefault("database.sqlite.path", "data/kontrol.db")
	v.SetDefault("database.mysql.host", "127.0.0.1")
	v.SetDefault("database.mysql.port", "3306")
	v.SetDefault("database.mysql.user", "kontrol")
	v.SetDefault("database.mysql.password", "")
	v.SetDefault("database.mysql.dbName", "kontrol")

	v.SetDefault("cache.mode", cache.ModeMemory)
	v.SetDefault("cache.prefix", "kontrol:")
	v.SetDefault("cache.localMaxBytes", 32*1024*1024)
	v.SetDefault("cache.address", "127.0.0.1:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.poolSize", 10)
	v.SetDefault("cache.dialTimeout", 5)
	v.SetDefault("cache.readTimeout", 3)
	v.SetDefault("cache.writeTimeout", 3)

	v.SetDefault("storage.provider", storage.StorageLocal)
	v.SetDefault("storage.localDir", "data/attachments")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accessKey", "")
	v.SetDefault("storage.secretKey", "")
	v.SetDefault("storage.bucket", "kontrol")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.useTLS", false)
	v.SetDefault("storage.basePath", "")

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.host", "0.0.0.0")
	v.SetDefault("metrics.port", 0)

	v.SetDefault("pprof.enable", false)
	v.SetDefault("pprof.host", "127.0.0.1")
	v.SetDefault("pprof.port", 6060)
	v.SetDefault("pprof.path", "/debug/pprof")

	v.SetDefault("app.locale", "ru")
	v.SetDefault("app.timezone", "Europe/Moscow")
	v.SetDefault("app.analyticsTTL", 300)

	v.SetDefault("backup.dir", "data/backups")
	v.SetDefault("backup.schedule", "")
	v.SetDefault("backup.keep", 14)
	v.SetDefault("backup.mysqlDump", "mysqldump")
}

func (c *AppConfig) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if c.Http.Auth.SecretKey == "" {
		return fmt.Errorf("http.auth.secretKey is required (or %s_HTTP_AUTH_SECRETKEY)", EnvPrefix)
	}
	if c.Http.Auth.AccessExpire <= 0 {
		return fmt.Errorf("http.auth.accessExpire must be positive")
	}
	switch c.Database.Type {
	case database.TypeSQLite, database.TypeMySQL:
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	switch c.App.Locale {
	case "ru", "en":
	default:
		return fmt.Errorf("app.locale must be ru or en, got %q", c.App.Locale)
	}
	return nil
}
