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

package main

import (
	"github.com/sistemakontrol/kontrol/internal/conf"
	"github.com/sistemakontrol/kontrol/internal/repo"
	"github.com/sistemakontrol/kontrol/internal/service"
	"github.com/sistemakontrol/kontrol/pkg/cache"
	"github.com/sistemakontrol/kontrol/pkg/database"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/storage"
)

// env is the service graph for commands that act on domain data. The
// schema is migrated on open, like the server does.
type env struct {
	cfg      *conf.AppConfig
	repos    *repo.Repositories
	services *service.Services
	closers  []func()
}

func newEnv() (*env, error) {
	cfg, err := loadConf()
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg}

	db, closeDB, err := database.ProvideDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, closeDB)

	c, closeCache, err := cache.ProvideCache(cfg.Cache)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.closers = append(e.closers, closeCache)

	sp, err := storage.ProvideStorage(cfg.Storage)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.repos = repo.NewRepositories(db)
	e.services = service.NewServices(
		e.repos, c, sp, metrics.NewKontrol(),
		service.ProvideCatalog(cfg.App),
		service.ProvideOptions(cfg.Http, cfg.App),
	)
	return e, nil
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}
