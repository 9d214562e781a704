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

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/sistemakontrol/kontrol/internal/backup"
	"github.com/sistemakontrol/kontrol/internal/bootstrap"
	"github.com/sistemakontrol/kontrol/internal/conf"
	"github.com/sistemakontrol/kontrol/internal/export"
	"github.com/sistemakontrol/kontrol/internal/repo"
	"github.com/sistemakontrol/kontrol/internal/router"
	"github.com/sistemakontrol/kontrol/internal/service"
	"github.com/sistemakontrol/kontrol/pkg/cache"
	"github.com/sistemakontrol/kontrol/pkg/database"
	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/pprof"
	"github.com/sistemakontrol/kontrol/pkg/storage"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// config
		conf.ProviderSet,
		log.ProviderSet,
		// infrastructure
		database.ProviderSet,
		cache.ProviderSet,
		storage.ProviderSet,
		metrics.ProviderSet,
		pprof.ProviderSet,
		// domain
		repo.ProviderSet,
		service.ProviderSet,
		export.ProviderSet,
		backup.ProviderSet,
		// transport
		router.ProviderSet,
		bootstrap.ProviderSet,
	))
}
