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

package service

import (
	"time"

	"github.com/sistemakontrol/kontrol/internal/history"
	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/repo"
	"github.com/sistemakontrol/kontrol/pkg/cache"
	"github.com/sistemakontrol/kontrol/pkg/http"
	"github.com/sistemakontrol/kontrol/pkg/i18n"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/storage"
)

// Options carries the settings the services read from configuration.
type Options struct {
	Auth         http.Auth
	AnalyticsTTL time.Duration
}

type Services struct {
	User      *UserService
	Project   *ProjectService
	Defect    *DefectService
	Analytics *AnalyticsService
	Catalog   *i18n.Catalog
}

func NewServices(
	repos *repo.Repositories,
	c cache.ICache,
	sp storage.StorageProvider,
	m *metrics.Kontrol,
	catalog *i18n.Catalog,
	opts Options,
) *Services {
	recorder := history.NewRecorder(repos.History)
	analytics := NewAnalyticsService(repos, c, opts.AnalyticsTTL, m)

	return &Services{
		User:      NewUserService(repos, c, opts.Auth, m),
		Project:   NewProjectService(repos, sp, analytics, m),
		Defect:    NewDefectService(repos, recorder, sp, analytics, m, model.DefaultLabels(catalog)),
		Analytics: analytics,
		Catalog:   catalog,
	}
}
