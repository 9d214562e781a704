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
	"github.com/google/wire"

	"github.com/sistemakontrol/kontrol/internal/conf"
	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/repo"
	"github.com/sistemakontrol/kontrol/pkg/cache"
	"github.com/sistemakontrol/kontrol/pkg/http"
	"github.com/sistemakontrol/kontrol/pkg/i18n"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/storage"
)

var ProviderSet = wire.NewSet(
	ProvideServices,
	ProvideCatalog,
	ProvideOptions,
)

func ProvideServices(
	repos *repo.Repositories,
	c cache.ICache,
	sp storage.StorageProvider,
	m *metrics.Kontrol,
	catalog *i18n.Catalog,
	opts Options,
) *Services {
	return NewServices(repos, c, sp, m, catalog, opts)
}

// ProvideCatalog builds the label catalog with app.locale as its fallback.
func ProvideCatalog(app conf.App) *i18n.Catalog {
	return model.NewCatalog(app.Language())
}

func ProvideOptions(h http.Http, app conf.App) Options {
	return Options{Auth: h.Auth, AnalyticsTTL: app.AnalyticsCacheTTL()}
}
