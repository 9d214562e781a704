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

package bootstrap

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/wire"

	"github.com/sistemakontrol/kontrol/internal/backup"
	"github.com/sistemakontrol/kontrol/internal/conf"
	"github.com/sistemakontrol/kontrol/internal/router"
	"github.com/sistemakontrol/kontrol/pkg/cron"
	"github.com/sistemakontrol/kontrol/pkg/http"
	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/pprof"
	"github.com/sistemakontrol/kontrol/pkg/shutdown"
	"github.com/sistemakontrol/kontrol/pkg/version"
)

var ProviderSet = wire.NewSet(NewScheduler, NewApp)

type App struct {
	Conf    *conf.AppConfig
	Logger  *log.Logger
	HttpApp *fiber.App
	Metrics *metrics.Server
	Pprof   *pprof.Server
	Cron    *cron.Scheduler
}

// InitAppFunc is the wire-generated constructor.
type InitAppFunc func(configPath string) (*App, func(), error)

// NewScheduler builds the job scheduler in app.timezone.
func NewScheduler(app conf.App, m *metrics.CronMetrics) *cron.Scheduler {
	return cron.New(cron.WithLocation(app.Location()), cron.WithMetrics(m))
}

func NewApp(
	cfg *conf.AppConfig,
	logger *log.Logger,
	rt *router.Router,
	ms *metrics.Server,
	ps *pprof.Server,
	scheduler *cron.Scheduler,
	backuper *backup.Backuper,
) (*App, error) {
	if err := backuper.Schedule(scheduler); err != nil {
		return nil, err
	}

	return &App{
		Conf:    cfg,
		Logger:  logger,
		HttpApp: rt.Router(),
		Metrics: ms,
		Pprof:   ps,
		Cron:    scheduler,
	}, nil
}

// Run starts every listener and the scheduler, blocks until a stop signal,
// then releases everything in reverse start order. cleanup releases what
// wire built (database, cache).
func Run(app *App, cleanup func()) error {
	mgr := shutdown.NewManager()
	mgr.Add("resources", func(context.Context) error {
		cleanup()
		return nil
	})

	if err := app.Metrics.Start(); err != nil {
		return err
	}
	mgr.Add("metrics", app.Metrics.Stop)

	if err := app.Pprof.Start(); err != nil {
		return err
	}
	mgr.Add("pprof", app.Pprof.Stop)

	app.Cron.Start()
	mgr.Add("cron", func(context.Context) error {
		app.Cron.Stop()
		return nil
	})

	stopHTTP := http.Serve(app.HttpApp, app.Conf.Http)
	mgr.Add("http", func(context.Context) error {
		stopHTTP()
		return nil
	})

	v := version.GetVersion()
	log.Infow("kontrol started", "version", v.Version, "commit", v.GitCommit, "address", app.Conf.Http.Addr())

	sig := shutdown.WaitForSignal(context.Background())
	log.Infow("shutting down", "reason", sig)

	timeout := time.Duration(app.Conf.Http.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// leave the http hook its own budget
	ctx, cancel := context.WithTimeout(context.Background(), 2*timeout)
	defer cancel()
	mgr.Shutdown(ctx)

	_ = log.Sync()
	return nil
}
