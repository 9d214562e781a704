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

package service_test

import (
	"context"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/sistemakontrol/kontrol/internal/history"
	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
	"github.com/sistemakontrol/kontrol/internal/repo"
	"github.com/sistemakontrol/kontrol/internal/repo/repotest"
	"github.com/sistemakontrol/kontrol/internal/service"
	"github.com/sistemakontrol/kontrol/pkg/cache"
	"github.com/sistemakontrol/kontrol/pkg/database"
	"github.com/sistemakontrol/kontrol/pkg/http"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/storage"
)

const testSecret = "test-secret"

type harness struct {
	db      database.IDatabase
	repos   *repo.Repositories
	svc     *service.Services
	blobs   storage.StorageProvider
	metrics *metrics.Kontrol

	manager  *policy.Actor
	customer *policy.Actor
	eng      *policy.Actor
	other    *policy.Actor
	project  *model.Project
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, repos := repotest.OpenDB(t)
	blobs, err := storage.NewStorage(&storage.Conf{Provider: storage.StorageLocal, LocalDir: t.TempDir()})
	require.NoError(t, err)
	m := metrics.NewKontrol()

	svc := service.NewServices(repos, cache.NewFastCache(0), blobs, m, model.NewCatalog(language.English), service.Options{
		Auth:         http.Auth{SecretKey: testSecret, AccessExpire: 60, KeyPrefix: "kontrol:"},
		AnalyticsTTL: 0,
	})

	return &harness{
		db:       db,
		repos:    repos,
		svc:      svc,
		blobs:    blobs,
		metrics:  m,
		manager:  policy.NewActor(repotest.User(t, repos, "manager", model.RoleManager)),
		customer: policy.NewActor(repotest.User(t, repos, "customer", model.RoleCustomer)),
		eng:      policy.NewActor(repotest.User(t, repos, "eng", model.RoleEngineer)),
		other:    policy.NewActor(repotest.User(t, repos, "other", model.RoleEngineer)),
		project:  repotest.Project(t, repos, "Tower"),
	}
}

// newDefect creates a defect through the service as the manager, assigned to executor.
func (h *harness) newDefect(t *testing.T, title string, executor *policy.Actor) *model.Defect {
	t.Helper()
	req := &model.DefectReq{
		Title:     strPtr(title),
		Priority:  strPtr("high"),
		Deadline:  strPtr("2025-06-01"),
		ProjectID: &h.project.ID,
	}
	if executor != nil {
		req.ExecutorID = &executor.UserID
	}
	d, err := h.svc.Defect.Create(context.Background(), h.manager, req)
	require.NoError(t, err)
	return d
}

// moveTo walks the defect along the workflow as the manager.
func (h *harness) moveTo(t *testing.T, d *model.Defect, path ...model.DefectStatus) {
	t.Helper()
	for _, s := range path {
		_, err := h.svc.Defect.Transition(context.Background(), h.manager, d.ID, string(s))
		require.NoError(t, err)
	}
}

func (h *harness) history(t *testing.T, defectID uint64) []model.History {
	t.Helper()
	entries, err := h.repos.History.ListByDefect(context.Background(), defectID)
	require.NoError(t, err)
	return entries
}

func strPtr(s string) *string { return &s }

func decodeDiff(t *testing.T, entry *model.History) history.Diff {
	t.Helper()
	var d history.Diff
	require.NoError(t, sonic.ConfigStd.Unmarshal(entry.Changes, &d))
	return d
}
