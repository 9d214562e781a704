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
	"context"
	"fmt"
	"time"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
	"github.com/sistemakontrol/kontrol/internal/repo"
	"github.com/sistemakontrol/kontrol/pkg/cache"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
)

const analyticsNamespace = "analytics:status"

type AnalyticsService struct {
	repos   *repo.Repositories
	query   *cache.CachedQuery[map[model.DefectStatus]int64]
	metrics *metrics.Kontrol
}

func NewAnalyticsService(repos *repo.Repositories, c cache.ICache, ttl time.Duration, m *metrics.Kontrol) *AnalyticsService {
	return &AnalyticsService{
		repos: repos,
		query: cache.NewCachedQuery(c, analyticsNamespace,
			cache.WithTTL[map[model.DefectStatus]int64](ttl),
			cache.WithLogPrefix[map[model.DefectStatus]int64]("[Analytics]"),
		),
		metrics: m,
	}
}

// StatusCounts returns one bucket per status in workflow declaration
// order. Statuses without defects are reported with a zero count.
func (as *AnalyticsService) StatusCounts(ctx context.Context, actor *policy.Actor, labels model.Labels) ([]model.StatusCount, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if !policy.CanViewAnalytics(actor) {
		as.metrics.ObserveDenied("analytics")
		return nil, fmt.Errorf("%w: analytics", model.ErrForbidden)
	}

	scope := policy.Visibility(actor)
	counts, err := as.query.Get(ctx, "all", func(ctx context.Context) (map[model.DefectStatus]int64, error) {
		return as.repos.Defect.CountByStatus(ctx, scope)
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.StatusCount, 0, len(model.Statuses))
	for _, s := range model.Statuses {
		out = append(out, model.StatusCount{Status: s, Label: labels.Status(s), Count: counts[s]})
	}
	return out, nil
}

// Invalidate drops cached counts after a write that moves them.
func (as *AnalyticsService) Invalidate(ctx context.Context) {
	_ = as.query.Invalidate(ctx)
}
