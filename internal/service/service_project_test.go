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
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/service"
	"github.com/sistemakontrol/kontrol/pkg/storage"
)

func TestProjectService_Create(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Project.Create(ctx, h.eng, &model.ProjectReq{Name: "X", StartDate: "2025-01-01"})
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = h.svc.Project.Create(ctx, nil, &model.ProjectReq{Name: "X", StartDate: "2025-01-01"})
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	tests := []struct {
		name  string
		req   *model.ProjectReq
		field string
	}{
		{"missing name", &model.ProjectReq{StartDate: "2025-01-01"}, "name"},
		{"bad start", &model.ProjectReq{Name: "X", StartDate: "tomorrow"}, "startDate"},
		{"end before start", &model.ProjectReq{Name: "X", StartDate: "2025-03-01", EndDate: strPtr("2025-02-01")}, "endDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Project.Create(ctx, h.manager, tt.req)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	p, err := h.svc.Project.Create(ctx, h.manager, &model.ProjectReq{Name: " Bridge ", Address: "River rd.", StartDate: "2025-01-01", EndDate: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Bridge", p.Name)
	assert.Nil(t, p.EndDate)

	projects, err := h.svc.Project.List(ctx, h.customer)
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestProjectService_UpdateEndDate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.newDefect(t, "Crack", h.eng) // due 2025-06-01

	_, err := h.svc.Project.Update(ctx, h.manager, h.project.ID, &model.ProjectReq{
		Name: "Tower", StartDate: "2025-01-01", EndDate: strPtr("2025-05-01"),
	})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "endDate")

	p, err := h.svc.Project.Update(ctx, h.manager, h.project.ID, &model.ProjectReq{
		Name: "Tower 2", StartDate: "2025-01-01", EndDate: strPtr("2025-06-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", model.FormatDate(p.EndDate))

	_, err = h.svc.Project.Update(ctx, h.manager, 999, &model.ProjectReq{Name: "X", StartDate: "2025-01-01"})
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = h.svc.Project.Update(ctx, h.customer, h.project.ID, &model.ProjectReq{Name: "X", StartDate: "2025-01-01"})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestProjectService_Stages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Project.CreateStage(ctx, h.manager, h.project.ID, &model.StageReq{
		Name: "Bad", StartDate: strPtr("2025-05-01"), EndDate: strPtr("2025-04-01"),
	})
	assert.ErrorIs(t, err, model.ErrValidationFailed)
	_, err = h.svc.Project.CreateStage(ctx, h.eng, h.project.ID, &model.StageReq{Name: "x"})
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = h.svc.Project.CreateStage(ctx, h.manager, 999, &model.StageReq{Name: "x"})
	assert.ErrorIs(t, err, model.ErrNotFound)

	for _, req := range []*model.StageReq{
		{Name: "Roof", Order: 2},
		{Name: "Walls", Order: 1, StartDate: strPtr("2025-03-01")},
		{Name: "Foundation", Order: 1, StartDate: strPtr("2025-02-01")},
	} {
		_, err := h.svc.Project.CreateStage(ctx, h.manager, h.project.ID, req)
		require.NoError(t, err)
	}

	stages, err := h.svc.Project.ListStages(ctx, h.eng, h.project.ID)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, "Foundation", stages[0].Name)
	assert.Equal(t, "Walls", stages[1].Name)
	assert.Equal(t, "Roof", stages[2].Name)

	roof := stages[2]
	updated, err := h.svc.Project.UpdateStage(ctx, h.manager, h.project.ID, roof.ID, &model.StageReq{Name: "Roof", Order: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Order)

	require.NoError(t, h.svc.Project.DeleteStage(ctx, h.manager, h.project.ID, roof.ID))
	assert.ErrorIs(t, h.svc.Project.DeleteStage(ctx, h.manager, h.project.ID, roof.ID), model.ErrNotFound)

	p, err := h.svc.Project.Get(ctx, h.customer, h.project.ID)
	require.NoError(t, err)
	assert.Len(t, p.Stages, 2)
}

func TestProjectService_DeleteCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	d := h.newDefect(t, "Crack", h.eng)
	_, err := h.svc.Project.CreateStage(ctx, h.manager, h.project.ID, &model.StageReq{Name: "Walls"})
	require.NoError(t, err)
	a, err := h.svc.Defect.Attach(ctx, h.eng, d.ID, service.Upload{Name: "a.txt", Size: 3, Body: bytes.NewReader([]byte("abc"))})
	require.NoError(t, err)

	assert.ErrorIs(t, h.svc.Project.Delete(ctx, h.eng, h.project.ID), model.ErrForbidden)
	assert.ErrorIs(t, h.svc.Project.Delete(ctx, h.manager, 999), model.ErrNotFound)

	require.NoError(t, h.svc.Project.Delete(ctx, h.manager, h.project.ID))

	_, err = h.svc.Project.Get(ctx, h.manager, h.project.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = h.svc.Defect.Get(ctx, h.manager, d.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = h.blobs.Get(ctx, a.ObjectKey)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	assert.Empty(t, h.history(t, d.ID))
}
