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

package repo

import (
	"context"
	"time"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/pkg/database"
)

type IProjectRepository interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id uint64) (*model.Project, error)
	GetWithStages(ctx context.Context, id uint64) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id uint64) error
	LatestDefectDeadline(ctx context.Context, projectID uint64) (*time.Time, error)

	CreateStage(ctx context.Context, s *model.ProjectStage) error
	GetStage(ctx context.Context, projectID, stageID uint64) (*model.ProjectStage, error)
	ListStages(ctx context.Context, projectID uint64) ([]model.ProjectStage, error)
	UpdateStage(ctx context.Context, s *model.ProjectStage) error
	DeleteStage(ctx context.Context, projectID, stageID uint64) error
	DeleteStages(ctx context.Context, projectID uint64) error
}

type ProjectRepo struct {
	database.IDatabase
}

func NewProjectRepo(db database.IDatabase) IProjectRepository {
	return &ProjectRepo{IDatabase: db}
}

const stageOrder = "sort_order ASC, start_date ASC, id ASC"

func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	return r.Database().WithContext(ctx).Omit("Stages").Create(p).Error
}

func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (*model.Project, error) {
	var p model.Project
	if err := r.Database().WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ProjectRepo) GetWithStages(ctx context.Context, id uint64) (*model.Project, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Stages, err = r.ListStages(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	err := database.ReadDB(r.Database().WithContext(ctx)).Order("name ASC, id ASC").Find(&projects).Error
	return projects, err
}

func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	res := r.Database().WithContext(ctx).Model(&model.Project{}).Where("id = ?", p.ID).
		Updates(map[string]any{
			"name":       p.Name,
			"address":    p.Address,
			"start_date": p.StartDate,
			"end_date":   p.EndDate,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	return r.Database().WithContext(ctx).Where("id = ?", id).Delete(&model.Project{}).Error
}

// LatestDefectDeadline returns the latest deadline among the project's
// defects, nil when none has one.
func (r *ProjectRepo) LatestDefectDeadline(ctx context.Context, projectID uint64) (*time.Time, error) {
	var d model.Defect
	err := r.Database().WithContext(ctx).
		Where("project_id = ? AND deadline IS NOT NULL", projectID).
		Order("deadline DESC").Limit(1).Find(&d).Error
	if err != nil {
		return nil, err
	}
	return d.Deadline, nil
}

func (r *ProjectRepo) CreateStage(ctx context.Context, s *model.ProjectStage) error {
	return r.Database().WithContext(ctx).Create(s).Error
}

func (r *ProjectRepo) GetStage(ctx context.Context, projectID, stageID uint64) (*model.ProjectStage, error) {
	var s model.ProjectStage
	err := r.Database().WithContext(ctx).Where("id = ? AND project_id = ?", stageID, projectID).First(&s).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *ProjectRepo) ListStages(ctx context.Context, projectID uint64) ([]model.ProjectStage, error) {
	var stages []model.ProjectStage
	err := r.Database().WithContext(ctx).Where("project_id = ?", projectID).Order(stageOrder).Find(&stages).Error
	return stages, err
}

func (r *ProjectRepo) UpdateStage(ctx context.Context, s *model.ProjectStage) error {
	res := r.Database().WithContext(ctx).Model(&model.ProjectStage{}).
		Where("id = ? AND project_id = ?", s.ID, s.ProjectID).
		Updates(map[string]any{
			"name":       s.Name,
			"start_date": s.StartDate,
			"end_date":   s.EndDate,
			"sort_order": s.Order,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ProjectRepo) DeleteStage(ctx context.Context, projectID, stageID uint64) error {
	res := r.Database().WithContext(ctx).Where("id = ? AND project_id = ?", stageID, projectID).Delete(&model.ProjectStage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *ProjectRepo) DeleteStages(ctx context.Context, projectID uint64) error {
	return r.Database().WithContext(ctx).Where("project_id = ?", projectID).Delete(&model.ProjectStage{}).Error
}
