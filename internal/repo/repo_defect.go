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
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
	"github.com/sistemakontrol/kontrol/pkg/database"
)

type IDefectRepository interface {
	Create(ctx context.Context, d *model.Defect) error
	GetByID(ctx context.Context, id uint64) (*model.Defect, error)
	GetDetail(ctx context.Context, id uint64) (*model.Defect, error)
	List(ctx context.Context, scope policy.Scope, q model.DefectQuery) (*model.Page[model.Defect], error)
	ListAll(ctx context.Context, scope policy.Scope, q model.DefectQuery) ([]model.Defect, error)
	Update(ctx context.Context, d *model.Defect) error
	UpdateStatus(ctx context.Context, id uint64, from, to model.DefectStatus) error
	CountByStatus(ctx context.Context, scope policy.Scope) (map[model.DefectStatus]int64, error)
	IDsByProject(ctx context.Context, projectID uint64) ([]uint64, error)
	ClearExecutor(ctx context.Context, userID uint64) error
	Delete(ctx context.Context, id uint64) error
}

type DefectRepo struct {
	database.IDatabase
}

func NewDefectRepo(db database.IDatabase) IDefectRepository {
	return &DefectRepo{IDatabase: db}
}

func (r *DefectRepo) Create(ctx context.Context, d *model.Defect) error {
	return r.Database().WithContext(ctx).
		Omit("Project", "Executor", "Comments", "Attachments", "History").
		Create(d).Error
}

func (r *DefectRepo) GetByID(ctx context.Context, id uint64) (*model.Defect, error) {
	var d model.Defect
	err := r.Database().WithContext(ctx).
		Preload("Project").Preload("Executor").
		Where("id = ?", id).First(&d).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// GetDetail loads the defect with comments oldest first, attachments and
// history newest first.
func (r *DefectRepo) GetDetail(ctx context.Context, id uint64) (*model.Defect, error) {
	var d model.Defect
	err := r.Database().WithContext(ctx).
		Preload("Project").Preload("Executor").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC, id ASC")
		}).
		Preload("Comments.Author").
		Preload("Attachments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("uploaded_at ASC, id ASC")
		}).
		Preload("History", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at DESC, id DESC")
		}).
		Preload("History.ChangedBy").
		Where("id = ?", id).First(&d).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// filtered applies the visibility scope and the query filters. An empty
// scope matches nothing.
func filtered(tx *gorm.DB, scope policy.Scope, q model.DefectQuery) *gorm.DB {
	tx = tx.Model(&model.Defect{}).Joins("JOIN t_project ON t_project.id = t_defect.project_id")
	switch {
	case scope.All:
	case scope.ExecutorID != 0:
		tx = tx.Where("t_defect.executor_id = ?", scope.ExecutorID)
	default:
		tx = tx.Where("1 = 0")
	}
	if q.Status != "" {
		tx = tx.Where("t_defect.status = ?", q.Status)
	}
	if q.Priority != "" {
		tx = tx.Where("t_defect.priority = ?", q.Priority)
	}
	if q.ExecutorID != nil {
		tx = tx.Where("t_defect.executor_id = ?", *q.ExecutorID)
	}
	if q.ProjectID != nil {
		tx = tx.Where("t_defect.project_id = ?", *q.ProjectID)
	}
	if q.Search != "" {
		like := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		tx = tx.Where(
			"(LOWER(t_defect.title) LIKE ? ESCAPE '!' OR LOWER(t_defect.description) LIKE ? ESCAPE '!' OR LOWER(t_project.name) LIKE ? ESCAPE '!' OR LOWER(t_project.address) LIKE ? ESCAPE '!')",
			like, like, like, like,
		)
	}
	return tx
}

func escapeLike(s string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(s)
}

func (r *DefectRepo) List(ctx context.Context, scope policy.Scope, q model.DefectQuery) (*model.Page[model.Defect], error) {
	q.Normalize()
	page := &model.Page[model.Defect]{Items: []model.Defect{}, PageNum: q.PageNum, PageSize: q.PageSize}
	if scope.None() {
		return page, nil
	}

	read := func() *gorm.DB { return database.ReadDB(r.Database().WithContext(ctx)) }
	total, err := Count(filtered(read(), scope, q))
	if err != nil {
		return nil, err
	}
	page.Total = total
	if total == 0 {
		return page, nil
	}

	order, _ := q.OrderBy()
	err = filtered(read(), scope, q).
		Preload("Project").Preload("Executor").
		Select("t_defect.*").
		Order(order).
		Offset(offset(q.PageNum, q.PageSize)).Limit(q.PageSize).
		Find(&page.Items).Error
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ListAll returns every matching defect in query order, for exports.
func (r *DefectRepo) ListAll(ctx context.Context, scope policy.Scope, q model.DefectQuery) ([]model.Defect, error) {
	q.Normalize()
	defects := []model.Defect{}
	if scope.None() {
		return defects, nil
	}
	order, _ := q.OrderBy()
	err := filtered(database.ReadDB(r.Database().WithContext(ctx)), scope, q).
		Preload("Project").Preload("Executor").
		Select("t_defect.*").
		Order(order).
		Find(&defects).Error
	return defects, err
}

// Update writes the editable fields. Status is not among them.
func (r *DefectRepo) Update(ctx context.Context, d *model.Defect) error {
	d.UpdatedAt = time.Now()
	res := r.Database().WithContext(ctx).Model(&model.Defect{}).Where("id = ?", d.ID).
		Updates(map[string]any{
			"title":       d.Title,
			"description": d.Description,
			"priority":    d.Priority,
			"deadline":    d.Deadline,
			"project_id":  d.ProjectID,
			"executor_id": d.ExecutorID,
			"updated_at":  d.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// UpdateStatus moves the defect from -> to only if it is still in from.
// A concurrent transition makes it return ErrConflict.
func (r *DefectRepo) UpdateStatus(ctx context.Context, id uint64, from, to model.DefectStatus) error {
	res := r.Database().WithContext(ctx).Model(&model.Defect{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrConflict
	}
	return nil
}

func (r *DefectRepo) CountByStatus(ctx context.Context, scope policy.Scope) (map[model.DefectStatus]int64, error) {
	counts := make(map[model.DefectStatus]int64, len(model.Statuses))
	if scope.None() {
		return counts, nil
	}
	var rows []struct {
		Status model.DefectStatus
		Count  int64
	}
	err := filtered(database.ReadDB(r.Database().WithContext(ctx)), scope, model.DefectQuery{}).
		Select("t_defect.status AS status, COUNT(*) AS count").
		Group("t_defect.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *DefectRepo) IDsByProject(ctx context.Context, projectID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.Database().WithContext(ctx).Model(&model.Defect{}).
		Where("project_id = ?", projectID).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

func (r *DefectRepo) ClearExecutor(ctx context.Context, userID uint64) error {
	return r.Database().WithContext(ctx).Model(&model.Defect{}).
		Where("executor_id = ?", userID).
		Updates(map[string]any{"executor_id": nil, "updated_at": time.Now()}).Error
}

func (r *DefectRepo) Delete(ctx context.Context, id uint64) error {
	return r.Database().WithContext(ctx).Where("id = ?", id).Delete(&model.Defect{}).Error
}
