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
	"strings"
	"time"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
	"github.com/sistemakontrol/kontrol/internal/repo"
	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/storage"
)

type ProjectService struct {
	repos     *repo.Repositories
	storage   storage.StorageProvider
	analytics *AnalyticsService
	metrics   *metrics.Kontrol
}

func NewProjectService(repos *repo.Repositories, sp storage.StorageProvider, analytics *AnalyticsService, m *metrics.Kontrol) *ProjectService {
	return &ProjectService{repos: repos, storage: sp, analytics: analytics, metrics: m}
}

func (ps *ProjectService) List(ctx context.Context, actor *policy.Actor) ([]model.Project, error) {
	if !policy.CanViewProjects(actor) {
		return nil, model.ErrUnauthenticated
	}
	projects, err := ps.repos.Project.List(ctx)
	if err != nil {
		log.Errorw("list projects failed", "error", err)
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Get returns the project with its stages in display order.
func (ps *ProjectService) Get(ctx context.Context, actor *policy.Actor, id uint64) (*model.Project, error) {
	if !policy.CanViewProjects(actor) {
		return nil, model.ErrUnauthenticated
	}
	return ps.repos.Project.GetWithStages(ctx, id)
}

func (ps *ProjectService) Create(ctx context.Context, actor *policy.Actor, req *model.ProjectReq) (*model.Project, error) {
	if err := ps.canManage(actor, "create_project"); err != nil {
		return nil, err
	}
	p := &model.Project{}
	if err := applyProjectReq(p, req); err != nil {
		return nil, err
	}
	if err := ps.repos.Project.Create(ctx, p); err != nil {
		log.Errorw("create project failed", "name", p.Name, "error", err)
		return nil, fmt.Errorf("create project: %w", err)
	}
	log.Infow("project created", "projectId", p.ID, "userId", actor.UserID)
	return p, nil
}

// Update replaces the project fields. The end date cannot move before the
// deadline of any defect already in the project.
func (ps *ProjectService) Update(ctx context.Context, actor *policy.Actor, id uint64, req *model.ProjectReq) (*model.Project, error) {
	if err := ps.canManage(actor, "update_project"); err != nil {
		return nil, err
	}
	var p *model.Project
	err := ps.repos.WithTx(ctx, func(tx *repo.Repositories) error {
		var err error
		if p, err = tx.Project.GetByID(ctx, id); err != nil {
			return err
		}
		if err := applyProjectReq(p, req); err != nil {
			return err
		}
		if p.EndDate != nil {
			latest, err := tx.Project.LatestDefectDeadline(ctx, id)
			if err != nil {
				return fmt.Errorf("latest defect deadline: %w", err)
			}
			if latest != nil && !p.AllowsDeadline(*latest) {
				return model.NewValidationError("endDate",
					fmt.Sprintf("project has a defect due %s, after the new end date", model.FormatDate(latest)))
			}
		}
		return tx.Project.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the project with its defects and stages, then drops the
// blobs of every removed attachment.
func (ps *ProjectService) Delete(ctx context.Context, actor *policy.Actor, id uint64) error {
	if err := authenticated(actor); err != nil {
		return err
	}
	if !policy.CanDeleteProject(actor) {
		return ps.deny("delete_project")
	}
	removed, err := ps.repos.DeleteProject(ctx, id)
	if err != nil {
		return err
	}
	removeBlobs(ctx, ps.storage, removed)
	ps.analytics.Invalidate(ctx)
	log.Infow("project deleted", "projectId", id, "userId", actor.UserID, "attachments", len(removed))
	return nil
}

func (ps *ProjectService) ListStages(ctx context.Context, actor *policy.Actor, projectID uint64) ([]model.ProjectStage, error) {
	if !policy.CanViewProjects(actor) {
		return nil, model.ErrUnauthenticated
	}
	if _, err := ps.repos.Project.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return ps.repos.Project.ListStages(ctx, projectID)
}

func (ps *ProjectService) CreateStage(ctx context.Context, actor *policy.Actor, projectID uint64, req *model.StageReq) (*model.ProjectStage, error) {
	if err := ps.canManage(actor, "create_stage"); err != nil {
		return nil, err
	}
	if _, err := ps.repos.Project.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	s := &model.ProjectStage{ProjectID: projectID}
	if err := applyStageReq(s, req); err != nil {
		return nil, err
	}
	if err := ps.repos.Project.CreateStage(ctx, s); err != nil {
		log.Errorw("create stage failed", "projectId", projectID, "error", err)
		return nil, fmt.Errorf("create stage: %w", err)
	}
	return s, nil
}

func (ps *ProjectService) UpdateStage(ctx context.Context, actor *policy.Actor, projectID, stageID uint64, req *model.StageReq) (*model.ProjectStage, error) {
	if err := ps.canManage(actor, "update_stage"); err != nil {
		return nil, err
	}
	s, err := ps.repos.Project.GetStage(ctx, projectID, stageID)
	if err != nil {
		return nil, err
	}
	if err := applyStageReq(s, req); err != nil {
		return nil, err
	}
	if err := ps.repos.Project.UpdateStage(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (ps *ProjectService) DeleteStage(ctx context.Context, actor *policy.Actor, projectID, stageID uint64) error {
	if err := ps.canManage(actor, "delete_stage"); err != nil {
		return err
	}
	return ps.repos.Project.DeleteStage(ctx, projectID, stageID)
}

func (ps *ProjectService) canManage(actor *policy.Actor, action string) error {
	if err := authenticated(actor); err != nil {
		return err
	}
	if !policy.CanManageProjects(actor) {
		return ps.deny(action)
	}
	return nil
}

func (ps *ProjectService) deny(action string) error {
	ps.metrics.ObserveDenied(action)
	return fmt.Errorf("%w: %s", model.ErrForbidden, action)
}

func applyProjectReq(p *model.Project, req *model.ProjectReq) error {
	verr := &model.ValidationError{}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr.Add("name", "required")
	}
	start, err := model.ParseDate(strings.TrimSpace(req.StartDate))
	if err != nil {
		verr.Add("startDate", "expected a date as YYYY-MM-DD")
	}
	end, endErr := parseOptionalDate(req.EndDate)
	if endErr != nil {
		verr.Add("endDate", "expected a date as YYYY-MM-DD")
	}
	if err == nil && endErr == nil && end != nil && end.Before(start) {
		verr.Add("endDate", "must not be before the start date")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	p.Name = name
	p.Address = strings.TrimSpace(req.Address)
	p.StartDate = start
	p.EndDate = end
	return nil
}

func applyStageReq(s *model.ProjectStage, req *model.StageReq) error {
	verr := &model.ValidationError{}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr.Add("name", "required")
	}
	start, startErr := parseOptionalDate(req.StartDate)
	if startErr != nil {
		verr.Add("startDate", "expected a date as YYYY-MM-DD")
	}
	end, endErr := parseOptionalDate(req.EndDate)
	if endErr != nil {
		verr.Add("endDate", "expected a date as YYYY-MM-DD")
	}
	if start != nil && end != nil && end.Before(*start) {
		verr.Add("endDate", "must not be before the start date")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	s.Name = name
	s.StartDate = start
	s.EndDate = end
	s.Order = req.Order
	return nil
}

// parseOptionalDate treats nil and blank as no date.
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := model.ParseDate(strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// removeBlobs deletes the stored files of removed attachments. The rows
// are already gone, so failures are logged and left for manual cleanup.
func removeBlobs(ctx context.Context, sp storage.StorageProvider, attachments []model.Attachment) {
	for _, a := range attachments {
		if err := sp.Delete(ctx, a.ObjectKey); err != nil {
			log.Warnw("failed to remove attachment blob", "attachmentId", a.ID, "key", a.ObjectKey, "error", err)
		}
	}
}
