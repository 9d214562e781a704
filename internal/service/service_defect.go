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
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/sistemakontrol/kontrol/internal/history"
	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
	"github.com/sistemakontrol/kontrol/internal/repo"
	"github.com/sistemakontrol/kontrol/internal/workflow"
	"github.com/sistemakontrol/kontrol/pkg/id"
	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/storage"
)

const maxTitleLen = 255

type DefectService struct {
	repos     *repo.Repositories
	recorder  *history.Recorder
	storage   storage.StorageProvider
	analytics *AnalyticsService
	metrics   *metrics.Kontrol
	// labels render the history diffs; entries keep the language they were written in
	labels model.Labels
}

func NewDefectService(
	repos *repo.Repositories,
	recorder *history.Recorder,
	sp storage.StorageProvider,
	analytics *AnalyticsService,
	m *metrics.Kontrol,
	labels model.Labels,
) *DefectService {
	return &DefectService{
		repos:     repos,
		recorder:  recorder,
		storage:   sp,
		analytics: analytics,
		metrics:   m,
		labels:    labels,
	}
}

// List returns one page of the defects the actor can see. Filtering by
// executor needs the right to do so; it is refused, not ignored.
func (ds *DefectService) List(ctx context.Context, actor *policy.Actor, q model.DefectQuery) (*model.Page[model.Defect], error) {
	scope, err := ds.listScope(actor, q)
	if err != nil {
		return nil, err
	}
	page, err := ds.repos.Defect.List(ctx, scope, q)
	if err != nil {
		log.Errorw("list defects failed", "userId", actor.UserID, "error", err)
		return nil, fmt.Errorf("list defects: %w", err)
	}
	return page, nil
}

// ListAll is List without paging, for exports.
func (ds *DefectService) ListAll(ctx context.Context, actor *policy.Actor, q model.DefectQuery) ([]model.Defect, error) {
	scope, err := ds.listScope(actor, q)
	if err != nil {
		return nil, err
	}
	defects, err := ds.repos.Defect.ListAll(ctx, scope, q)
	if err != nil {
		log.Errorw("list defects failed", "userId", actor.UserID, "error", err)
		return nil, fmt.Errorf("list defects: %w", err)
	}
	return defects, nil
}

func (ds *DefectService) listScope(actor *policy.Actor, q model.DefectQuery) (policy.Scope, error) {
	if err := authenticated(actor); err != nil {
		return policy.Scope{}, err
	}
	if q.ExecutorID != nil && !policy.CanFilterByExecutor(actor) {
		return policy.Scope{}, ds.deny("filter_executor")
	}
	return policy.Visibility(actor), nil
}

// Get returns the defect with comments, attachments and history, plus what
// the actor may do next.
func (ds *DefectService) Get(ctx context.Context, actor *policy.Actor, defectID uint64) (*model.DefectDetail, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	d, err := ds.repos.Defect.GetDetail(ctx, defectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(d, actor) {
		return nil, model.ErrNotFound
	}
	return ds.detail(d, actor), nil
}

func (ds *DefectService) detail(d *model.Defect, actor *policy.Actor) *model.DefectDetail {
	return &model.DefectDetail{
		Defect:       d,
		NextStatuses: workflow.AllowedNextStatuses(d, actor),
		CanEdit:      policy.CanEdit(d, actor),
		CanAttach:    policy.CanAttach(d, actor),
		CanDelete:    policy.CanDeleteDefect(actor),
	}
}

// Create stores a new defect in status new and records its initial values.
// Engineers always become the executor.
func (ds *DefectService) Create(ctx context.Context, actor *policy.Actor, req *model.DefectReq) (*model.Defect, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	if !policy.CanCreateDefect(actor) {
		return nil, ds.deny("create_defect")
	}

	d := &model.Defect{Status: model.StatusNew, Priority: model.PriorityMedium}
	verr := &model.ValidationError{}
	if req.Title == nil {
		verr.Add("title", "required")
	}
	if req.ProjectID == nil || *req.ProjectID == 0 {
		verr.Add("projectId", "required")
	}
	if req.Deadline == nil {
		verr.Add("deadline", "required")
	}
	applyDefectFields(d, req, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	d.ProjectID = *req.ProjectID
	d.ExecutorID = normalizeExecutor(policy.EffectiveExecutor(actor, req.ExecutorID))

	var entry *model.History
	err := ds.repos.WithTx(ctx, func(tx *repo.Repositories) error {
		if err := ds.resolveRefs(ctx, tx, d); err != nil {
			return err
		}
		if err := tx.Defect.Create(ctx, d); err != nil {
			return fmt.Errorf("create defect: %w", err)
		}
		var err error
		entry, err = ds.recorder.WithStore(tx.History).Record(ctx, d, actor, model.ActionCreated,
			history.CreatedDiff(history.SnapshotOf(d, ds.labels)))
		return err
	})
	if err != nil {
		ds.logFailure("create defect failed", actor, 0, err)
		return nil, err
	}
	ds.committed(entry)
	ds.analytics.Invalidate(ctx)
	log.Infow("defect created", "defectId", d.ID, "projectId", d.ProjectID, "userId", actor.UserID)
	return d, nil
}

// Update applies the fields present in req and records what changed. An
// update that changes nothing writes no history.
func (ds *DefectService) Update(ctx context.Context, actor *policy.Actor, defectID uint64, req *model.DefectReq) (*model.Defect, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	var (
		d     *model.Defect
		entry *model.History
	)
	err := ds.repos.WithTx(ctx, func(tx *repo.Repositories) error {
		var err error
		if d, err = ds.visible(ctx, tx, actor, defectID); err != nil {
			return err
		}
		if !policy.CanEdit(d, actor) {
			return ds.deny("update_defect")
		}
		before := history.SnapshotOf(d, ds.labels)

		if req.ExecutorID != nil {
			next := normalizeExecutor(req.ExecutorID)
			if !sameExecutor(next, d.ExecutorID) {
				if !policy.CanReassignExecutor(actor) {
					return ds.deny("reassign_executor")
				}
				d.ExecutorID = next
			}
		}
		verr := &model.ValidationError{}
		applyDefectFields(d, req, verr)
		if req.ProjectID != nil {
			if *req.ProjectID == 0 {
				verr.Add("projectId", "required")
			} else {
				d.ProjectID = *req.ProjectID
			}
		}
		if err := verr.OrNil(); err != nil {
			return err
		}
		if err := ds.resolveRefs(ctx, tx, d); err != nil {
			return err
		}
		if err := tx.Defect.Update(ctx, d); err != nil {
			return err
		}
		entry, err = ds.recorder.WithStore(tx.History).Record(ctx, d, actor, model.ActionUpdated,
			history.UpdatedDiff(before, history.SnapshotOf(d, ds.labels)))
		return err
	})
	if err != nil {
		ds.logFailure("update defect failed", actor, defectID, err)
		return nil, err
	}
	ds.committed(entry)
	return d, nil
}

// Transition moves the defect one hop along the workflow. The status write
// is conditional on the status read, so a concurrent transition makes this
// one fail with ErrConflict and leaves no history behind.
func (ds *DefectService) Transition(ctx context.Context, actor *policy.Actor, defectID uint64, target string) (*model.Defect, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	to, err := model.ParseStatus(strings.TrimSpace(target))
	if err != nil {
		return nil, err
	}

	var (
		d     *model.Defect
		prior model.DefectStatus
		entry *model.History
	)
	err = ds.repos.WithTx(ctx, func(tx *repo.Repositories) error {
		var err error
		if d, err = ds.visible(ctx, tx, actor, defectID); err != nil {
			return err
		}
		if prior, err = workflow.ApplyTransition(d, to, actor); err != nil {
			ds.metrics.ObserveDenied("transition")
			return err
		}
		if err := tx.Defect.UpdateStatus(ctx, d.ID, prior, to); err != nil {
			return err
		}
		entry, err = ds.recorder.WithStore(tx.History).Record(ctx, d, actor, model.ActionStatusChanged,
			history.StatusDiff(prior, to, ds.labels))
		return err
	})
	if err != nil {
		ds.logFailure("transition failed", actor, defectID, err)
		return nil, err
	}
	ds.committed(entry)
	ds.metrics.ObserveTransition(string(prior), string(to), string(actor.Role))
	ds.analytics.Invalidate(ctx)
	log.Infow("defect status changed", "defectId", d.ID, "from", prior, "to", to, "userId", actor.UserID)
	return d, nil
}

// AddComment appends a comment. Anyone who can view the defect may comment.
func (ds *DefectService) AddComment(ctx context.Context, actor *policy.Actor, defectID uint64, text string) (*model.Comment, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.NewValidationError("text", "required")
	}

	c := &model.Comment{DefectID: defectID, AuthorID: actor.UserID, Text: text}
	var entry *model.History
	err := ds.repos.WithTx(ctx, func(tx *repo.Repositories) error {
		d, err := ds.visible(ctx, tx, actor, defectID)
		if err != nil {
			return err
		}
		if !policy.CanComment(d, actor) {
			return ds.deny("comment")
		}
		if err := tx.Comment.Create(ctx, c); err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		entry, err = ds.recorder.WithStore(tx.History).Record(ctx, d, actor, model.ActionCommentAdded, history.CommentDiff(text))
		return err
	})
	if err != nil {
		ds.logFailure("add comment failed", actor, defectID, err)
		return nil, err
	}
	ds.committed(entry)
	return c, nil
}

// Upload is an attachment file received from a client.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Attach stores the blob first, then the row and its history in one
// transaction. A failed transaction removes the blob again.
func (ds *DefectService) Attach(ctx context.Context, actor *policy.Actor, defectID uint64, up Upload) (*model.Attachment, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	name := cleanFilename(up.Name)
	if name == "" {
		return nil, model.NewValidationError("file", "required")
	}
	d, err := ds.visible(ctx, ds.repos, actor, defectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAttach(d, actor) {
		return nil, ds.deny("attach")
	}

	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("attachments/defect_%d/%s_%s", defectID, id.GetUlid(), name)
	if err := ds.storage.Put(ctx, key, up.Body, up.Size, contentType); err != nil {
		log.Errorw("store attachment failed", "defectId", defectID, "key", key, "error", err)
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	uploader := actor.UserID
	a := &model.Attachment{
		DefectID:   defectID,
		Name:       name,
		ObjectKey:  key,
		Size:       up.Size,
		MimeType:   contentType,
		UploadedBy: &uploader,
	}
	var entry *model.History
	err = ds.repos.WithTx(ctx, func(tx *repo.Repositories) error {
		if err := tx.Attachment.Create(ctx, a); err != nil {
			return fmt.Errorf("create attachment: %w", err)
		}
		var err error
		entry, err = ds.recorder.WithStore(tx.History).Record(ctx, d, actor, model.ActionAttachmentAdded, history.AttachmentDiff(name))
		return err
	})
	if err != nil {
		ds.logFailure("attach failed", actor, defectID, err)
		if derr := ds.storage.Delete(ctx, key); derr != nil {
			log.Warnw("failed to remove orphaned blob", "key", key, "error", derr)
		}
		return nil, err
	}
	ds.committed(entry)
	return a, nil
}

// Download opens an attachment of a defect the actor can view. The caller
// closes the reader.
func (ds *DefectService) Download(ctx context.Context, actor *policy.Actor, defectID, attachmentID uint64) (*model.Attachment, io.ReadCloser, error) {
	if err := authenticated(actor); err != nil {
		return nil, nil, err
	}
	if _, err := ds.visible(ctx, ds.repos, actor, defectID); err != nil {
		return nil, nil, err
	}
	a, err := ds.repos.Attachment.GetByID(ctx, defectID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := ds.storage.Get(ctx, a.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			log.Warnw("attachment blob missing", "attachmentId", a.ID, "key", a.ObjectKey)
			return nil, nil, model.ErrNotFound
		}
		return nil, nil, fmt.Errorf("open attachment: %w", err)
	}
	return a, rc, nil
}

// Delete removes the defect with its comments, attachments and history.
// The role is checked before existence.
func (ds *DefectService) Delete(ctx context.Context, actor *policy.Actor, defectID uint64) error {
	if err := authenticated(actor); err != nil {
		return err
	}
	if !policy.CanDeleteDefect(actor) {
		return ds.deny("delete_defect")
	}
	removed, err := ds.repos.DeleteDefect(ctx, defectID)
	if err != nil {
		ds.logFailure("delete defect failed", actor, defectID, err)
		return err
	}
	removeBlobs(ctx, ds.storage, removed)
	ds.analytics.Invalidate(ctx)
	log.Infow("defect deleted", "defectId", defectID, "userId", actor.UserID)
	return nil
}

// visible loads the defect, hiding it behind ErrNotFound when the actor
// cannot view it.
func (ds *DefectService) visible(ctx context.Context, r *repo.Repositories, actor *policy.Actor, defectID uint64) (*model.Defect, error) {
	d, err := r.Defect.GetByID(ctx, defectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(d, actor) {
		return nil, model.ErrNotFound
	}
	return d, nil
}

// resolveRefs loads the project and executor of d, rejecting unknown ones
// and a deadline past the project end.
func (ds *DefectService) resolveRefs(ctx context.Context, tx *repo.Repositories, d *model.Defect) error {
	verr := &model.ValidationError{}

	p, err := tx.Project.GetByID(ctx, d.ProjectID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		verr.Add("projectId", "unknown project")
	case err != nil:
		return fmt.Errorf("load project: %w", err)
	default:
		d.Project = p
		if d.Deadline != nil && !p.AllowsDeadline(*d.Deadline) {
			verr.Add("deadline", "must not be after the project end date "+model.FormatDate(p.EndDate))
		}
	}

	d.Executor = nil
	if d.ExecutorID != nil {
		u, err := tx.User.GetByID(ctx, *d.ExecutorID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			verr.Add("executorId", "unknown user")
		case err != nil:
			return fmt.Errorf("load executor: %w", err)
		case u.IsEnabled != 1:
			verr.Add("executorId", "user is disabled")
		default:
			d.Executor = u
		}
	}
	return verr.OrNil()
}

// committed counts a history entry once its transaction has committed.
func (ds *DefectService) committed(entry *model.History) {
	if entry != nil {
		ds.metrics.ObserveHistory(string(entry.Action))
	}
}

func (ds *DefectService) deny(action string) error {
	ds.metrics.ObserveDenied(action)
	return fmt.Errorf("%w: %s", model.ErrForbidden, action)
}

// logFailure logs only what the client cannot fix.
func (ds *DefectService) logFailure(msg string, actor *policy.Actor, defectID uint64, err error) {
	for _, expected := range []error{model.ErrForbidden, model.ErrNotFound, model.ErrValidationFailed, model.ErrConflict} {
		if errors.Is(err, expected) {
			log.Debugw(msg, "defectId", defectID, "userId", actor.UserID, "error", err)
			return
		}
	}
	log.Errorw(msg, "defectId", defectID, "userId", actor.UserID, "error", err)
}

// applyDefectFields copies the plain fields present in req onto d.
func applyDefectFields(d *model.Defect, req *model.DefectReq, verr *model.ValidationError) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		switch {
		case title == "":
			verr.Add("title", "required")
		case utf8.RuneCountInString(title) > maxTitleLen:
			verr.Add("title", fmt.Sprintf("must be at most %d characters", maxTitleLen))
		default:
			d.Title = title
		}
	}
	if req.Description != nil {
		d.Description = strings.TrimSpace(*req.Description)
	}
	if req.Priority != nil {
		p, err := model.ParsePriority(strings.TrimSpace(*req.Priority))
		if err != nil {
			verr.Add("priority", fmt.Sprintf("unknown priority %q", *req.Priority))
		} else {
			d.Priority = p
		}
	}
	if req.Deadline != nil {
		t, err := model.ParseDate(strings.TrimSpace(*req.Deadline))
		if err != nil {
			verr.Add("deadline", "expected a date as YYYY-MM-DD")
		} else {
			d.Deadline = &t
		}
	}
}

// normalizeExecutor maps an explicit zero to no executor.
func normalizeExecutor(p *uint64) *uint64 {
	if p == nil || *p == 0 {
		return nil
	}
	v := *p
	return &v
}

func sameExecutor(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// cleanFilename keeps the base name of an uploaded file.
func cleanFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
