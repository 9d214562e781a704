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

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/pkg/database"
)

type ICommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	ListByDefect(ctx context.Context, defectID uint64) ([]model.Comment, error)
	CountByAuthor(ctx context.Context, authorID uint64) (int64, error)
	DeleteByDefect(ctx context.Context, defectID uint64) error
}

type CommentRepo struct {
	database.IDatabase
}

func NewCommentRepo(db database.IDatabase) ICommentRepository {
	return &CommentRepo{IDatabase: db}
}

func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	return r.Database().WithContext(ctx).Omit("Author").Create(c).Error
}

func (r *CommentRepo) ListByDefect(ctx context.Context, defectID uint64) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.Database().WithContext(ctx).Preload("Author").
		Where("defect_id = ?", defectID).Order("created_at ASC, id ASC").Find(&comments).Error
	return comments, err
}

func (r *CommentRepo) CountByAuthor(ctx context.Context, authorID uint64) (int64, error) {
	return Count(r.Database().WithContext(ctx).Model(&model.Comment{}).Where("author_id = ?", authorID))
}

func (r *CommentRepo) DeleteByDefect(ctx context.Context, defectID uint64) error {
	return r.Database().WithContext(ctx).Where("defect_id = ?", defectID).Delete(&model.Comment{}).Error
}

type IAttachmentRepository interface {
	Create(ctx context.Context, a *model.Attachment) error
	GetByID(ctx context.Context, defectID, id uint64) (*model.Attachment, error)
	ListByDefect(ctx context.Context, defectID uint64) ([]model.Attachment, error)
	ClearUploader(ctx context.Context, userID uint64) error
	DeleteByDefect(ctx context.Context, defectID uint64) error
}

type AttachmentRepo struct {
	database.IDatabase
}

func NewAttachmentRepo(db database.IDatabase) IAttachmentRepository {
	return &AttachmentRepo{IDatabase: db}
}

func (r *AttachmentRepo) Create(ctx context.Context, a *model.Attachment) error {
	return r.Database().WithContext(ctx).Create(a).Error
}

func (r *AttachmentRepo) GetByID(ctx context.Context, defectID, id uint64) (*model.Attachment, error) {
	var a model.Attachment
	err := r.Database().WithContext(ctx).Where("id = ? AND defect_id = ?", id, defectID).First(&a).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *AttachmentRepo) ListByDefect(ctx context.Context, defectID uint64) ([]model.Attachment, error) {
	var attachments []model.Attachment
	err := r.Database().WithContext(ctx).Where("defect_id = ?", defectID).Order("uploaded_at ASC, id ASC").Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepo) ClearUploader(ctx context.Context, userID uint64) error {
	return r.Database().WithContext(ctx).Model(&model.Attachment{}).
		Where("uploaded_by = ?", userID).Update("uploaded_by", nil).Error
}

func (r *AttachmentRepo) DeleteByDefect(ctx context.Context, defectID uint64) error {
	return r.Database().WithContext(ctx).Where("defect_id = ?", defectID).Delete(&model.Attachment{}).Error
}

// IHistoryRepository is the persistent store behind history.Recorder.
type IHistoryRepository interface {
	AppendHistory(ctx context.Context, h *model.History) error
	ListByDefect(ctx context.Context, defectID uint64) ([]model.History, error)
	ClearChangedBy(ctx context.Context, userID uint64) error
	DeleteByDefect(ctx context.Context, defectID uint64) error
}

type HistoryRepo struct {
	database.IDatabase
}

func NewHistoryRepo(db database.IDatabase) IHistoryRepository {
	return &HistoryRepo{IDatabase: db}
}

func (r *HistoryRepo) AppendHistory(ctx context.Context, h *model.History) error {
	return r.Database().WithContext(ctx).Omit("ChangedBy").Create(h).Error
}

// ListByDefect returns entries newest first.
func (r *HistoryRepo) ListByDefect(ctx context.Context, defectID uint64) ([]model.History, error) {
	var entries []model.History
	err := r.Database().WithContext(ctx).Preload("ChangedBy").
		Where("defect_id = ?", defectID).Order("created_at DESC, id DESC").Find(&entries).Error
	return entries, err
}

func (r *HistoryRepo) ClearChangedBy(ctx context.Context, userID uint64) error {
	return r.Database().WithContext(ctx).Model(&model.History{}).
		Where("changed_by = ?", userID).Update("changed_by", nil).Error
}

func (r *HistoryRepo) DeleteByDefect(ctx context.Context, defectID uint64) error {
	return r.Database().WithContext(ctx).Where("defect_id = ?", defectID).Delete(&model.History{}).Error
}
