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
	"errors"

	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/pkg/database"
)

var ProviderSet = wire.NewSet(NewRepositories)

// Repositories groups every repository over one connection or transaction.
type Repositories struct {
	db database.IDatabase

	User       IUserRepository
	Project    IProjectRepository
	Defect     IDefectRepository
	Comment    ICommentRepository
	Attachment IAttachmentRepository
	History    IHistoryRepository
}

func NewRepositories(db database.IDatabase) *Repositories {
	return &Repositories{
		db:         db,
		User:       NewUserRepo(db),
		Project:    NewProjectRepo(db),
		Defect:     NewDefectRepo(db),
		Comment:    NewCommentRepo(db),
		Attachment: NewAttachmentRepo(db),
		History:    NewHistoryRepo(db),
	}
}

// WithTx runs fn against repositories bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
// Code inside fn must use tx only.
func (r *Repositories) WithTx(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(database.NewGormDB(tx, r.db.Type())))
	})
}

// DeleteDefect removes a defect and everything it owns, children first:
// history, comments, attachments, then the defect row. It returns the
// deleted attachments so the caller can drop their blobs after commit.
func (r *Repositories) DeleteDefect(ctx context.Context, id uint64) ([]model.Attachment, error) {
	var removed []model.Attachment
	err := r.WithTx(ctx, func(tx *Repositories) error {
		var err error
		removed, err = tx.deleteDefect(ctx, id)
		return err
	})
	return removed, err
}

func (r *Repositories) deleteDefect(ctx context.Context, id uint64) ([]model.Attachment, error) {
	if _, err := r.Defect.GetByID(ctx, id); err != nil {
		return nil, err
	}
	attachments, err := r.Attachment.ListByDefect(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.History.DeleteByDefect(ctx, id); err != nil {
		return nil, err
	}
	if err := r.Comment.DeleteByDefect(ctx, id); err != nil {
		return nil, err
	}
	if err := r.Attachment.DeleteByDefect(ctx, id); err != nil {
		return nil, err
	}
	if err := r.Defect.Delete(ctx, id); err != nil {
		return nil, err
	}
	return attachments, nil
}

// DeleteProject removes a project, each of its defects through the defect
// cascade, then its stages, in one transaction.
func (r *Repositories) DeleteProject(ctx context.Context, id uint64) ([]model.Attachment, error) {
	var removed []model.Attachment
	err := r.WithTx(ctx, func(tx *Repositories) error {
		if _, err := tx.Project.GetByID(ctx, id); err != nil {
			return err
		}
		ids, err := tx.Defect.IDsByProject(ctx, id)
		if err != nil {
			return err
		}
		for _, defectID := range ids {
			attachments, err := tx.deleteDefect(ctx, defectID)
			if err != nil {
				return err
			}
			removed = append(removed, attachments...)
		}
		if err := tx.Project.DeleteStages(ctx, id); err != nil {
			return err
		}
		return tx.Project.Delete(ctx, id)
	})
	return removed, err
}

// DeleteUser detaches a user from defects, attachments and history, then
// removes the account. A user who authored comments cannot be removed.
func (r *Repositories) DeleteUser(ctx context.Context, id uint64) error {
	return r.WithTx(ctx, func(tx *Repositories) error {
		if _, err := tx.User.GetByID(ctx, id); err != nil {
			return err
		}
		n, err := tx.Comment.CountByAuthor(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return model.NewValidationError("user", "user has authored comments and cannot be removed")
		}
		if err := tx.Defect.ClearExecutor(ctx, id); err != nil {
			return err
		}
		if err := tx.Attachment.ClearUploader(ctx, id); err != nil {
			return err
		}
		if err := tx.History.ClearChangedBy(ctx, id); err != nil {
			return err
		}
		return tx.User.Delete(ctx, id)
	})
}

// notFound maps gorm's sentinel to the domain one.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrNotFound
	}
	return err
}

func Count(tx *gorm.DB) (int64, error) {
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func offset(pageNum, pageSize int) int {
	return (pageNum - 1) * pageSize
}
