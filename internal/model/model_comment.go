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

package model

import "time"

// Comment is append-only. Its author cannot be removed while it exists.
type Comment struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DefectID  uint64    `gorm:"column:defect_id;index" json:"defectId"`
	AuthorID  uint64    `gorm:"column:author_id;index" json:"authorId"`
	Text      string    `gorm:"column:text" json:"text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Comment) TableName() string {
	return "t_defect_comment"
}

// Attachment points at a blob owned by the storage backend.
type Attachment struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DefectID   uint64    `gorm:"column:defect_id;index" json:"defectId"`
	Name       string    `gorm:"column:name" json:"name"`
	ObjectKey  string    `gorm:"column:object_key" json:"-"`
	Size       int64     `gorm:"column:size" json:"size"`
	MimeType   string    `gorm:"column:mime_type" json:"mimeType"`
	UploadedBy *uint64   `gorm:"column:uploaded_by" json:"uploadedBy,omitempty"`
	UploadedAt time.Time `gorm:"column:uploaded_at;autoCreateTime" json:"uploadedAt"`
}

func (Attachment) TableName() string {
	return "t_defect_attachment"
}
