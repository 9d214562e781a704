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

// Defect is a construction defect tracked through the status workflow.
// Status changes go through workflow.ApplyTransition only.
type Defect struct {
	BaseModel
	Title       string       `gorm:"column:title" json:"title"`
	Description string       `gorm:"column:description" json:"description"`
	Priority    Priority     `gorm:"column:priority" json:"priority"`
	Status      DefectStatus `gorm:"column:status;index" json:"status"`
	Deadline    *time.Time   `gorm:"column:deadline;type:date" json:"deadline,omitempty"`
	ExecutorID  *uint64      `gorm:"column:executor_id;index" json:"executorId,omitempty"`
	ProjectID   uint64       `gorm:"column:project_id;index" json:"projectId"`

	Project     *Project     `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Executor    *User        `gorm:"foreignKey:ExecutorID" json:"executor,omitempty"`
	Comments    []Comment    `gorm:"foreignKey:DefectID" json:"comments,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:DefectID" json:"attachments,omitempty"`
	History     []History    `gorm:"foreignKey:DefectID" json:"history,omitempty"`
}

func (Defect) TableName() string {
	return "t_defect"
}

// IsExecutor reports whether userID is the assigned executor.
func (d *Defect) IsExecutor(userID uint64) bool {
	return d.ExecutorID != nil && userID != 0 && *d.ExecutorID == userID
}

// DefectReq is the create and update payload. On update, nil fields are left unchanged.
type DefectReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Deadline    *string `json:"deadline"`
	ProjectID   *uint64 `json:"projectId"`
	ExecutorID  *uint64 `json:"executorId"`
}

type StatusReq struct {
	Status string `json:"status"`
}

type CommentReq struct {
	Text string `json:"text"`
}

// DefectDetail is a defect together with what the viewing actor may do with it.
type DefectDetail struct {
	*Defect
	NextStatuses []DefectStatus `json:"nextStatuses"`
	CanEdit      bool           `json:"canEdit"`
	CanAttach    bool           `json:"canAttach"`
	CanDelete    bool           `json:"canDelete"`
}

// StatusCount is one analytics bucket.
type StatusCount struct {
	Status DefectStatus `json:"status"`
	Label  string       `json:"label"`
	Count  int64        `json:"count"`
}
