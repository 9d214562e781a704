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

import (
	"time"

	"gorm.io/datatypes"
)

// History is one immutable audit entry. ID doubles as the insertion sequence
// and breaks created_at ties.
type History struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DefectID    uint64         `gorm:"column:defect_id;index" json:"defectId"`
	ChangedByID *uint64        `gorm:"column:changed_by" json:"changedById,omitempty"` // nil once the user is removed
	Action      HistoryAction  `gorm:"column:action" json:"action"`
	Changes     datatypes.JSON `gorm:"column:changes" json:"changes"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"createdAt"`

	ChangedBy *User `gorm:"foreignKey:ChangedByID" json:"changedBy,omitempty"`
}

func (History) TableName() string {
	return "t_defect_history"
}
