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

// Project is a construction site. Defects and stages belong to it.
type Project struct {
	BaseModel
	Name      string     `gorm:"column:name" json:"name"`
	Address   string     `gorm:"column:address" json:"address"`
	StartDate time.Time  `gorm:"column:start_date;type:date" json:"startDate"`
	EndDate   *time.Time `gorm:"column:end_date;type:date" json:"endDate,omitempty"` // open-ended when nil

	Stages []ProjectStage `gorm:"foreignKey:ProjectID" json:"stages,omitempty"`
}

func (Project) TableName() string {
	return "t_project"
}

// AllowsDeadline reports whether a defect deadline fits within the project.
func (p *Project) AllowsDeadline(deadline time.Time) bool {
	if p.EndDate == nil {
		return true
	}
	return !DateOf(deadline).After(DateOf(*p.EndDate))
}

// ProjectStage is a phase of a project. Display order is (order, start date, id).
type ProjectStage struct {
	BaseModel
	ProjectID uint64     `gorm:"column:project_id;index" json:"projectId"`
	Name      string     `gorm:"column:name" json:"name"`
	StartDate *time.Time `gorm:"column:start_date;type:date" json:"startDate,omitempty"`
	EndDate   *time.Time `gorm:"column:end_date;type:date" json:"endDate,omitempty"`
	Order     int        `gorm:"column:sort_order" json:"order"`
}

func (ProjectStage) TableName() string {
	return "t_project_stage"
}

type ProjectReq struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	StartDate string  `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

type StageReq struct {
	Name      string  `json:"name"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	Order     int     `json:"order"`
}
