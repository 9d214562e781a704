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

package history

import (
	"github.com/sistemakontrol/kontrol/internal/model"
)

// Change is one field's before and after value in display form. From is
// nil for created entries and for single-value actions.
type Change struct {
	From *string `json:"from,omitempty"`
	To   string  `json:"to"`
}

// Diff maps a field name to its change.
type Diff map[string]Change

// Diff keys.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldPriority    = "priority"
	FieldStatus      = "status"
	FieldDeadline    = "deadline"
	FieldProject     = "project"
	FieldExecutor    = "executor"
	FieldComment     = "comment"
	FieldFile        = "file"
)

// Snapshot is a defect rendered for the audit trail.
type Snapshot struct {
	Title       string
	Description string
	Priority    string
	Status      string
	Deadline    string
	Project     string
	Executor    string
}

// SnapshotOf renders d with labels. Project and Executor must be preloaded
// for their names to appear.
func SnapshotOf(d *model.Defect, labels model.Labels) Snapshot {
	s := Snapshot{
		Title:       d.Title,
		Description: d.Description,
		Priority:    labels.Priority(d.Priority),
		Status:      labels.Status(d.Status),
		Deadline:    model.FormatDate(d.Deadline),
	}
	if d.Project != nil {
		s.Project = d.Project.Name
	}
	if d.Executor != nil {
		s.Executor = d.Executor.Username
	}
	return s
}

// CreatedDiff lists the initial values of a new defect.
func CreatedDiff(s Snapshot) Diff {
	return Diff{
		FieldTitle:    {To: s.Title},
		FieldProject:  {To: s.Project},
		FieldPriority: {To: s.Priority},
		FieldStatus:   {To: s.Status},
		FieldDeadline: {To: s.Deadline},
		FieldExecutor: {To: s.Executor},
	}
}

// UpdatedDiff keeps only the editable fields that changed. Status is not
// editable here; it changes through transitions.
func UpdatedDiff(before, after Snapshot) Diff {
	d := Diff{}
	add := func(field, from, to string) {
		if from != to {
			d[field] = Change{From: &from, To: to}
		}
	}
	add(FieldTitle, before.Title, after.Title)
	add(FieldDescription, before.Description, after.Description)
	add(FieldPriority, before.Priority, after.Priority)
	add(FieldDeadline, before.Deadline, after.Deadline)
	add(FieldProject, before.Project, after.Project)
	add(FieldExecutor, before.Executor, after.Executor)
	return d
}

// StatusDiff records a transition with display labels.
func StatusDiff(from, to model.DefectStatus, labels model.Labels) Diff {
	f := labels.Status(from)
	return Diff{FieldStatus: {From: &f, To: labels.Status(to)}}
}

func CommentDiff(text string) Diff {
	return Diff{FieldComment: {To: text}}
}

func AttachmentDiff(name string) Diff {
	return Diff{FieldFile: {To: name}}
}
