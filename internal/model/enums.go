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

import "fmt"

// Role is the closed set of user roles.
type Role string

const (
	RoleEngineer Role = "engineer"
	RoleManager  Role = "manager"
	RoleCustomer Role = "customer"
)

// Roles lists every role in display order.
var Roles = []Role{RoleEngineer, RoleManager, RoleCustomer}

func (r Role) IsValid() bool {
	switch r {
	case RoleEngineer, RoleManager, RoleCustomer:
		return true
	}
	return false
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", NewValidationError("role", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

// DefectStatus is a defect's position in the workflow.
type DefectStatus string

const (
	StatusNew        DefectStatus = "new"
	StatusInProgress DefectStatus = "in_progress"
	StatusOnReview   DefectStatus = "on_review"
	StatusClosed     DefectStatus = "closed"
	StatusCancelled  DefectStatus = "cancelled"
)

// Statuses lists every status in declaration order. Analytics and
// exports iterate it so their output order is stable.
var Statuses = []DefectStatus{StatusNew, StatusInProgress, StatusOnReview, StatusClosed, StatusCancelled}

func (s DefectStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusOnReview, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// IsFinal reports whether the defect is closed or cancelled. Editing rights
// depend on it independently of the workflow graph.
func (s DefectStatus) IsFinal() bool {
	return s == StatusClosed || s == StatusCancelled
}

func ParseStatus(s string) (DefectStatus, error) {
	st := DefectStatus(s)
	if !st.IsValid() {
		return "", NewValidationError("status", fmt.Sprintf("unknown status %q", s))
	}
	return st, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.IsValid() {
		return "", NewValidationError("priority", fmt.Sprintf("unknown priority %q", s))
	}
	return p, nil
}

// HistoryAction is the kind of mutation a history entry describes.
type HistoryAction string

const (
	ActionCreated         HistoryAction = "created"
	ActionUpdated         HistoryAction = "updated"
	ActionStatusChanged   HistoryAction = "status_changed"
	ActionCommentAdded    HistoryAction = "comment_added"
	ActionAttachmentAdded HistoryAction = "attachment_added"
)

var HistoryActions = []HistoryAction{
	ActionCreated, ActionUpdated, ActionStatusChanged, ActionCommentAdded, ActionAttachmentAdded,
}

func (a HistoryAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionStatusChanged, ActionCommentAdded, ActionAttachmentAdded:
		return true
	}
	return false
}
