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

// Package policy decides who may do what to which defect. Every function is
// pure: no I/O, no errors. Callers turn a false into ErrForbidden or
// ErrNotFound at the boundary.
package policy

import "github.com/sistemakontrol/kontrol/internal/model"

// Actor is the identity behind a request. A nil Actor, a zero UserID or an
// unknown Role are all unauthenticated.
type Actor struct {
	UserID   uint64
	Username string
	Role     model.Role
}

// NewActor builds an actor from a stored user.
func NewActor(u *model.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (a *Actor) Authenticated() bool {
	return a != nil && a.UserID != 0 && a.Role.IsValid()
}

// role returns the actor's role, or "" when unauthenticated. Every
// predicate switches on it and ends in a default that denies.
func (a *Actor) role() model.Role {
	if !a.Authenticated() {
		return ""
	}
	return a.Role
}

func CanView(d *model.Defect, a *Actor) bool {
	switch a.role() {
	case model.RoleManager, model.RoleCustomer:
		return true
	case model.RoleEngineer:
		return d.IsExecutor(a.UserID)
	default:
		return false
	}
}

func CanEdit(d *model.Defect, a *Actor) bool {
	switch a.role() {
	case model.RoleManager:
		return true
	case model.RoleEngineer:
		return d.IsExecutor(a.UserID) && !d.Status.IsFinal()
	case model.RoleCustomer:
		return false
	default:
		return false
	}
}

func CanDeleteProject(a *Actor) bool {
	return a.role() == model.RoleManager
}

func CanDeleteDefect(a *Actor) bool {
	return a.role() == model.RoleManager
}

// CanCreateDefect allows engineers and managers. Use EffectiveExecutor to
// pick the executor of the new defect.
func CanCreateDefect(a *Actor) bool {
	switch a.role() {
	case model.RoleManager, model.RoleEngineer:
		return true
	default:
		return false
	}
}

func CanReassignExecutor(a *Actor) bool {
	return a.role() == model.RoleManager
}

func CanViewAnalytics(a *Actor) bool {
	switch a.role() {
	case model.RoleManager, model.RoleCustomer:
		return true
	default:
		return false
	}
}

func CanFilterByExecutor(a *Actor) bool {
	return a.role() == model.RoleManager
}

// CanManageProjects covers creating and editing projects and stages.
func CanManageProjects(a *Actor) bool {
	return a.role() == model.RoleManager
}

func CanViewProjects(a *Actor) bool {
	return a.Authenticated()
}

func CanComment(d *model.Defect, a *Actor) bool {
	return CanView(d, a)
}

// CanAttach lets managers upload to any defect, including finished ones.
func CanAttach(d *model.Defect, a *Actor) bool {
	return CanEdit(d, a) || a.role() == model.RoleManager
}

// EffectiveExecutor returns the executor a new defect gets. Engineers are
// always their own executor whatever they asked for; managers get what
// they asked for.
func EffectiveExecutor(a *Actor, requested *uint64) *uint64 {
	switch a.role() {
	case model.RoleEngineer:
		id := a.UserID
		return &id
	case model.RoleManager:
		return requested
	default:
		return nil
	}
}

// Scope restricts a defect listing to what the actor can view.
type Scope struct {
	All        bool
	ExecutorID uint64 // set when only one executor's defects are visible
}

// None reports whether nothing is visible.
func (s Scope) None() bool {
	return !s.All && s.ExecutorID == 0
}

// Visibility is the list-level form of CanView.
func Visibility(a *Actor) Scope {
	switch a.role() {
	case model.RoleManager, model.RoleCustomer:
		return Scope{All: true}
	case model.RoleEngineer:
		return Scope{ExecutorID: a.UserID}
	default:
		return Scope{}
	}
}
