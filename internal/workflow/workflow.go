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

// Package workflow owns the defect status graph and the role overlay that
// narrows it per actor.
package workflow

import (
	"fmt"
	"slices"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
	"github.com/sistemakontrol/kontrol/pkg/statemachine"
)

// graph is role-agnostic. Every status is declared, terminals included.
var graph = statemachine.New[model.DefectStatus]().
	Allow(model.StatusNew, model.StatusInProgress, model.StatusCancelled).
	Allow(model.StatusInProgress, model.StatusOnReview, model.StatusCancelled).
	Allow(model.StatusOnReview, model.StatusClosed, model.StatusCancelled).
	Allow(model.StatusClosed).
	Allow(model.StatusCancelled)

// engineerTargets is the overlay for assigned engineers: start work and
// submit for review. Closing and cancelling stay with managers.
var engineerTargets = []model.DefectStatus{model.StatusInProgress, model.StatusOnReview}

// Statuses returns every status in graph declaration order.
func Statuses() []model.DefectStatus {
	return graph.GetAllStates()
}

// RawNext returns the outgoing edges of s with no role applied.
func RawNext(s model.DefectStatus) []model.DefectStatus {
	return graph.GetValidNextStates(s)
}

// IsTerminal reports whether s has no outgoing edges.
func IsTerminal(s model.DefectStatus) bool {
	return graph.IsTerminal(s)
}

// AllowedNextStatuses returns the statuses a may move d to right now, in
// graph declaration order. The result is never nil.
func AllowedNextStatuses(d *model.Defect, a *policy.Actor) []model.DefectStatus {
	out := []model.DefectStatus{}
	if d == nil || !a.Authenticated() {
		return out
	}
	raw := graph.GetValidNextStates(d.Status)

	switch a.Role {
	case model.RoleManager:
		return append(out, raw...)
	case model.RoleCustomer:
		return out
	case model.RoleEngineer:
		if !d.IsExecutor(a.UserID) {
			return out
		}
		for _, s := range raw {
			if slices.Contains(engineerTargets, s) {
				out = append(out, s)
			}
		}
		return out
	default:
		return out
	}
}

// CanTransition reports whether a may move d to target.
func CanTransition(d *model.Defect, target model.DefectStatus, a *policy.Actor) bool {
	return slices.Contains(AllowedNextStatuses(d, a), target)
}

// ApplyTransition moves d to target and returns the status it left. It is
// the only code that assigns Defect.Status after creation. d is untouched
// on error.
func ApplyTransition(d *model.Defect, target model.DefectStatus, a *policy.Actor) (model.DefectStatus, error) {
	if !a.Authenticated() {
		return "", fmt.Errorf("%w: %w", model.ErrForbidden, model.ErrUnauthenticated)
	}
	if !CanTransition(d, target, a) {
		return "", fmt.Errorf("%w: %s cannot move defect from %s to %s", model.ErrForbidden, a.Role, d.Status, target)
	}
	if err := graph.Transition(d.Status, target); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrForbidden, err)
	}
	prior := d.Status
	d.Status = target
	return prior, nil
}

// ToDot renders the graph for documentation.
func ToDot() string {
	return graph.ToDot("defect_workflow")
}
