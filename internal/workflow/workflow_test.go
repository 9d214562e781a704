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

package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
)

var (
	manager  = &policy.Actor{UserID: 1, Role: model.RoleManager}
	customer = &policy.Actor{UserID: 2, Role: model.RoleCustomer}
	engE     = &policy.Actor{UserID: 3, Role: model.RoleEngineer}
	engF     = &policy.Actor{UserID: 4, Role: model.RoleEngineer}
	ghost    = &policy.Actor{UserID: 5, Role: "auditor"}
)

func defect(status model.DefectStatus, executor *policy.Actor) *model.Defect {
	d := &model.Defect{Status: status}
	if executor != nil {
		id := executor.UserID
		d.ExecutorID = &id
	}
	return d
}

func TestGraphShape(t *testing.T) {
	want := map[model.DefectStatus][]model.DefectStatus{
		model.StatusNew:        {model.StatusInProgress, model.StatusCancelled},
		model.StatusInProgress: {model.StatusOnReview, model.StatusCancelled},
		model.StatusOnReview:   {model.StatusClosed, model.StatusCancelled},
		model.StatusClosed:     {},
		model.StatusCancelled:  {},
	}
	assert.ElementsMatch(t, model.Statuses, Statuses())
	for from, to := range want {
		assert.ElementsMatch(t, to, RawNext(from), from)
		for _, s := range to {
			assert.NotEqual(t, from, s, "self loop on %s", from)
			assert.NotContains(t, RawNext(s), from, "back edge %s -> %s", s, from)
		}
	}
	assert.True(t, IsTerminal(model.StatusClosed))
	assert.True(t, IsTerminal(model.StatusCancelled))
	assert.False(t, IsTerminal(model.StatusNew))
}

func TestCustomerNeverTransitions(t *testing.T) {
	for _, s := range model.Statuses {
		for _, exec := range []*policy.Actor{nil, engE, customer} {
			assert.Empty(t, AllowedNextStatuses(defect(s, exec), customer), "status %s", s)
		}
	}
}

func TestTerminalStatusesHaveNoNext(t *testing.T) {
	for _, s := range []model.DefectStatus{model.StatusClosed, model.StatusCancelled} {
		for _, a := range []*policy.Actor{manager, customer, engE, engF, ghost, nil} {
			assert.Empty(t, AllowedNextStatuses(defect(s, engE), a))
		}
	}
}

func TestNonExecutorEngineerGetsNothing(t *testing.T) {
	for _, s := range model.Statuses {
		assert.Empty(t, AllowedNextStatuses(defect(s, engE), engF), "status %s", s)
		assert.Empty(t, AllowedNextStatuses(defect(s, nil), engF), "status %s", s)
	}
}

func TestEngineerNeverClosesOrCancels(t *testing.T) {
	for _, s := range model.Statuses {
		got := AllowedNextStatuses(defect(s, engE), engE)
		assert.NotContains(t, got, model.StatusClosed)
		assert.NotContains(t, got, model.StatusCancelled)
	}
	assert.Empty(t, AllowedNextStatuses(defect(model.StatusOnReview, engE), engE))
	assert.Equal(t, []model.DefectStatus{model.StatusOnReview},
		AllowedNextStatuses(defect(model.StatusInProgress, engE), engE))
}

func TestUnauthenticatedAndUnknownRole(t *testing.T) {
	d := defect(model.StatusNew, engE)
	assert.Empty(t, AllowedNextStatuses(d, nil))
	assert.Empty(t, AllowedNextStatuses(d, &policy.Actor{Role: model.RoleManager}))
	assert.Empty(t, AllowedNextStatuses(d, ghost))
	assert.NotNil(t, AllowedNextStatuses(nil, manager))

	_, err := ApplyTransition(d, model.StatusInProgress, nil)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Equal(t, model.StatusNew, d.Status)
}

func TestManagerRoundTrip(t *testing.T) {
	for _, from := range model.Statuses {
		for _, to := range RawNext(from) {
			d := defect(from, engE)
			prior, err := ApplyTransition(d, to, manager)
			require.NoError(t, err)
			assert.Equal(t, from, prior)
			assert.Equal(t, to, d.Status)
		}
	}
}

func TestApplyTransition_RejectsNonEdges(t *testing.T) {
	d := defect(model.StatusNew, engE)
	_, err := ApplyTransition(d, model.StatusClosed, manager)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = ApplyTransition(d, model.StatusNew, manager)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Equal(t, model.StatusNew, d.Status)
}

func TestAssignedEngineerStartsNewDefect(t *testing.T) {
	d := defect(model.StatusNew, engE)
	assert.Equal(t, []model.DefectStatus{model.StatusInProgress}, AllowedNextStatuses(d, engE))
}

func TestOnlyManagerClosesReviewedDefect(t *testing.T) {
	d := defect(model.StatusOnReview, engE)

	_, err := ApplyTransition(d, model.StatusClosed, engE)
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.Equal(t, model.StatusOnReview, d.Status)

	prior, err := ApplyTransition(d, model.StatusClosed, manager)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnReview, prior)
	assert.Equal(t, model.StatusClosed, d.Status)
}

func TestToDot(t *testing.T) {
	dot := ToDot()
	assert.True(t, strings.HasPrefix(dot, "digraph defect_workflow {"))
	assert.Contains(t, dot, `"on_review" -> "closed";`)
}
