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

// Package history writes the append-only audit trail of a defect.
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
)

// Store persists entries. Implementations only ever insert.
type Store interface {
	AppendHistory(ctx context.Context, entry *model.History) error
}

type Option func(*Recorder)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

type Recorder struct {
	store Store
	now   func() time.Time
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithStore returns a recorder writing to s, typically a transaction-bound store.
func (r *Recorder) WithStore(s Store) *Recorder {
	cp := *r
	cp.store = s
	return &cp
}

// Record writes one entry for a mutation already applied to defect.
//
// Unchanged pairs are dropped from updated diffs, and a diff left empty
// writes nothing and returns (nil, nil). That holds for every action kind,
// so no mutation path can produce an empty audit entry. A diff whose shape
// does not fit the action is rejected with ErrValidationFailed.
func (r *Recorder) Record(ctx context.Context, defect *model.Defect, actor *policy.Actor, action model.HistoryAction, diff Diff) (*model.History, error) {
	if defect == nil || defect.ID == 0 {
		return nil, fmt.Errorf("record history: defect is not persisted")
	}
	if !action.IsValid() {
		return nil, model.NewValidationError("action", fmt.Sprintf("unknown history action %q", action))
	}
	if action == model.ActionUpdated {
		diff = dropUnchanged(diff)
	}
	if len(diff) == 0 {
		return nil, nil
	}
	if err := checkShape(action, diff); err != nil {
		return nil, err
	}

	payload, err := sonic.ConfigStd.Marshal(diff)
	if err != nil {
		return nil, fmt.Errorf("encode history diff: %w", err)
	}

	entry := &model.History{
		DefectID:  defect.ID,
		Action:    action,
		Changes:   datatypes.JSON(payload),
		CreatedAt: r.now(),
	}
	if actor.Authenticated() {
		id := actor.UserID
		entry.ChangedByID = &id
	}

	if err := r.store.AppendHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	return entry, nil
}

func dropUnchanged(diff Diff) Diff {
	out := make(Diff, len(diff))
	for k, c := range diff {
		if c.From != nil && *c.From == c.To {
			continue
		}
		out[k] = c
	}
	return out
}

func checkShape(action model.HistoryAction, diff Diff) error {
	only := func(key string, wantFrom bool) error {
		c, ok := diff[key]
		if len(diff) != 1 || !ok {
			return model.NewValidationError("changes", fmt.Sprintf("%s expects exactly the %q field, got %v", action, key, keys(diff)))
		}
		if (c.From != nil) != wantFrom {
			return model.NewValidationError("changes", fmt.Sprintf("%s has a malformed %q change", action, key))
		}
		return nil
	}

	switch action {
	case model.ActionCreated:
		for k, c := range diff {
			if c.From != nil {
				return model.NewValidationError("changes", fmt.Sprintf("created entry has a prior value for %q", k))
			}
		}
	case model.ActionUpdated:
		for k, c := range diff {
			if c.From == nil {
				return model.NewValidationError("changes", fmt.Sprintf("updated entry lacks a prior value for %q", k))
			}
		}
	case model.ActionStatusChanged:
		return only(FieldStatus, true)
	case model.ActionCommentAdded:
		return only(FieldComment, false)
	case model.ActionAttachmentAdded:
		return only(FieldFile, false)
	}
	return nil
}

func keys(d Diff) []string {
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
