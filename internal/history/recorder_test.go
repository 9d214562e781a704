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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
)

func decode(t *testing.T, entry *model.History) Diff {
	t.Helper()
	var d Diff
	require.NoError(t, sonic.ConfigStd.Unmarshal(entry.Changes, &d))
	return d
}

type memStore struct {
	entries []*model.History
	err     error
}

func (m *memStore) AppendHistory(_ context.Context, e *model.History) error {
	if m.err != nil {
		return m.err
	}
	e.ID = uint64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return nil
}

var (
	fixed   = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	actor   = &policy.Actor{UserID: 42, Username: "eng", Role: model.RoleEngineer}
	labels  = model.DefaultLabels(model.NewCatalog(language.English))
	persist = &model.Defect{BaseModel: model.BaseModel{ID: 7}}
)

func newRecorder(store Store) *Recorder {
	return NewRecorder(store, WithClock(func() time.Time { return fixed }))
}

func strp(s string) *string { return &s }

func TestRecord_Created(t *testing.T) {
	store := &memStore{}
	entry, err := newRecorder(store).Record(context.Background(), persist, actor, model.ActionCreated,
		CreatedDiff(Snapshot{Title: "Crack", Project: "Tower", Priority: "High", Status: "New"}))
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, uint64(7), entry.DefectID)
	assert.Equal(t, fixed, entry.CreatedAt)
	require.NotNil(t, entry.ChangedByID)
	assert.Equal(t, uint64(42), *entry.ChangedByID)
	assert.JSONEq(t,
		`{"title":{"to":"Crack"},"project":{"to":"Tower"},"priority":{"to":"High"},"status":{"to":"New"},"deadline":{"to":""},"executor":{"to":""}}`,
		string(entry.Changes))
}

func TestRecord_UpdatedEmptyDiffWritesNothing(t *testing.T) {
	store := &memStore{}
	r := newRecorder(store)
	snap := Snapshot{Title: "Crack", Priority: "Low"}

	entry, err := r.Record(context.Background(), persist, actor, model.ActionUpdated, UpdatedDiff(snap, snap))
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = r.Record(context.Background(), persist, actor, model.ActionUpdated, Diff{"title": {From: strp("a"), To: "a"}})
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = r.Record(context.Background(), persist, actor, model.ActionUpdated, nil)
	require.NoError(t, err)
	assert.Nil(t, entry)

	assert.Empty(t, store.entries)
}

func TestRecord_UpdatedKeepsOnlyChanges(t *testing.T) {
	store := &memStore{}
	before := Snapshot{Title: "Crack", Description: "wall", Priority: "Low", Executor: ""}
	after := Snapshot{Title: "Crack", Description: "north wall", Priority: "Low", Executor: "ivan"}

	entry, err := newRecorder(store).Record(context.Background(), persist, actor, model.ActionUpdated, UpdatedDiff(before, after))
	require.NoError(t, err)
	require.NotNil(t, entry)

	d := decode(t, entry)
	assert.Len(t, d, 2)
	assert.Equal(t, "wall", *d[FieldDescription].From)
	assert.Equal(t, "north wall", d[FieldDescription].To)
	assert.Equal(t, "", *d[FieldExecutor].From, "empty prior values survive encoding")
	assert.Equal(t, "ivan", d[FieldExecutor].To)
}

func TestRecord_StatusUsesLabels(t *testing.T) {
	store := &memStore{}
	entry, err := newRecorder(store).Record(context.Background(), persist, actor, model.ActionStatusChanged,
		StatusDiff(model.StatusNew, model.StatusInProgress, labels))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":{"from":"New","to":"In progress"}}`, string(entry.Changes))
}

func TestRecord_CommentAndAttachment(t *testing.T) {
	store := &memStore{}
	r := newRecorder(store)

	_, err := r.Record(context.Background(), persist, actor, model.ActionCommentAdded, CommentDiff("looks bad"))
	require.NoError(t, err)
	_, err = r.Record(context.Background(), persist, actor, model.ActionAttachmentAdded, AttachmentDiff("photo.jpg"))
	require.NoError(t, err)

	require.Len(t, store.entries, 2)
	assert.JSONEq(t, `{"comment":{"to":"looks bad"}}`, string(store.entries[0].Changes))
	assert.JSONEq(t, `{"file":{"to":"photo.jpg"}}`, string(store.entries[1].Changes))
}

func TestRecord_RejectsBadShapes(t *testing.T) {
	tests := []struct {
		name   string
		action model.HistoryAction
		diff   Diff
	}{
		{"unknown action", "deleted", CommentDiff("x")},
		{"created with prior", model.ActionCreated, Diff{"title": {From: strp("a"), To: "b"}}},
		{"updated without prior", model.ActionUpdated, Diff{"title": {To: "b"}}},
		{"status with extra field", model.ActionStatusChanged, Diff{"status": {From: strp("a"), To: "b"}, "title": {From: strp("a"), To: "b"}}},
		{"status without prior", model.ActionStatusChanged, Diff{"status": {To: "b"}}},
		{"comment under wrong key", model.ActionCommentAdded, Diff{"text": {To: "hi"}}},
		{"file under wrong key", model.ActionAttachmentAdded, CommentDiff("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			_, err := newRecorder(store).Record(context.Background(), persist, actor, tt.action, tt.diff)
			assert.ErrorIs(t, err, model.ErrValidationFailed)
			assert.Empty(t, store.entries)
		})
	}
}

func TestRecord_AnonymousActorHasNoChangedBy(t *testing.T) {
	store := &memStore{}
	entry, err := newRecorder(store).Record(context.Background(), persist, nil, model.ActionCommentAdded, CommentDiff("x"))
	require.NoError(t, err)
	assert.Nil(t, entry.ChangedByID)
}

func TestRecord_Errors(t *testing.T) {
	boom := errors.New("disk full")
	_, err := newRecorder(&memStore{err: boom}).Record(context.Background(), persist, actor, model.ActionCommentAdded, CommentDiff("x"))
	assert.ErrorIs(t, err, boom)

	_, err = newRecorder(&memStore{}).Record(context.Background(), &model.Defect{}, actor, model.ActionCommentAdded, CommentDiff("x"))
	assert.Error(t, err)
}

func TestRecorder_WithStore(t *testing.T) {
	root := &memStore{}
	base := NewRecorder(root)
	tx := &memStore{}

	_, err := base.WithStore(tx).Record(context.Background(), persist, actor, model.ActionCommentAdded, CommentDiff("x"))
	require.NoError(t, err)
	assert.Len(t, tx.entries, 1)
	assert.Empty(t, root.entries)
}

func TestSnapshotOfAndUpdatedDiff(t *testing.T) {
	deadline := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	d := &model.Defect{
		Title:    "Leak",
		Priority: model.PriorityMedium,
		Status:   model.StatusNew,
		Deadline: &deadline,
		Project:  &model.Project{Name: "Tower"},
		Executor: &model.User{Username: "ivan"},
	}
	s := SnapshotOf(d, labels)
	assert.Equal(t, Snapshot{Title: "Leak", Priority: "Medium", Status: "New", Deadline: "2025-05-01", Project: "Tower", Executor: "ivan"}, s)

	changed := s
	changed.Status = "Closed"
	assert.Empty(t, UpdatedDiff(s, changed), "status is not part of an update diff")
}
