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

package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/service"
	"github.com/sistemakontrol/kontrol/pkg/http/jwt"
	"github.com/sistemakontrol/kontrol/pkg/http/middleware"
)

func TestUserService_Register(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	info, err := h.svc.User.Register(ctx, &model.Register{Username: " ivan ", Password: "secret-pass", Email: "ivan@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ivan", info.Username)
	assert.Equal(t, model.RoleEngineer, info.Role)

	stored, err := h.repos.User.GetByUsername(ctx, "ivan")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pass", stored.Password)

	tests := []struct {
		name  string
		req   *model.Register
		field string
	}{
		{"duplicate", &model.Register{Username: "ivan", Password: "secret-pass"}, "username"},
		{"empty username", &model.Register{Password: "secret-pass"}, "username"},
		{"short password", &model.Register{Username: "petr", Password: "short"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.User.Register(ctx, tt.req)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestUserService_Session(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.User.AddUser(ctx, &model.AddUserReq{Username: "boss", Password: "secret-pass", Role: model.RoleManager})
	require.NoError(t, err)

	_, err = h.svc.User.Login(ctx, &model.Login{Username: "boss", Password: "wrong-pass"})
	assert.ErrorIs(t, err, service.ErrBadCredentials)
	_, err = h.svc.User.Login(ctx, &model.Login{Username: "nobody", Password: "secret-pass"})
	assert.ErrorIs(t, err, service.ErrBadCredentials)
	_, err = h.svc.User.Login(ctx, &model.Login{Username: "boss"})
	assert.ErrorIs(t, err, model.ErrValidationFailed)

	resp, err := h.svc.User.Login(ctx, &model.Login{Username: "boss", Password: "secret-pass"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, resp.UserInfo.Role)

	claims, err := jwt.ParseToken(resp.AccessToken, testSecret)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	actor, err := h.svc.User.Verify(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, "boss", actor.Username)
	assert.Equal(t, model.RoleManager, actor.Role)

	require.NoError(t, h.svc.User.Logout(ctx, claims))
	require.NoError(t, h.svc.User.Logout(ctx, claims))
	_, err = h.svc.User.Verify(ctx, claims)
	assert.ErrorIs(t, err, middleware.ErrSessionRevoked)

	t.Run("removed user loses the session", func(t *testing.T) {
		resp, err := h.svc.User.Login(ctx, &model.Login{Username: "boss", Password: "secret-pass"})
		require.NoError(t, err)
		claims, err := jwt.ParseToken(resp.AccessToken, testSecret)
		require.NoError(t, err)

		require.NoError(t, h.svc.User.DeleteUser(ctx, "boss"))
		_, err = h.svc.User.Verify(ctx, claims)
		assert.ErrorIs(t, err, middleware.ErrSessionRevoked)
	})
}

func TestUserService_Admin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.User.ListExecutors(ctx, h.eng)
	assert.ErrorIs(t, err, model.ErrForbidden)
	_, err = h.svc.User.ListExecutors(ctx, h.customer)
	assert.ErrorIs(t, err, model.ErrForbidden)

	executors, err := h.svc.User.ListExecutors(ctx, h.manager)
	require.NoError(t, err)
	var names []string
	for _, u := range executors {
		names = append(names, u.Username)
	}
	assert.ElementsMatch(t, []string{"eng", "other"}, names)

	require.NoError(t, h.svc.User.SetRole(ctx, "other", model.RoleCustomer))
	u, err := h.repos.User.GetByUsername(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, u.Role)

	assert.ErrorIs(t, h.svc.User.SetRole(ctx, "other", "admin"), model.ErrValidationFailed)
	assert.ErrorIs(t, h.svc.User.SetRole(ctx, "ghost", model.RoleManager), model.ErrNotFound)

	t.Run("user with comments stays", func(t *testing.T) {
		d := h.newDefect(t, "Crack", h.eng)
		_, err := h.svc.Defect.AddComment(ctx, h.eng, d.ID, "on it")
		require.NoError(t, err)
		assert.ErrorIs(t, h.svc.User.DeleteUser(ctx, "eng"), model.ErrValidationFailed)
	})

	t.Run("removed executor leaves the defect unassigned", func(t *testing.T) {
		d := h.newDefect(t, "Leak", h.other)
		require.NoError(t, h.svc.User.DeleteUser(ctx, "other"))
		got, err := h.svc.Defect.Get(ctx, h.manager, d.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ExecutorID)
		require.NotEmpty(t, got.History)
		assert.NotNil(t, got.History[0].ChangedByID)
	})
}
