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

package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/sistemakontrol/kontrol/internal/export"
	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/repo/repotest"
	"github.com/sistemakontrol/kontrol/internal/router"
	"github.com/sistemakontrol/kontrol/internal/service"
	"github.com/sistemakontrol/kontrol/pkg/cache"
	"github.com/sistemakontrol/kontrol/pkg/http"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/storage"
)

const password = "correct-horse"

type env struct {
	app     *fiber.App
	project *model.Project
	tokens  map[string]string
	ids     map[string]uint64
}

type envelope struct {
	Code    int               `json:"code"`
	Detail  json.RawMessage   `json:"detail"`
	ErrCode int               `json:"errCode"`
	Fields  map[string]string `json:"fields"`
}

func newEnv(t *testing.T) *env {
	t.Helper()
	repos := repotest.Open(t)
	blobs, err := storage.NewStorage(&storage.Conf{Provider: storage.StorageLocal, LocalDir: t.TempDir()})
	require.NoError(t, err)

	cfg := http.Http{
		ContextPath:   "/api/v1",
		ExposeMetrics: true,
		Auth:          http.Auth{SecretKey: "router-secret", AccessExpire: 60, KeyPrefix: "kontrol:"},
	}
	ms := metrics.NewServer(metrics.MetricsConfig{Enable: true})
	k, err := metrics.ProvideKontrol(ms)
	require.NoError(t, err)

	catalog := model.NewCatalog(language.Russian)
	svc := service.NewServices(repos, cache.NewFastCache(0), blobs, k, catalog, service.Options{Auth: cfg.Auth})
	rt := router.NewRouter(cfg, svc, export.New(nil), ms, k)

	e := &env{
		app:     rt.Router(),
		project: repotest.Project(t, repos, "Tower"),
		tokens:  map[string]string{},
		ids:     map[string]uint64{},
	}
	for name, role := range map[string]model.Role{
		"manager":  model.RoleManager,
		"customer": model.RoleCustomer,
		"eng":      model.RoleEngineer,
		"other":    model.RoleEngineer,
	} {
		u, err := svc.User.AddUser(context.Background(), &model.AddUserReq{Username: name, Password: password, Role: role})
		require.NoError(t, err)
		e.ids[name] = u.ID
		e.tokens[name] = e.login(t, name, password)
	}
	return e
}

func (e *env) do(t *testing.T, method, path, user string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := sonic.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if user != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+e.tokens[user])
	}
	return e.send(t, req)
}

func (e *env) send(t *testing.T, req *nethttp.Request) (int, envelope) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out envelope
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(b) > 0 {
		require.NoError(t, sonic.Unmarshal(b, &out), string(b))
	}
	return resp.StatusCode, out
}

func (e *env) login(t *testing.T, username, pw string) string {
	t.Helper()
	status, out := e.do(t, fiber.MethodPost, "/api/v1/auth/login", "", model.Login{Username: username, Password: pw})
	require.Equal(t, fiber.StatusOK, status)
	var resp model.LoginResp
	require.NoError(t, sonic.Unmarshal(out.Detail, &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (e *env) createDefect(t *testing.T, title, executor string) uint64 {
	t.Helper()
	execID := e.ids[executor]
	status, out := e.do(t, fiber.MethodPost, "/api/v1/defects", "manager", map[string]any{
		"title":      title,
		"projectId":  e.project.ID,
		"deadline":   "2025-06-01",
		"priority":   "high",
		"executorId": execID,
	})
	require.Equal(t, fiber.StatusCreated, status, out)
	var d model.Defect
	require.NoError(t, sonic.Unmarshal(out.Detail, &d))
	return d.ID
}

func decode[T any](t *testing.T, out envelope) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(out.Detail, &v))
	return v
}

func TestPublicEndpoints(t *testing.T) {
	e := newEnv(t)

	resp, err := e.app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = e.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/workflow", nil))
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), `"new" -> "in_progress";`)

	resp, err = e.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "kontrol_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t)

	t.Run("register creates an engineer", func(t *testing.T) {
		status, out := e.do(t, fiber.MethodPost, "/api/v1/auth/register", "", model.Register{Username: "newbie", Password: password})
		require.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, model.RoleEngineer, decode[model.UserInfo](t, out).Role)
	})

	t.Run("duplicate username", func(t *testing.T) {
		status, out := e.do(t, fiber.MethodPost, "/api/v1/auth/register", "", model.Register{Username: "eng", Password: password})
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t, http.ValidationFailed.Code, out.ErrCode)
		assert.Contains(t, out.Fields, "username")
	})

	t.Run("bad credentials", func(t *testing.T) {
		status, out := e.do(t, fiber.MethodPost, "/api/v1/auth/login", "", model.Login{Username: "eng", Password: "wrong-password"})
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, http.AuthenticationFailed.Code, out.ErrCode)
	})

	t.Run("missing token", func(t *testing.T) {
		status, out := e.do(t, fiber.MethodGet, "/api/v1/users/me", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, http.TokenBeEmpty.Code, out.ErrCode)
	})

	t.Run("me then logout revokes the token", func(t *testing.T) {
		status, out := e.do(t, fiber.MethodGet, "/api/v1/users/me", "customer", nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "customer", decode[model.UserInfo](t, out).Username)

		status, _ = e.do(t, fiber.MethodPost, "/api/v1/auth/logout", "customer", nil)
		require.Equal(t, fiber.StatusOK, status)

		status, out = e.do(t, fiber.MethodGet, "/api/v1/users/me", "customer", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, http.TokenExpired.Code, out.ErrCode)
	})

	t.Run("executors are manager only", func(t *testing.T) {
		status, out := e.do(t, fiber.MethodGet, "/api/v1/users/executors", "manager", nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.Len(t, decode[[]model.UserInfo](t, out), 3)

		status, _ = e.do(t, fiber.MethodGet, "/api/v1/users/executors", "eng", nil)
		assert.Equal(t, fiber.StatusForbidden, status)
	})
}

func TestDefectLifecycle(t *testing.T) {
	e := newEnv(t)
	id := e.createDefect(t, "Crack in slab", "eng")
	path := fmt.Sprintf("/api/v1/defects/%d", id)

	status, _ := e.do(t, fiber.MethodPost, "/api/v1/defects", "customer", map[string]any{
		"title": "x", "projectId": e.project.ID, "deadline": "2025-06-01",
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = e.do(t, fiber.MethodGet, path, "other", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, out := e.do(t, fiber.MethodGet, path, "eng", nil)
	require.Equal(t, fiber.StatusOK, status)
	detail := decode[model.DefectDetail](t, out)
	assert.Equal(t, []model.DefectStatus{model.StatusInProgress}, detail.NextStatuses)

	status, _ = e.do(t, fiber.MethodPost, path+"/status", "eng", model.StatusReq{Status: "closed"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, out = e.do(t, fiber.MethodPost, path+"/status", "eng", model.StatusReq{Status: "in_progress"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, model.StatusInProgress, decode[model.Defect](t, out).Status)

	status, out = e.do(t, fiber.MethodPost, path+"/status", "manager", model.StatusReq{Status: "bogus"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, out.Fields, "status")

	status, _ = e.do(t, fiber.MethodPost, path+"/comments", "customer", model.CommentReq{Text: "When?"})
	assert.Equal(t, fiber.StatusCreated, status)

	status, out = e.do(t, fiber.MethodPatch, path, "eng", map[string]any{"executorId": e.ids["other"]})
	assert.Equal(t, fiber.StatusForbidden, status, out)

	status, _ = e.do(t, fiber.MethodDelete, path, "eng", nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	status, _ = e.do(t, fiber.MethodDelete, path, "manager", nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = e.do(t, fiber.MethodGet, path, "manager", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = e.do(t, fiber.MethodGet, "/api/v1/defects/abc", "manager", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestListDefects(t *testing.T) {
	e := newEnv(t)
	e.createDefect(t, "Mine", "eng")
	e.createDefect(t, "Theirs", "other")

	status, out := e.do(t, fiber.MethodGet, "/api/v1/defects", "eng", nil)
	require.Equal(t, fiber.StatusOK, status)
	page := decode[model.Page[model.Defect]](t, out)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Mine", page.Items[0].Title)

	status, out = e.do(t, fiber.MethodGet, "/api/v1/defects?status=new&priority=high&q=the", "customer", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, decode[model.Page[model.Defect]](t, out).Total)

	status, out = e.do(t, fiber.MethodGet, "/api/v1/defects?status=open&executor=x", "manager", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, out.Fields, "status")
	assert.Contains(t, out.Fields, "executor")

	status, _ = e.do(t, fiber.MethodGet, fmt.Sprintf("/api/v1/defects?executor=%d", e.ids["other"]), "eng", nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestExportAndAnalytics(t *testing.T) {
	e := newEnv(t)
	e.createDefect(t, "Leak", "eng")

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/defects/export?format=csv", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+e.tokens["manager"])
	req.Header.Set(fiber.HeaderAcceptLanguage, "en")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "defects.csv")
	b, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(b, []byte("\xEF\xBB\xBF")))
	assert.Contains(t, string(b), "Leak")

	status, out := e.do(t, fiber.MethodGet, "/api/v1/defects/export?format=pdf", "manager", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, http.ValidationFailed.Code, out.ErrCode)

	status, out = e.do(t, fiber.MethodGet, "/api/v1/analytics/status", "customer", nil)
	require.Equal(t, fiber.StatusOK, status)
	counts := decode[[]model.StatusCount](t, out)
	require.Len(t, counts, len(model.Statuses))
	assert.Equal(t, model.StatusNew, counts[0].Status)
	assert.EqualValues(t, 1, counts[0].Count)

	status, _ = e.do(t, fiber.MethodGet, "/api/v1/analytics/status", "eng", nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestAttachments(t *testing.T) {
	e := newEnv(t)
	id := e.createDefect(t, "Broken window", "eng")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(fiber.MethodPost, fmt.Sprintf("/api/v1/defects/%d/attachments", id), &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+e.tokens["eng"])
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var out envelope
	b, _ := io.ReadAll(resp.Body)
	require.NoError(t, sonic.Unmarshal(b, &out))
	att := decode[model.Attachment](t, out)
	assert.Equal(t, "photo.jpg", att.Name)

	req = httptest.NewRequest(fiber.MethodGet, fmt.Sprintf("/api/v1/defects/%d/attachments/%d", id, att.ID), nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+e.tokens["eng"])
	resp, err = e.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(resp.Header.Get(fiber.HeaderContentDisposition), "photo.jpg"))
	b, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "jpeg-bytes", string(b))

	status, out := e.do(t, fiber.MethodPost, fmt.Sprintf("/api/v1/defects/%d/attachments", id), "eng", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, out.Fields, "file")
}

func TestProjects(t *testing.T) {
	e := newEnv(t)

	status, out := e.do(t, fiber.MethodPost, "/api/v1/projects", "manager", model.ProjectReq{Name: "Bridge", StartDate: "2025-01-01"})
	require.Equal(t, fiber.StatusCreated, status)
	p := decode[model.Project](t, out)

	status, _ = e.do(t, fiber.MethodPost, "/api/v1/projects", "eng", model.ProjectReq{Name: "Nope", StartDate: "2025-01-01"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, out = e.do(t, fiber.MethodPost, "/api/v1/projects", "manager", model.ProjectReq{Name: "", StartDate: "2025-01-01"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, out.Fields, "name")

	stages := fmt.Sprintf("/api/v1/projects/%d/stages", p.ID)
	status, _ = e.do(t, fiber.MethodPost, stages, "manager", model.StageReq{Name: "Foundation", Order: 1})
	require.Equal(t, fiber.StatusCreated, status)

	status, out = e.do(t, fiber.MethodGet, stages, "customer", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]model.ProjectStage](t, out), 1)

	status, out = e.do(t, fiber.MethodGet, "/api/v1/projects", "eng", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]model.Project](t, out), 2)

	status, _ = e.do(t, fiber.MethodDelete, fmt.Sprintf("/api/v1/projects/%d", p.ID), "manager", nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = e.do(t, fiber.MethodGet, fmt.Sprintf("/api/v1/projects/%d", p.ID), "manager", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}
