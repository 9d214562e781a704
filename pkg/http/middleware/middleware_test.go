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

package middleware

import (
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistemakontrol/kontrol/pkg/http"
	"github.com/sistemakontrol/kontrol/pkg/http/jwt"
)

const secret = "test-secret"

func newApp(verify Verifier) *fiber.App {
	app := http.NewApp(http.Http{})
	app.Use(ExceptionMiddleware, RequestID(), UnifiedResponseMiddleware())
	app.Get("/panic", func(c *fiber.Ctx) error { panic("boom") })
	app.Get("/plain", func(c *fiber.Ctx) error {
		c.Locals(http.DETAIL, fiber.Map{"ok": true})
		return nil
	})
	app.Get("/me", AuthorizationMiddleware(secret, verify), func(c *fiber.Ctx) error {
		c.Locals(http.DETAIL, c.Locals(http.ACTOR))
		return nil
	})
	return app
}

func body(t *testing.T, resp *nethttp.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestUnifiedResponse(t *testing.T) {
	app := newApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/plain", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{"code":200,"msg":"Request Success","detail":{"ok":true}}`, body(t, resp))
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestExceptionMiddleware(t *testing.T) {
	app := newApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	b := body(t, resp)
	assert.Contains(t, b, `"errCode":5000`)
	assert.NotContains(t, b, "boom")
}

func TestAuthorizationMiddleware(t *testing.T) {
	verify := func(c *fiber.Ctx, claims *jwt.AuthClaims) (any, error) {
		switch claims.ID {
		case "revoked":
			return nil, ErrSessionRevoked
		case "broken":
			return nil, errors.New("cache down")
		}
		return claims.UserId, nil
	}
	app := newApp(verify)

	token := func(sid string, ttl time.Duration) string {
		tok, _, err := jwt.GenToken("7", sid, []byte(secret), ttl)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	tests := []struct {
		name     string
		header   string
		status   int
		contains string
	}{
		{"missing", "", 401, `"errCode":4406`},
		{"not bearer", "Basic abc", 401, `"errCode":4406`},
		{"garbage", "Bearer abc", 401, `"errCode":4405`},
		{"expired", token("ok", -time.Minute), 401, `"errCode":4407`},
		{"revoked", token("revoked", time.Hour), 401, `"errCode":4407`},
		{"verifier failure", token("broken", time.Hour), 500, `"errCode":5000`},
		{"valid", token("ok", time.Hour), 200, `"detail":"7"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, body(t, resp), tt.contains)
		})
	}
}

func TestNotFoundRoute(t *testing.T) {
	app := newApp(nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Contains(t, body(t, resp), `"errCode":404`)
}
