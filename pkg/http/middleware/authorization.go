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
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sistemakontrol/kontrol/pkg/http"
	"github.com/sistemakontrol/kontrol/pkg/http/jwt"
	"github.com/sistemakontrol/kontrol/pkg/log"
)

// ErrSessionRevoked is returned by a Verifier when the token's session or
// its user no longer exists. Any other Verifier error is a server failure.
var ErrSessionRevoked = errors.New("session revoked")

// Verifier resolves valid claims to the principal stored in Locals(ACTOR).
type Verifier func(c *fiber.Ctx, claims *jwt.AuthClaims) (any, error)

// AuthorizationMiddleware requires a Bearer token signed with secretKey and
// accepted by verify. Failures answer 401 with the error envelope.
func AuthorizationMiddleware(secretKey string, verify Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return unauthorized(c, http.TokenBeEmpty)
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return unauthorized(c, http.TokenBeEmpty)
		}

		claims, err := jwt.ParseToken(parts[1], secretKey)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return unauthorized(c, http.TokenExpired)
			}
			log.Debugw("parse token failed", "error", err)
			return unauthorized(c, http.InvalidToken)
		}

		principal, err := verify(c, claims)
		if err != nil {
			if errors.Is(err, ErrSessionRevoked) {
				return unauthorized(c, http.TokenExpired)
			}
			log.Errorw("token verification failed", "userId", claims.UserId, "error", err)
			return http.WithRepErrStatus(c, fiber.StatusInternalServerError, http.InternalError.Code, http.InternalError.Msg)
		}

		c.Locals(http.CLAIMS, claims)
		c.Locals(http.ACTOR, principal)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, r *http.Response) error {
	return http.WithRepErrStatus(c, fiber.StatusUnauthorized, r.Code, r.Msg)
}
