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

package router

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/wire"

	"github.com/sistemakontrol/kontrol/internal/export"
	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/policy"
	"github.com/sistemakontrol/kontrol/internal/service"
	"github.com/sistemakontrol/kontrol/internal/workflow"
	"github.com/sistemakontrol/kontrol/pkg/http"
	"github.com/sistemakontrol/kontrol/pkg/http/jwt"
	"github.com/sistemakontrol/kontrol/pkg/http/middleware"
	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/metrics"
	"github.com/sistemakontrol/kontrol/pkg/version"
)

var ProviderSet = wire.NewSet(NewRouter)

type Router struct {
	Http     http.Http
	Services *service.Services
	Exporter *export.Exporter
	Metrics  *metrics.Server
	Kontrol  *metrics.Kontrol
}

func NewRouter(cfg http.Http, services *service.Services, exporter *export.Exporter, ms *metrics.Server, k *metrics.Kontrol) *Router {
	return &Router{
		Http:     cfg,
		Services: services,
		Exporter: exporter,
		Metrics:  ms,
		Kontrol:  k,
	}
}

func (rt *Router) Router() *fiber.App {
	app := http.NewApp(rt.Http)

	app.Use(middleware.RequestID())

	// panic recover
	app.Use(middleware.ExceptionMiddleware)

	app.Use(middleware.CorsMiddleware())

	if rt.Http.AccessLog {
		app.Use(middleware.AccessLog("/metrics"))
	}

	app.Use(middleware.RequestMetrics(rt.Kontrol))

	// unified response
	app.Use(middleware.UnifiedResponseMiddleware())

	if rt.Http.ExposeMetrics && rt.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(rt.Metrics.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		c.Locals(http.DETAIL, version.GetVersion())
		return nil
	})

	api := app.Group(rt.Http.ContextPath)
	rt.routerGroup(api)

	return app
}

func (rt *Router) routerGroup(r fiber.Router) {
	auth := middleware.AuthorizationMiddleware(rt.Http.Auth.SecretKey, rt.verify)

	rt.authRouter(r, auth)
	rt.projectRouter(r, auth)
	rt.defectRouter(r, auth)

	r.Get("/analytics/status", auth, rt.statusAnalytics)
	r.Get("/workflow", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/vnd.graphviz; charset=utf-8")
		return c.SendString(workflow.ToDot())
	})
}

func (rt *Router) verify(c *fiber.Ctx, claims *jwt.AuthClaims) (any, error) {
	actor, err := rt.Services.User.Verify(c.UserContext(), claims)
	if err != nil {
		return nil, err
	}
	return actor, nil
}

// actor returns the identity the auth middleware resolved, nil on public routes.
func actor(c *fiber.Ctx) *policy.Actor {
	a, _ := c.Locals(http.ACTOR).(*policy.Actor)
	return a
}

func claims(c *fiber.Ctx) *jwt.AuthClaims {
	cl, _ := c.Locals(http.CLAIMS).(*jwt.AuthClaims)
	return cl
}

// labels picks the display language from Accept-Language.
func (rt *Router) labels(c *fiber.Ctx) model.Labels {
	catalog := rt.Services.Catalog
	return model.NewLabels(catalog, catalog.Match(c.Get(fiber.HeaderAcceptLanguage)))
}

// fail maps domain errors to the error envelope. Anything unrecognised is
// logged and answered with a bare 500.
func fail(c *fiber.Ctx, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.WithRepErrFields(c, fiber.StatusBadRequest, http.ValidationFailed.Code, http.ValidationFailed.Msg, verr.Fields)
	case errors.Is(err, model.ErrValidationFailed):
		return http.WithRepErrStatus(c, fiber.StatusBadRequest, http.ValidationFailed.Code, err.Error())
	case errors.Is(err, service.ErrBadCredentials):
		return http.WithRepErrStatus(c, fiber.StatusUnauthorized, http.AuthenticationFailed.Code, http.AuthenticationFailed.Msg)
	case errors.Is(err, model.ErrUnauthenticated):
		return http.WithRepErrStatus(c, fiber.StatusUnauthorized, http.Unauthorized.Code, http.Unauthorized.Msg)
	case errors.Is(err, model.ErrForbidden):
		return http.WithRepErrStatus(c, fiber.StatusForbidden, http.Forbidden.Code, http.Forbidden.Msg)
	case errors.Is(err, model.ErrNotFound):
		return http.WithRepErrStatus(c, fiber.StatusNotFound, http.NotFound.Code, http.NotFound.Msg)
	case errors.Is(err, model.ErrConflict):
		return http.WithRepErrStatus(c, fiber.StatusConflict, http.Conflict.Code, http.Conflict.Msg)
	default:
		log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "requestId", c.Locals(http.REQUESTID), "error", err)
		return http.WithRepErrStatus(c, fiber.StatusInternalServerError, http.InternalError.Code, http.InternalError.Msg)
	}
}

func badBody(c *fiber.Ctx, err error) error {
	return http.WithRepErrStatus(c, fiber.StatusBadRequest, http.RequestParameterParsingFailed.Code, err.Error())
}

// paramID reads a positive integer path parameter. A malformed id cannot
// name anything, so it answers 404.
func paramID(c *fiber.Ctx, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	return v, err == nil && v > 0
}

func notFound(c *fiber.Ctx) error {
	return http.WithRepErrStatus(c, fiber.StatusNotFound, http.NotFound.Code, http.NotFound.Msg)
}
