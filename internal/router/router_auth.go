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
	"github.com/gofiber/fiber/v2"

	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/pkg/http"
)

func (rt *Router) authRouter(r fiber.Router, auth fiber.Handler) {
	authGroup := r.Group("/auth")
	{
		authGroup.Post("/register", rt.register)
		authGroup.Post("/login", rt.login)
		authGroup.Post("/logout", auth, rt.logout)
	}

	userGroup := r.Group("/users", auth)
	{
		userGroup.Get("/me", rt.me)
		userGroup.Get("/executors", rt.listExecutors)
	}
}

func (rt *Router) register(c *fiber.Ctx) error {
	req := new(model.Register)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	info, err := rt.Services.User.Register(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}

	c.Status(fiber.StatusCreated)
	c.Locals(http.DETAIL, info)
	return nil
}

func (rt *Router) login(c *fiber.Ctx) error {
	req := new(model.Login)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	resp, err := rt.Services.User.Login(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, resp)
	return nil
}

func (rt *Router) logout(c *fiber.Ctx) error {
	if err := rt.Services.User.Logout(c.UserContext(), claims(c)); err != nil {
		return fail(c, err)
	}

	c.Locals(http.OPERATION, "")
	return nil
}

func (rt *Router) me(c *fiber.Ctx) error {
	info, err := rt.Services.User.Me(c.UserContext(), actor(c))
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, info)
	return nil
}

func (rt *Router) listExecutors(c *fiber.Ctx) error {
	users, err := rt.Services.User.ListExecutors(c.UserContext(), actor(c))
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, users)
	return nil
}
