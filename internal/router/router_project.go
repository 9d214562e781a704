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

func (rt *Router) projectRouter(r fiber.Router, auth fiber.Handler) {
	projectGroup := r.Group("/projects", auth)
	{
		projectGroup.Get("/", rt.listProjects)
		projectGroup.Post("/", rt.createProject)
		projectGroup.Get("/:projectId", rt.getProject)
		projectGroup.Put("/:projectId", rt.updateProject)
		projectGroup.Delete("/:projectId", rt.deleteProject)

		projectGroup.Get("/:projectId/stages", rt.listStages)
		projectGroup.Post("/:projectId/stages", rt.createStage)
		projectGroup.Put("/:projectId/stages/:stageId", rt.updateStage)
		projectGroup.Delete("/:projectId/stages/:stageId", rt.deleteStage)
	}
}

func (rt *Router) listProjects(c *fiber.Ctx) error {
	projects, err := rt.Services.Project.List(c.UserContext(), actor(c))
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, projects)
	return nil
}

func (rt *Router) getProject(c *fiber.Ctx) error {
	id, ok := paramID(c, "projectId")
	if !ok {
		return notFound(c)
	}

	project, err := rt.Services.Project.Get(c.UserContext(), actor(c), id)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, project)
	return nil
}

func (rt *Router) createProject(c *fiber.Ctx) error {
	req := new(model.ProjectReq)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	project, err := rt.Services.Project.Create(c.UserContext(), actor(c), req)
	if err != nil {
		return fail(c, err)
	}

	c.Status(fiber.StatusCreated)
	c.Locals(http.DETAIL, project)
	return nil
}

func (rt *Router) updateProject(c *fiber.Ctx) error {
	id, ok := paramID(c, "projectId")
	if !ok {
		return notFound(c)
	}
	req := new(model.ProjectReq)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	project, err := rt.Services.Project.Update(c.UserContext(), actor(c), id, req)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, project)
	return nil
}

func (rt *Router) deleteProject(c *fiber.Ctx) error {
	id, ok := paramID(c, "projectId")
	if !ok {
		return notFound(c)
	}

	if err := rt.Services.Project.Delete(c.UserContext(), actor(c), id); err != nil {
		return fail(c, err)
	}

	c.Locals(http.OPERATION, "")
	return nil
}

func (rt *Router) listStages(c *fiber.Ctx) error {
	id, ok := paramID(c, "projectId")
	if !ok {
		return notFound(c)
	}

	stages, err := rt.Services.Project.ListStages(c.UserContext(), actor(c), id)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, stages)
	return nil
}

func (rt *Router) createStage(c *fiber.Ctx) error {
	id, ok := paramID(c, "projectId")
	if !ok {
		return notFound(c)
	}
	req := new(model.StageReq)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	stage, err := rt.Services.Project.CreateStage(c.UserContext(), actor(c), id, req)
	if err != nil {
		return fail(c, err)
	}

	c.Status(fiber.StatusCreated)
	c.Locals(http.DETAIL, stage)
	return nil
}

func (rt *Router) updateStage(c *fiber.Ctx) error {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return notFound(c)
	}
	stageID, ok := paramID(c, "stageId")
	if !ok {
		return notFound(c)
	}
	req := new(model.StageReq)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	stage, err := rt.Services.Project.UpdateStage(c.UserContext(), actor(c), projectID, stageID, req)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, stage)
	return nil
}

func (rt *Router) deleteStage(c *fiber.Ctx) error {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return notFound(c)
	}
	stageID, ok := paramID(c, "stageId")
	if !ok {
		return notFound(c)
	}

	if err := rt.Services.Project.DeleteStage(c.UserContext(), actor(c), projectID, stageID); err != nil {
		return fail(c, err)
	}

	c.Locals(http.OPERATION, "")
	return nil
}
