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
	"bytes"
	"fmt"
	"mime"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sistemakontrol/kontrol/internal/export"
	"github.com/sistemakontrol/kontrol/internal/model"
	"github.com/sistemakontrol/kontrol/internal/service"
	"github.com/sistemakontrol/kontrol/pkg/http"
)

func (rt *Router) defectRouter(r fiber.Router, auth fiber.Handler) {
	defectGroup := r.Group("/defects", auth)
	{
		defectGroup.Get("/", rt.listDefects)
		defectGroup.Post("/", rt.createDefect)
		// must precede /:defectId
		defectGroup.Get("/export", rt.exportDefects)

		defectGroup.Get("/:defectId", rt.getDefect)
		defectGroup.Patch("/:defectId", rt.updateDefect)
		defectGroup.Delete("/:defectId", rt.deleteDefect)

		defectGroup.Post("/:defectId/status", rt.transitionDefect)
		defectGroup.Post("/:defectId/comments", rt.addComment)
		defectGroup.Post("/:defectId/attachments", rt.uploadAttachment)
		defectGroup.Get("/:defectId/attachments/:attachmentId", rt.downloadAttachment)
	}
}

// defectQuery reads list filters from the query string. Unknown sort keys
// fall back to the default order, unknown enum values are rejected.
func defectQuery(c *fiber.Ctx) (model.DefectQuery, error) {
	q := model.DefectQuery{
		Search:   c.Query("q"),
		Sort:     c.Query("sort"),
		PageNum:  c.QueryInt("pageNum", 1),
		PageSize: c.QueryInt("pageSize", model.DefaultPageSize),
	}

	verr := &model.ValidationError{}
	if v := c.Query("status"); v != "" {
		s, err := model.ParseStatus(v)
		if err != nil {
			verr.Add("status", fmt.Sprintf("unknown status %q", v))
		}
		q.Status = s
	}
	if v := c.Query("priority"); v != "" {
		p, err := model.ParsePriority(v)
		if err != nil {
			verr.Add("priority", fmt.Sprintf("unknown priority %q", v))
		}
		q.Priority = p
	}
	for _, f := range []struct {
		name string
		dst  **uint64
	}{
		{"executor", &q.ExecutorID},
		{"project", &q.ProjectID},
	} {
		v := c.Query(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			verr.Add(f.name, "must be a positive integer")
			continue
		}
		*f.dst = &n
	}
	return q, verr.OrNil()
}

func (rt *Router) listDefects(c *fiber.Ctx) error {
	q, err := defectQuery(c)
	if err != nil {
		return fail(c, err)
	}

	page, err := rt.Services.Defect.List(c.UserContext(), actor(c), q)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, page)
	return nil
}

func (rt *Router) exportDefects(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return fail(c, err)
	}
	q, err := defectQuery(c)
	if err != nil {
		return fail(c, err)
	}

	defects, err := rt.Services.Defect.ListAll(c.UserContext(), actor(c), q)
	if err != nil {
		return fail(c, err)
	}

	var buf bytes.Buffer
	if err := rt.Exporter.Write(&buf, format, defects, rt.labels(c)); err != nil {
		return fail(c, err)
	}

	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": format.Filename()}))
	return c.Send(buf.Bytes())
}

func (rt *Router) getDefect(c *fiber.Ctx) error {
	id, ok := paramID(c, "defectId")
	if !ok {
		return notFound(c)
	}

	detail, err := rt.Services.Defect.Get(c.UserContext(), actor(c), id)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, detail)
	return nil
}

func (rt *Router) createDefect(c *fiber.Ctx) error {
	req := new(model.DefectReq)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	defect, err := rt.Services.Defect.Create(c.UserContext(), actor(c), req)
	if err != nil {
		return fail(c, err)
	}

	c.Status(fiber.StatusCreated)
	c.Locals(http.DETAIL, defect)
	return nil
}

func (rt *Router) updateDefect(c *fiber.Ctx) error {
	id, ok := paramID(c, "defectId")
	if !ok {
		return notFound(c)
	}
	req := new(model.DefectReq)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	defect, err := rt.Services.Defect.Update(c.UserContext(), actor(c), id, req)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, defect)
	return nil
}

func (rt *Router) deleteDefect(c *fiber.Ctx) error {
	id, ok := paramID(c, "defectId")
	if !ok {
		return notFound(c)
	}

	if err := rt.Services.Defect.Delete(c.UserContext(), actor(c), id); err != nil {
		return fail(c, err)
	}

	c.Locals(http.OPERATION, "")
	return nil
}

func (rt *Router) transitionDefect(c *fiber.Ctx) error {
	id, ok := paramID(c, "defectId")
	if !ok {
		return notFound(c)
	}
	req := new(model.StatusReq)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	defect, err := rt.Services.Defect.Transition(c.UserContext(), actor(c), id, req.Status)
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, defect)
	return nil
}

func (rt *Router) addComment(c *fiber.Ctx) error {
	id, ok := paramID(c, "defectId")
	if !ok {
		return notFound(c)
	}
	req := new(model.CommentReq)
	if err := c.BodyParser(req); err != nil {
		return badBody(c, err)
	}

	comment, err := rt.Services.Defect.AddComment(c.UserContext(), actor(c), id, req.Text)
	if err != nil {
		return fail(c, err)
	}

	c.Status(fiber.StatusCreated)
	c.Locals(http.DETAIL, comment)
	return nil
}

func (rt *Router) uploadAttachment(c *fiber.Ctx) error {
	id, ok := paramID(c, "defectId")
	if !ok {
		return notFound(c)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, model.NewValidationError("file", "file is required"))
	}
	f, err := fh.Open()
	if err != nil {
		return badBody(c, err)
	}
	defer func() { _ = f.Close() }()

	att, err := rt.Services.Defect.Attach(c.UserContext(), actor(c), id, service.Upload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Body:        f,
	})
	if err != nil {
		return fail(c, err)
	}

	c.Status(fiber.StatusCreated)
	c.Locals(http.DETAIL, att)
	return nil
}

func (rt *Router) downloadAttachment(c *fiber.Ctx) error {
	defectID, ok := paramID(c, "defectId")
	if !ok {
		return notFound(c)
	}
	attachmentID, ok := paramID(c, "attachmentId")
	if !ok {
		return notFound(c)
	}

	att, body, err := rt.Services.Defect.Download(c.UserContext(), actor(c), defectID, attachmentID)
	if err != nil {
		return fail(c, err)
	}

	contentType := att.MimeType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": att.Name}))
	// the response closes body once it has been streamed
	return c.SendStream(body, int(att.Size))
}

func (rt *Router) statusAnalytics(c *fiber.Ctx) error {
	counts, err := rt.Services.Analytics.StatusCounts(c.UserContext(), actor(c), rt.labels(c))
	if err != nil {
		return fail(c, err)
	}

	c.Locals(http.DETAIL, counts)
	return nil
}
