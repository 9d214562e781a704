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

package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"github.com/sistemakontrol/kontrol/pkg/log"
)

// Locals keys shared by handlers and the unified response middleware.
const (
	DETAIL    = "detail"
	OPERATION = "operation"
	ACTOR     = "actor"
	CLAIMS    = "claims"
	REQUESTID = "requestId"
)

type Http struct {
	Host            string
	Port            int
	ContextPath     string
	ExposeMetrics   bool
	AccessLog       bool
	BodyLimitMB     int
	ReadTimeout     int // seconds
	WriteTimeout    int // seconds
	IdleTimeout     int // seconds
	ShutdownTimeout int // seconds
	TLS             TLS
	Auth            Auth
}

type TLS struct {
	CertFile string
	KeyFile  string
}

type Auth struct {
	SecretKey    string
	AccessExpire time.Duration // minutes
	KeyPrefix    string
}

func (h Http) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// NewApp creates a fiber app with sonic as the JSON codec and errors
// rendered as ResponseErr.
func NewApp(cfg Http) *fiber.App {
	bodyLimit := cfg.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 20
	}
	return fiber.New(fiber.Config{
		AppName:               "kontrol",
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit * 1024 * 1024,
		ReadTimeout:           time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:           time.Duration(cfg.IdleTimeout) * time.Second,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          errorHandler,
	})
}

// errorHandler renders errors that escaped the handlers, including fiber's
// own (404 route, 413 body too large).
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Errorw("request failed", "path", c.Path(), "error", err)
		return WithRepErrStatus(c, code, InternalError.Code, InternalError.Msg)
	}
	return WithRepErrStatus(c, code, code, err.Error())
}

// Serve listens in the background and returns a function that shuts the
// app down within the configured timeout.
func Serve(app *fiber.App, cfg Http) func() {
	go func() {
		log.Infow("http server started", "address", cfg.Addr())
		var err error
		if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
			err = app.ListenTLS(cfg.Addr(), cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = app.Listen(cfg.Addr())
		}
		if err != nil {
			log.Errorw("http server stopped", "error", err)
		}
	}()

	return func() {
		timeout := time.Duration(cfg.ShutdownTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		if err := app.ShutdownWithTimeout(timeout); err != nil {
			log.Errorw("http server shutdown error", "error", err)
			return
		}
		log.Info("http server shut down gracefully")
	}
}
