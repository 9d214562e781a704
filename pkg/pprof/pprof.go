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

// Package pprof serves net/http/pprof on a separate listener so profiles
// are never reachable through the public API port.
package pprof

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/google/wire"

	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/safe"
)

var ProviderSet = wire.NewSet(NewServer)

type Conf struct {
	Enable bool
	Host   string
	Port   int
	Path   string
}

func (c Conf) withDefaults() Conf {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 6060
	}
	if c.Path == "" {
		c.Path = "/debug/pprof"
	}
	return c
}

type Server struct {
	conf   Conf
	server *http.Server
}

func NewServer(c Conf) *Server {
	return &Server{conf: c.withDefaults()}
}

// Handler returns the profile mux rooted at Conf.Path.
func (s *Server) Handler() http.Handler {
	p := s.conf.Path
	mux := http.NewServeMux()
	mux.HandleFunc(p+"/", pprof.Index)
	mux.HandleFunc(p+"/cmdline", pprof.Cmdline)
	mux.HandleFunc(p+"/profile", pprof.Profile)
	mux.HandleFunc(p+"/symbol", pprof.Symbol)
	mux.HandleFunc(p+"/trace", pprof.Trace)
	return mux
}

// Start binds the listener and serves in the background. A disabled server
// is a no-op.
func (s *Server) Start() error {
	if !s.conf.Enable {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", s.conf.Host, s.conf.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("pprof listen %s: %w", addr, err)
	}
	s.server = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}

	srv := s.server
	log.Infow("pprof server started", "address", addr, "path", s.conf.Path)
	safe.Go("pprof-server", func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
