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

package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sistemakontrol/kontrol/pkg/log"
	"github.com/sistemakontrol/kontrol/pkg/safe"
)

var ProviderSet = wire.NewSet(ProvideServer, ProvideKontrol, ProvideCron)

// MetricsConfig configures exposition. With Port zero the registry is only
// served through Handler, mounted on the main HTTP server.
type MetricsConfig struct {
	Host   string
	Port   int
	Enable bool
}

// Server owns the registry and, when a port is set, a dedicated listener.
type Server struct {
	config     MetricsConfig
	server     *http.Server
	registry   *prometheus.Registry
	collectors []prometheus.Collector
	mu         sync.Mutex
}

func NewServer(config MetricsConfig) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		config:   config,
		registry: registry,
	}
}

func ProvideServer(config MetricsConfig) *Server {
	return NewServer(config)
}

func ProvideKontrol(s *Server) (*Kontrol, error) {
	k := NewKontrol()
	for _, c := range k.Collectors() {
		if err := s.RegisterCollector(c); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func ProvideCron(s *Server) (*CronMetrics, error) {
	m := NewCronMetrics()
	for _, c := range m.Collectors() {
		if err := s.RegisterCollector(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (s *Server) RegisterCollector(collector prometheus.Collector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.Register(collector); err != nil {
		return fmt.Errorf("failed to register collector: %w", err)
	}
	s.collectors = append(s.collectors, collector)
	return nil
}

func (s *Server) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Enabled reports whether metrics are exposed at all.
func (s *Server) Enabled() bool {
	return s.config.Enable
}

// Start launches the dedicated listener when one is configured.
func (s *Server) Start() error {
	if !s.config.Enable {
		log.Info("metrics exposition is disabled")
		return nil
	}
	if s.config.Port == 0 {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Handler())

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	srv := s.server
	log.Infow("metrics server started", "address", addr)
	safe.Go("metrics-server", func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func (s *Server) GetRegistry() *prometheus.Registry {
	return s.registry
}
