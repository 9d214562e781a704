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

// Package shutdown runs cleanup hooks once, in reverse registration order,
// when the process is asked to stop.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/sistemakontrol/kontrol/pkg/log"
)

// Hook releases one resource. Errors are logged; later hooks still run.
type Hook func(ctx context.Context) error

type hook struct {
	name string
	fn   Hook
}

type Manager struct {
	shuttingDown atomic.Bool
	mu           sync.Mutex
	hooks        []hook
	done         chan struct{}
}

func NewManager() *Manager {
	return &Manager{done: make(chan struct{})}
}

// Add registers fn under name. Hooks added last run first.
func (m *Manager) Add(name string, fn Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: fn})
}

func (m *Manager) IsShuttingDown() bool {
	return m.shuttingDown.Load()
}

// Shutdown runs the hooks. Only the first call does any work; it returns
// false for the others.
func (m *Manager) Shutdown(ctx context.Context) bool {
	if !m.shuttingDown.CompareAndSwap(false, true) {
		return false
	}
	defer close(m.done)

	m.mu.Lock()
	hooks := make([]hook, len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.fn(ctx); err != nil {
			log.Errorw("shutdown hook failed", "hook", h.name, "error", err)
			continue
		}
		log.Debugw("shutdown hook done", "hook", h.name)
	}
	return true
}

// Done is closed after Shutdown has run every hook.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// WaitForSignal blocks until SIGINT, SIGTERM, SIGHUP or SIGQUIT arrives, or
// ctx is cancelled, and returns what stopped it.
func WaitForSignal(ctx context.Context) string {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		return sig.String()
	case <-ctx.Done():
		return ctx.Err().Error()
	}
}
