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

package statemachine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrInvalidTransition is returned when no edge exists between two states.
var ErrInvalidTransition = errors.New("invalid transition")

// StateMachine is a generic transition table. It holds no current state:
// callers pass the state they own, so one machine can be shared by every
// entity of the same kind.
//
// Declaration order of states and edges is preserved, so GetValidNextStates,
// GetAllStates and ToDot are deterministic.
//
// The StateMachine is safe for concurrent use.
type StateMachine[T comparable] struct {
	mu sync.RWMutex

	states      []T
	transitions map[T][]T
}

// New creates an empty StateMachine.
func New[T comparable]() *StateMachine[T] {
	return &StateMachine[T]{
		transitions: make(map[T][]T),
	}
}

// Allow registers edges from one state to each of to. Calling Allow with no
// targets declares a terminal state.
func (sm *StateMachine[T]) Allow(from T, to ...T) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.addState(from)
	for _, t := range to {
		sm.addState(t)
		if !slices.Contains(sm.transitions[from], t) {
			sm.transitions[from] = append(sm.transitions[from], t)
		}
	}
	return sm
}

func (sm *StateMachine[T]) addState(s T) {
	if !slices.Contains(sm.states, s) {
		sm.states = append(sm.states, s)
	}
	if _, ok := sm.transitions[s]; !ok {
		sm.transitions[s] = nil
	}
}

// CanTransition reports whether an edge from -> to exists.
func (sm *StateMachine[T]) CanTransition(from, to T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Contains(sm.transitions[from], to)
}

// GetValidNextStates returns a copy of the outgoing edges of from.
func (sm *StateMachine[T]) GetValidNextStates(from T) []T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.transitions[from])
}

// GetAllStates returns every declared state in declaration order.
func (sm *StateMachine[T]) GetAllStates() []T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.states)
}

// IsTerminal reports whether s is declared and has no outgoing edges.
func (sm *StateMachine[T]) IsTerminal(s T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	next, ok := sm.transitions[s]
	return ok && len(next) == 0
}

// Transition checks that from -> to is an edge. It does not mutate
// anything itself: the caller stores the new state.
func (sm *StateMachine[T]) Transition(from, to T) error {
	if !sm.CanTransition(from, to) {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, from, to)
	}
	return nil
}

// ToDot exports the graph in Graphviz DOT format. Terminal states are drawn
// as double circles.
func (sm *StateMachine[T]) ToDot(name string) string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", name)
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle];\n")
	for _, s := range sm.states {
		if len(sm.transitions[s]) == 0 {
			fmt.Fprintf(&b, "  %q [shape=doublecircle];\n", fmt.Sprint(s))
		}
	}
	for _, from := range sm.states {
		for _, to := range sm.transitions[from] {
			fmt.Fprintf(&b, "  %q -> %q;\n", fmt.Sprint(from), fmt.Sprint(to))
		}
	}
	b.WriteString("}\n")
	return b.String()
}
