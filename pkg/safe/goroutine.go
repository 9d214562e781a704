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

// Package safe keeps a panic in background work from taking the process down.
package safe

import (
	"fmt"
	"runtime/debug"

	"github.com/sistemakontrol/kontrol/pkg/log"
)

// Run calls fn and turns a panic into an error carrying the stack.
func Run(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v\n%s", name, r, debug.Stack())
		}
	}()
	return fn()
}

// Go runs fn in a goroutine and logs its failure or panic.
func Go(name string, fn func() error) {
	go func() {
		if err := Run(name, fn); err != nil {
			log.Errorw("background task failed", "task", name, "error", err)
		}
	}()
}
