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

package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func newTestCatalog() *Catalog {
	return NewCatalog(language.Russian).
		Register(language.English, map[string]string{"hello": "Hello"}).
		Register(language.Russian, map[string]string{"hello": "Привет", "only.ru": "только"})
}

func TestCatalog_Match(t *testing.T) {
	c := newTestCatalog()

	tests := []struct {
		header string
		want   language.Tag
	}{
		{"", language.Russian},
		{"en-US,en;q=0.9", language.English},
		{"ru-RU", language.Russian},
		{"de-DE", language.Russian},
		{"not a header;;", language.Russian},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Match(tt.header))
		})
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := newTestCatalog()

	assert.Equal(t, "Hello", c.Lookup(language.English, "hello"))
	assert.Equal(t, "Привет", c.Lookup(language.Russian, "hello"))
	assert.Equal(t, "только", c.Lookup(language.English, "only.ru"))
	assert.Equal(t, "missing", c.Lookup(language.English, "missing"))
}
