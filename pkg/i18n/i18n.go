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
	"sync"

	"golang.org/x/text/language"
)

// Catalog maps message ids to localized strings per language.
// Lookups fall back to the default language, then to the message id.
type Catalog struct {
	mu       sync.RWMutex
	fallback language.Tag
	tags     []language.Tag
	messages map[language.Tag]map[string]string
	matcher  language.Matcher
}

// NewCatalog creates a catalog whose fallback language is def.
func NewCatalog(def language.Tag) *Catalog {
	return &Catalog{
		fallback: def,
		messages: make(map[language.Tag]map[string]string),
	}
}

// Register adds or replaces messages for tag.
func (c *Catalog) Register(tag language.Tag, messages map[string]string) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.messages[tag]
	if !ok {
		m = make(map[string]string, len(messages))
		c.messages[tag] = m
		// the fallback must be first so the matcher prefers it on ties
		if tag == c.fallback {
			c.tags = append([]language.Tag{tag}, c.tags...)
		} else {
			c.tags = append(c.tags, tag)
		}
		c.matcher = nil
	}
	for k, v := range messages {
		m[k] = v
	}
	return c
}

// Fallback returns the default language.
func (c *Catalog) Fallback() language.Tag {
	return c.fallback
}

// Match picks the best registered language for an Accept-Language header.
func (c *Catalog) Match(acceptLanguage string) language.Tag {
	c.mu.Lock()
	if c.matcher == nil {
		tags := c.tags
		if len(tags) == 0 {
			tags = []language.Tag{c.fallback}
		}
		c.matcher = language.NewMatcher(tags)
	}
	matcher := c.matcher
	c.mu.Unlock()

	if acceptLanguage == "" {
		return c.fallback
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return c.fallback
	}
	_, idx, conf := matcher.Match(desired...)
	if conf == language.No {
		return c.fallback
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx < 0 || idx >= len(c.tags) {
		return c.fallback
	}
	return c.tags[idx]
}

// Lookup returns the message for id in tag.
func (c *Catalog) Lookup(tag language.Tag, id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, ok := c.messages[tag]; ok {
		if v, ok := m[id]; ok {
			return v
		}
	}
	if m, ok := c.messages[c.fallback]; ok {
		if v, ok := m[id]; ok {
			return v
		}
	}
	return id
}
