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

package model

import (
	"golang.org/x/text/language"

	"github.com/sistemakontrol/kontrol/pkg/i18n"
)

var ruMessages = map[string]string{
	"status.new":         "Новая",
	"status.in_progress": "В работе",
	"status.on_review":   "На проверке",
	"status.closed":      "Закрыта",
	"status.cancelled":   "Отменена",

	"priority.low":    "Низкий",
	"priority.medium": "Средний",
	"priority.high":   "Высокий",

	"action.created":          "Создан",
	"action.updated":          "Изменён",
	"action.status_changed":   "Изменён статус",
	"action.comment_added":    "Добавлен комментарий",
	"action.attachment_added": "Добавлено вложение",

	"role.engineer": "Инженер",
	"role.manager":  "Менеджер",
	"role.customer": "Руководитель (Заказчик)",

	"column.id":          "ID",
	"column.project":     "Проект",
	"column.title":       "Заголовок",
	"column.description": "Описание",
	"column.priority":    "Приоритет",
	"column.status":      "Статус",
	"column.executor":    "Исполнитель",
	"column.deadline":    "Срок",
	"column.created":     "Создано",
}

var enMessages = map[string]string{
	"status.new":         "New",
	"status.in_progress": "In progress",
	"status.on_review":   "On review",
	"status.closed":      "Closed",
	"status.cancelled":   "Cancelled",

	"priority.low":    "Low",
	"priority.medium": "Medium",
	"priority.high":   "High",

	"action.created":          "Created",
	"action.updated":          "Updated",
	"action.status_changed":   "Status changed",
	"action.comment_added":    "Comment added",
	"action.attachment_added": "Attachment added",

	"role.engineer": "Engineer",
	"role.manager":  "Manager",
	"role.customer": "Customer",

	"column.id":          "ID",
	"column.project":     "Project",
	"column.title":       "Title",
	"column.description": "Description",
	"column.priority":    "Priority",
	"column.status":      "Status",
	"column.executor":    "Executor",
	"column.deadline":    "Deadline",
	"column.created":     "Created",
}

// NewCatalog returns the label catalog with def as the fallback language.
// Unsupported tags fall back to Russian.
func NewCatalog(def language.Tag) *i18n.Catalog {
	if def != language.English {
		def = language.Russian
	}
	return i18n.NewCatalog(def).
		Register(language.Russian, ruMessages).
		Register(language.English, enMessages)
}

// Labels renders enum values in one language.
type Labels struct {
	catalog *i18n.Catalog
	tag     language.Tag
}

func NewLabels(catalog *i18n.Catalog, tag language.Tag) Labels {
	return Labels{catalog: catalog, tag: tag}
}

// DefaultLabels uses the catalog's fallback language.
func DefaultLabels(catalog *i18n.Catalog) Labels {
	return Labels{catalog: catalog, tag: catalog.Fallback()}
}

func (l Labels) Tag() language.Tag { return l.tag }

func (l Labels) Status(s DefectStatus) string {
	return l.catalog.Lookup(l.tag, "status."+string(s))
}

func (l Labels) Priority(p Priority) string {
	return l.catalog.Lookup(l.tag, "priority."+string(p))
}

func (l Labels) Action(a HistoryAction) string {
	return l.catalog.Lookup(l.tag, "action."+string(a))
}

func (l Labels) Role(r Role) string {
	return l.catalog.Lookup(l.tag, "role."+string(r))
}

func (l Labels) Column(name string) string {
	return l.catalog.Lookup(l.tag, "column."+name)
}
