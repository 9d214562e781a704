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

package id

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GetUUID returns a random UUID string, used for request ids and token ids.
func GetUUID() string {
	return uuid.NewString()
}

// GetUUIDWithoutDashes returns a UUID with the dashes stripped.
func GetUUIDWithoutDashes() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GetUlid returns a lexicographically sortable id. Blob keys use it so a
// directory listing comes back in upload order.
func GetUlid() string {
	return ulid.Make().String()
}

// UlidTime extracts the timestamp encoded in a ulid string.
func UlidTime(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}

// ShortId returns a short url-safe id, or a truncated ulid if the generator fails.
func ShortId() string {
	id, err := shortid.Generate()
	if err != nil {
		return strings.ToLower(GetUlid()[16:])
	}
	return id
}
