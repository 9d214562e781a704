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

package database

import (
	"github.com/google/wire"

	"github.com/sistemakontrol/kontrol/pkg/log"
)

// ProviderSet opens the database and brings its schema up to date.
var ProviderSet = wire.NewSet(ProvideDatabase)

func ProvideDatabase(cfg Database) (IDatabase, func(), error) {
	db, err := NewDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Errorw("failed to close database", "error", err)
		}
	}
	return db, cleanup, nil
}
