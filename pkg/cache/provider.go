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

package cache

import (
	"time"

	"github.com/google/wire"

	"github.com/sistemakontrol/kontrol/pkg/log"
)

const (
	ModeMemory   = "memory"
	ModeSingle   = "single"
	ModeSentinel = "sentinel"
)

var ProviderSet = wire.NewSet(ProvideCache)

// Conf selects the backend. Memory mode keeps everything in-process and
// needs no server, so sessions do not survive a restart.
type Conf struct {
	Mode             string
	Prefix           string
	LocalMaxBytes    int
	Address          string
	Password         string
	DB               int
	PoolSize         int
	UseTLS           bool
	MasterName       string
	SentinelUsername string
	SentinelPassword string
	DialTimeout      time.Duration // seconds
	ReadTimeout      time.Duration // seconds
	WriteTimeout     time.Duration // seconds
}

// ProvideCache builds the configured backend. The cleanup closes the redis
// connection pool when one was opened.
func ProvideCache(cfg Conf) (ICache, func(), error) {
	switch cfg.Mode {
	case ModeMemory, "":
		log.Infow("using in-process cache", "maxBytes", cfg.LocalMaxBytes)
		fc := NewFastCache(cfg.LocalMaxBytes)
		return fc, fc.Reset, nil
	default:
		client, err := NewRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisCache(client), func() { _ = client.Close() }, nil
	}
}
