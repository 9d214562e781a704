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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastCache_SetGetDel(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(0)

	_, err := fc.Get(ctx, "k").Result()
	assert.ErrorIs(t, err, redis.Nil)

	require.NoError(t, fc.Set(ctx, "k", "v", 0).Err())
	v, err := fc.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, int64(1), fc.Exists(ctx, "k", "missing").Val())

	assert.Equal(t, int64(1), fc.Del(ctx, "k", "missing").Val())
	assert.Equal(t, int64(0), fc.Exists(ctx, "k").Val())
}

func TestFastCache_Expiration(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(0)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	fc.now = func() time.Time { return now }

	fc.Set(ctx, "k", "v", time.Minute)
	assert.Equal(t, "v", fc.Get(ctx, "k").Val())

	now = now.Add(time.Minute)
	assert.ErrorIs(t, fc.Get(ctx, "k").Err(), redis.Nil)
}

func TestFastCache_SetStruct(t *testing.T) {
	ctx := context.Background()
	fc := NewFastCache(0)

	require.NoError(t, fc.Set(ctx, "k", map[string]int{"a": 1}, 0).Err())
	assert.JSONEq(t, `{"a":1}`, fc.Get(ctx, "k").Val())
}

func TestCachedQuery_GetAndInvalidate(t *testing.T) {
	ctx := context.Background()
	cq := NewCachedQuery[map[string]int](NewFastCache(0), "test:counts")

	loads := 0
	load := func(context.Context) (map[string]int, error) {
		loads++
		return map[string]int{"new": loads}, nil
	}

	got, err := cq.Get(ctx, "all", load)
	require.NoError(t, err)
	assert.Equal(t, 1, got["new"])

	got, err = cq.Get(ctx, "all", load)
	require.NoError(t, err)
	assert.Equal(t, 1, got["new"], "second read is served from cache")

	require.NoError(t, cq.Invalidate(ctx))
	got, err = cq.Get(ctx, "all", load)
	require.NoError(t, err)
	assert.Equal(t, 2, got["new"])
	assert.Equal(t, 2, loads)
}

func TestCachedQuery_LoadError(t *testing.T) {
	boom := errors.New("boom")
	cq := NewCachedQuery[int](NewFastCache(0), "test:err")

	_, err := cq.Get(context.Background(), "k", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestProvideCache_Memory(t *testing.T) {
	c, cleanup, err := ProvideCache(Conf{Mode: ModeMemory})
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &FastCache{}, c)
}

func TestProvideCache_UnsupportedMode(t *testing.T) {
	_, _, err := ProvideCache(Conf{Mode: "cluster"})
	assert.ErrorContains(t, err, "unsupported redis mode")
}
