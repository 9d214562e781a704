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
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/sistemakontrol/kontrol/pkg/log"
)

// QueryFunc loads the value on a cache miss.
type QueryFunc[T any] func(ctx context.Context) (T, error)

// CachedQuery is a cache-aside reader over one key namespace. Invalidate
// bumps the namespace generation, which orphans every key written before it
// without having to enumerate them.
type CachedQuery[T any] struct {
	cache     ICache
	namespace string
	ttl       time.Duration
	logPrefix string
}

type CachedQueryOption[T any] func(*CachedQuery[T])

func WithTTL[T any](ttl time.Duration) CachedQueryOption[T] {
	return func(cq *CachedQuery[T]) {
		cq.ttl = ttl
	}
}

func WithLogPrefix[T any](prefix string) CachedQueryOption[T] {
	return func(cq *CachedQuery[T]) {
		cq.logPrefix = prefix
	}
}

func NewCachedQuery[T any](cache ICache, namespace string, opts ...CachedQueryOption[T]) *CachedQuery[T] {
	cq := &CachedQuery[T]{
		cache:     cache,
		namespace: namespace,
		ttl:       5 * time.Minute,
		logPrefix: "[CachedQuery]",
	}
	for _, opt := range opts {
		opt(cq)
	}
	return cq
}

func (cq *CachedQuery[T]) genKey() string {
	return cq.namespace + ":gen"
}

func (cq *CachedQuery[T]) generation(ctx context.Context) string {
	gen, err := cq.cache.Get(ctx, cq.genKey()).Result()
	if err == nil {
		return gen
	}
	if !errors.Is(err, ErrCacheMiss) {
		log.Warnw(cq.logPrefix+" cache get error", "key", cq.genKey(), "error", err)
	}
	return "0"
}

// Get returns the cached value for key, loading and storing it on a miss.
// Cache failures are logged and fall through to load.
func (cq *CachedQuery[T]) Get(ctx context.Context, key string, load QueryFunc[T]) (T, error) {
	var zero T
	if cq.cache == nil {
		return load(ctx)
	}

	cacheKey := cq.namespace + ":" + cq.generation(ctx) + ":" + key
	data, err := cq.cache.Get(ctx, cacheKey).Result()
	switch {
	case err == nil:
		var result T
		if err := sonic.UnmarshalString(data, &result); err == nil {
			log.Debugw(cq.logPrefix+" cache hit", "key", cacheKey)
			return result, nil
		}
		log.Warnw(cq.logPrefix+" failed to unmarshal cached data", "key", cacheKey, "error", err)
	case !errors.Is(err, ErrCacheMiss):
		log.Warnw(cq.logPrefix+" cache get error", "key", cacheKey, "error", err)
	}

	result, err := load(ctx)
	if err != nil {
		return zero, fmt.Errorf("failed to load %s: %w", key, err)
	}

	encoded, err := sonic.MarshalString(result)
	if err != nil {
		log.Warnw(cq.logPrefix+" failed to marshal result for caching", "key", cacheKey, "error", err)
		return result, nil
	}
	if err := cq.cache.Set(ctx, cacheKey, encoded, cq.ttl).Err(); err != nil {
		log.Warnw(cq.logPrefix+" failed to cache result", "key", cacheKey, "error", err)
	}
	return result, nil
}

// Invalidate orphans every key of the namespace.
func (cq *CachedQuery[T]) Invalidate(ctx context.Context) error {
	if cq.cache == nil {
		return nil
	}
	gen := strconv.FormatInt(time.Now().UnixNano(), 36)
	if err := cq.cache.Set(ctx, cq.genKey(), gen, 0).Err(); err != nil {
		log.Warnw(cq.logPrefix+" failed to invalidate cache", "namespace", cq.namespace, "error", err)
		return err
	}
	log.Debugw(cq.logPrefix+" cache invalidated", "namespace", cq.namespace, "generation", gen)
	return nil
}
