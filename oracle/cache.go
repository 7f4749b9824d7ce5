// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oracle

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

const DefaultCacheSize = 4096

type cacheKey struct {
	method   string
	pool     common.Address
	borrower common.Address
	arg      int64
	block    uint64
}

// Cached memoizes successful answers of another Oracle. Answers are pinned
// to a block, so entries never go stale
type Cached struct {
	inner Oracle
	cache *lru.Cache
}

func NewCached(inner Oracle, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: cache}, nil
}

func cachedCall[T any](c *Cached, key cacheKey, fn func() (T, error)) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		if ret, ok := v.(T); ok {
			return ret, nil
		}
	}
	ret, err := fn()
	if err != nil {
		return ret, err
	}
	c.cache.Add(key, ret)
	return ret, nil
}

// Purge drops every cached answer
func (c *Cached) Purge() {
	c.cache.Purge()
}

func (c *Cached) Len() int {
	return c.cache.Len()
}

func (c *Cached) BucketInfo(ctx context.Context, pool common.Address, index int32, block uint64) (BucketInfo, error) {
	key := cacheKey{method: "bucketInfo", pool: pool, arg: int64(index), block: block}
	return cachedCall(c, key, func() (BucketInfo, error) {
		return c.inner.BucketInfo(ctx, pool, index, block)
	})
}

func (c *Cached) AuctionInfo(ctx context.Context, pool common.Address, borrower common.Address, block uint64) (AuctionInfo, error) {
	key := cacheKey{method: "auctionInfo", pool: pool, borrower: borrower, block: block}
	return cachedCall(c, key, func() (AuctionInfo, error) {
		return c.inner.AuctionInfo(ctx, pool, borrower, block)
	})
}

func (c *Cached) BurnInfo(ctx context.Context, pool common.Address, epoch uint64, block uint64) (BurnInfo, error) {
	key := cacheKey{method: "burnInfo", pool: pool, arg: int64(epoch), block: block} // #nosec G115
	return cachedCall(c, key, func() (BurnInfo, error) {
		return c.inner.BurnInfo(ctx, pool, epoch, block)
	})
}

func (c *Cached) CurrentBurnEpoch(ctx context.Context, pool common.Address, block uint64) (uint64, error) {
	key := cacheKey{method: "currentBurnEpoch", pool: pool, block: block}
	return cachedCall(c, key, func() (uint64, error) {
		return c.inner.CurrentBurnEpoch(ctx, pool, block)
	})
}

func (c *Cached) PoolInfo(ctx context.Context, pool common.Address, block uint64) (PoolInfo, error) {
	key := cacheKey{method: "poolInfo", pool: pool, block: block}
	return cachedCall(c, key, func() (PoolInfo, error) {
		return c.inner.PoolInfo(ctx, pool, block)
	})
}
