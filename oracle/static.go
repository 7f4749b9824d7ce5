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
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// history holds values that take effect from a block onwards
type history[T any] struct {
	blocks []uint64
	values []T
}

func (h *history[T]) set(block uint64, v T) {
	idx := sort.Search(len(h.blocks), func(i int) bool { return h.blocks[i] >= block })
	if idx < len(h.blocks) && h.blocks[idx] == block {
		h.values[idx] = v
		return
	}
	h.blocks = append(h.blocks, 0)
	h.values = append(h.values, v)
	copy(h.blocks[idx+1:], h.blocks[idx:])
	copy(h.values[idx+1:], h.values[idx:])
	h.blocks[idx] = block
	h.values[idx] = v
}

func (h *history[T]) at(block uint64) (T, bool) {
	var zero T
	if h == nil {
		return zero, false
	}
	idx := sort.Search(len(h.blocks), func(i int) bool { return h.blocks[i] > block })
	if idx == 0 {
		return zero, false
	}
	return h.values[idx-1], true
}

type bucketKey struct {
	pool  common.Address
	index int32
}

type auctionKey struct {
	pool     common.Address
	borrower common.Address
}

type burnKey struct {
	pool  common.Address
	epoch uint64
}

// Static is an in-memory Oracle. Values set at a block are returned for
// queries at that block and later. Unset bucket, auction and pool state reads
// as zero, matching the contracts; unset burn state returns ErrNotFound
type Static struct {
	mu       sync.Mutex
	buckets  map[bucketKey]*history[BucketInfo]
	auctions map[auctionKey]*history[AuctionInfo]
	burns    map[burnKey]*history[BurnInfo]
	epochs   map[common.Address]*history[uint64]
	pools    map[common.Address]*history[PoolInfo]
	calls    int
}

func NewStatic() *Static {
	return &Static{
		buckets:  make(map[bucketKey]*history[BucketInfo]),
		auctions: make(map[auctionKey]*history[AuctionInfo]),
		burns:    make(map[burnKey]*history[BurnInfo]),
		epochs:   make(map[common.Address]*history[uint64]),
		pools:    make(map[common.Address]*history[PoolInfo]),
	}
}

func setHistory[K comparable, T any](m map[K]*history[T], key K, block uint64, v T) {
	h, ok := m[key]
	if !ok {
		h = &history[T]{}
		m[key] = h
	}
	h.set(block, v)
}

func (s *Static) SetBucket(pool common.Address, index int32, block uint64, info BucketInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setHistory(s.buckets, bucketKey{pool, index}, block, info)
}

func (s *Static) SetAuction(pool common.Address, borrower common.Address, block uint64, info AuctionInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setHistory(s.auctions, auctionKey{pool, borrower}, block, info)
}

func (s *Static) SetBurn(pool common.Address, epoch uint64, block uint64, info BurnInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setHistory(s.burns, burnKey{pool, epoch}, block, info)
}

func (s *Static) SetBurnEpoch(pool common.Address, block uint64, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setHistory(s.epochs, pool, block, epoch)
}

func (s *Static) SetPool(pool common.Address, block uint64, info PoolInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setHistory(s.pools, pool, block, info)
}

// Calls returns the number of queries answered so far
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Static) BucketInfo(_ context.Context, pool common.Address, index int32, block uint64) (BucketInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	ret, _ := s.buckets[bucketKey{pool, index}].at(block)
	return ret, nil
}

func (s *Static) AuctionInfo(_ context.Context, pool common.Address, borrower common.Address, block uint64) (AuctionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	ret, _ := s.auctions[auctionKey{pool, borrower}].at(block)
	return ret, nil
}

func (s *Static) BurnInfo(_ context.Context, pool common.Address, epoch uint64, block uint64) (BurnInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	ret, ok := s.burns[burnKey{pool, epoch}].at(block)
	if !ok {
		return ret, fmt.Errorf("%w: burn epoch %d of pool %s", ErrNotFound, epoch, pool.Hex())
	}
	return ret, nil
}

func (s *Static) CurrentBurnEpoch(_ context.Context, pool common.Address, block uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	ret, ok := s.epochs[pool].at(block)
	if !ok {
		return 0, fmt.Errorf("%w: burn epoch of pool %s", ErrNotFound, pool.Hex())
	}
	return ret, nil
}

func (s *Static) PoolInfo(_ context.Context, pool common.Address, block uint64) (PoolInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	ret, _ := s.pools[pool].at(block)
	return ret, nil
}
