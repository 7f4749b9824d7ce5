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

package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/poolevent"
)

func (h *applyContext) handlePoolCreated(evt poolevent.PoolCreated) error {
	b := h.batch
	poolID := models.PoolID(evt.Pool)
	existing, err := b.pools.get(poolID, b.txn)
	if err != nil {
		return err
	}
	if existing != nil {
		if h.record != nil {
			h.record.Skipped = true
		}
		h.state.metrics.eventsSkipped.WithLabelValues("duplicate_pool").Inc()
		h.state.config.Logger.Warn(
			"pool already exists",
			"component", "ledger",
			"pool", poolID,
			"block", evt.BlockNumber,
		)
		return nil
	}
	pool := &models.Pool{
		ID:                  poolID,
		PoolType:            evt.PoolType,
		CollateralToken:     models.AddressID(evt.CollateralToken),
		QuoteToken:          models.AddressID(evt.QuoteToken),
		CreatedBlock:        evt.BlockNumber,
		CreatedTime:         evt.BlockTime,
		CurrentDebt:         decimal.Zero,
		PledgedCollateral:   decimal.Zero,
		TotalBondEscrowed:   decimal.Zero,
		TotalAjnaBurned:     decimal.Zero,
		TotalInterestEarned: decimal.Zero,
	}
	b.pools.put(poolID, pool)
	h.pool = pool
	if err := h.refreshPool(); err != nil {
		return err
	}
	// The factory event carries the initial rate
	pool.InterestRate = evt.InterestRate.Decimal()
	h.state.metrics.eventsApplied.WithLabelValues(string(evt.EventName())).Inc()
	h.state.config.Logger.Info(
		"pool created",
		"component", "ledger",
		"pool", poolID,
		"type", evt.PoolType,
		"block", evt.BlockNumber,
	)
	return nil
}

// refreshPool copies the pool's contract state as of the event's block
func (h *applyContext) refreshPool() error {
	info, err := h.state.oracle.PoolInfo(h.ctx, h.meta.Pool, h.meta.BlockNumber)
	if err != nil {
		return fmt.Errorf("pool info for %s: %w", h.pool.ID, err)
	}
	p := h.pool
	p.HPB = info.HPB
	p.HPBIndex = info.HPBIndex
	p.HTP = info.HTP
	p.HTPIndex = info.HTPIndex
	p.LUP = info.LUP
	p.LUPIndex = info.LUPIndex
	p.PoolSize = info.PoolSize
	p.InterestRate = info.InterestRate
	p.Reserves = info.Reserves
	p.ClaimableReserves = info.ClaimableReserves
	p.ClaimableReservesRemaining = info.ClaimableReservesRemaining
	p.ReserveAuctionPrice = info.AuctionPrice
	return nil
}

func (h *applyContext) handleUpdateInterestRate(evt poolevent.UpdateInterestRate) error {
	if err := h.refreshPool(); err != nil {
		return err
	}
	h.pool.InterestRate = evt.NewRate.Decimal()
	return nil
}

// handleBucketBankruptcy zeroes the bucket. Lends in the bucket keep their
// stored lpb until the lender next touches it
func (h *applyContext) handleBucketBankruptcy(evt poolevent.BucketBankruptcy) error {
	if err := h.refreshPool(); err != nil {
		return err
	}
	bucket, err := h.loadOrCreateBucket(evt.Index)
	if err != nil {
		return err
	}
	bucket.Collateral = decimal.Zero
	bucket.Deposit = decimal.Zero
	bucket.LPB = decimal.Zero
	bucket.ExchangeRate = decimal.Zero
	return nil
}
