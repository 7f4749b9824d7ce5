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

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/poolevent"
)

func (h *applyContext) loadOrCreateBucket(index int32) (*models.Bucket, error) {
	b := h.batch
	bucketID := models.BucketID(h.meta.Pool, index)
	bucket, err := b.buckets.get(bucketID, b.txn)
	if err != nil {
		return nil, err
	}
	if bucket == nil {
		bucket = &models.Bucket{
			ID:           bucketID,
			PoolID:       h.pool.ID,
			BucketIndex:  index,
			BucketPrice:  decimal.Zero,
			Collateral:   decimal.Zero,
			Deposit:      decimal.Zero,
			LPB:          decimal.Zero,
			ExchangeRate: decimal.Zero,
		}
		b.buckets.put(bucketID, bucket)
	}
	return bucket, nil
}

// refreshBucket overwrites the bucket balances with the contract state at the
// event's block
func (h *applyContext) refreshBucket(index int32) (*models.Bucket, error) {
	bucket, err := h.loadOrCreateBucket(index)
	if err != nil {
		return nil, err
	}
	info, err := h.state.oracle.BucketInfo(h.ctx, h.meta.Pool, index, h.meta.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("bucket info for %s: %w", bucket.ID, err)
	}
	bucket.BucketPrice = info.Price
	bucket.Collateral = info.Collateral
	bucket.Deposit = info.QuoteTokens
	bucket.LPB = info.LPB
	bucket.ExchangeRate = info.ExchangeRate
	return bucket, nil
}

func (h *applyContext) loadOrCreateLend(
	bucket *models.Bucket,
	lender common.Address,
) (*models.Lend, error) {
	b := h.batch
	lendID := models.LendID(bucket.ID, lender)
	lend, err := b.lends.get(lendID, b.txn)
	if err != nil {
		return nil, err
	}
	if lend == nil {
		lend = &models.Lend{
			ID:              lendID,
			BucketID:        bucket.ID,
			PoolID:          h.pool.ID,
			Lender:          models.AccountID(lender),
			BucketIndex:     bucket.BucketIndex,
			LPB:             decimal.Zero,
			LPBValueInQuote: decimal.Zero,
		}
		b.lends.put(lendID, lend)
	}
	return lend, nil
}

// awardLP credits lender with lp in bucket and links the lend to the bucket
// and the lender account
func (h *applyContext) awardLP(
	bucket *models.Bucket,
	lender common.Address,
	lp decimal.Decimal,
) error {
	lend, err := h.loadOrCreateLend(bucket, lender)
	if err != nil {
		return err
	}
	lend.LPB = lend.LPB.Add(lp)
	return h.linkLend(bucket, lend, lender)
}

// redeemLP debits lp from the lender's position in bucket
func (h *applyContext) redeemLP(
	bucket *models.Bucket,
	lender common.Address,
	lp decimal.Decimal,
) error {
	lend, err := h.loadOrCreateLend(bucket, lender)
	if err != nil {
		return err
	}
	lend.LPB = h.checkedSub("lend.lpb", lend.ID, lend.LPB, lp)
	return h.linkLend(bucket, lend, lender)
}

func (h *applyContext) linkLend(
	bucket *models.Bucket,
	lend *models.Lend,
	lender common.Address,
) error {
	lend.LPBValueInQuote = lpbValueInQuote(lend.LPB, bucket.ExchangeRate)
	bucket.Lends.Add(lend.ID)
	account, err := h.account(lender)
	if err != nil {
		return err
	}
	account.Lends.Add(lend.ID)
	return nil
}

// applyBucketChange is the shared path of the deposit and withdrawal events:
// the bucket is refreshed, the lender's lpb adjusted and the pool refreshed
func (h *applyContext) applyBucketChange(
	actor common.Address,
	index int32,
	awarded decimal.Decimal,
	redeemed decimal.Decimal,
) error {
	h.countTx()
	bucket, err := h.refreshBucket(index)
	if err != nil {
		return err
	}
	if !awarded.IsZero() {
		if err := h.awardLP(bucket, actor, awarded); err != nil {
			return err
		}
	}
	if !redeemed.IsZero() {
		if err := h.redeemLP(bucket, actor, redeemed); err != nil {
			return err
		}
	}
	if _, err := h.touchAccount(actor); err != nil {
		return err
	}
	return h.refreshPool()
}

func (h *applyContext) handleAddCollateral(evt poolevent.AddCollateral) error {
	return h.applyBucketChange(evt.Actor, evt.Index, evt.LPAwarded.Decimal(), decimal.Zero)
}

func (h *applyContext) handleAddQuoteToken(evt poolevent.AddQuoteToken) error {
	return h.applyBucketChange(evt.Lender, evt.Index, evt.LPAwarded.Decimal(), decimal.Zero)
}

func (h *applyContext) handleRemoveCollateral(evt poolevent.RemoveCollateral) error {
	return h.applyBucketChange(evt.Claimer, evt.Index, decimal.Zero, evt.LPRedeemed.Decimal())
}

func (h *applyContext) handleRemoveQuoteToken(evt poolevent.RemoveQuoteToken) error {
	return h.applyBucketChange(evt.Lender, evt.Index, decimal.Zero, evt.LPRedeemed.Decimal())
}

func (h *applyContext) handleMoveQuoteToken(evt poolevent.MoveQuoteToken) error {
	h.countTx()
	from, err := h.refreshBucket(evt.From)
	if err != nil {
		return err
	}
	to, err := h.refreshBucket(evt.To)
	if err != nil {
		return err
	}
	if err := h.redeemLP(from, evt.Lender, evt.LPRedeemedFrom.Decimal()); err != nil {
		return err
	}
	if err := h.awardLP(to, evt.Lender, evt.LPAwardedTo.Decimal()); err != nil {
		return err
	}
	if _, err := h.touchAccount(evt.Lender); err != nil {
		return err
	}
	return h.refreshPool()
}
