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
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/event"
	"github.com/blinklabs-io/ajnadex/oracle"
	"github.com/blinklabs-io/ajnadex/poolevent"
)

// burnEpoch returns the pool's current burn epoch from the contract. The
// epoch on the event is used when the contract has none at that block
func (h *applyContext) burnEpoch(evt poolevent.ReserveAuction) (uint64, error) {
	epoch, err := h.state.oracle.CurrentBurnEpoch(h.ctx, h.meta.Pool, h.meta.BlockNumber)
	if err == nil {
		return epoch, nil
	}
	if errors.Is(err, oracle.ErrNotFound) && evt.CurrentBurnEpoch != 0 {
		return evt.CurrentBurnEpoch, nil
	}
	return 0, fmt.Errorf("burn epoch for %s: %w", h.pool.ID, err)
}

func (h *applyContext) handleReserveAuction(evt poolevent.ReserveAuction) error {
	b := h.batch
	h.countTx()
	epoch, err := h.burnEpoch(evt)
	if err != nil {
		return err
	}
	burn, err := h.state.oracle.BurnInfo(h.ctx, h.meta.Pool, epoch, h.meta.BlockNumber)
	if err != nil {
		return fmt.Errorf("burn info for %s epoch %d: %w", h.pool.ID, epoch, err)
	}
	if err := h.refreshPool(); err != nil {
		return err
	}
	auctionID := models.ReserveAuctionID(evt.Pool, epoch)
	auction, err := b.reserveAuctions.get(auctionID, b.txn)
	if err != nil {
		return err
	}
	increment := decimal.Zero
	switch evt.Outcome {
	case poolevent.ReserveAuctionStarted:
		if auction != nil && auction.Started() {
			return fmt.Errorf("%w: %s", ErrReserveAuctionStarted, auctionID)
		}
		if auction == nil {
			auction = &models.ReserveAuction{
				ID:                       auctionID,
				PoolID:                   h.pool.ID,
				BurnEpoch:                epoch,
				AjnaBurnedAcrossAllTakes: decimal.Zero,
			}
			b.reserveAuctions.put(auctionID, auction)
		}
		auction.Kicker = models.AccountID(evt.TxFrom)
		auction.KickTime = evt.BlockTime
		auction.KickerAward = reserveAuctionKickerAward(h.pool.ClaimableReserves)
	case poolevent.ReserveAuctionTaken:
		if auction == nil || !auction.Started() {
			return fmt.Errorf("%w: %s", ErrReserveAuctionNotFound, auctionID)
		}
		increment = h.checkedSub(
			"reserveAuction.incrementalAjnaBurned",
			auctionID,
			burn.TotalBurned,
			h.pool.TotalAjnaBurned,
		)
		take := &models.ReserveAuctionTake{
			ID:                         h.eventID(),
			ReserveAuctionID:           auctionID,
			Taker:                      models.AccountID(evt.TxFrom),
			AuctionPrice:               evt.AuctionPrice.Decimal(),
			ClaimableReservesRemaining: evt.ClaimableReservesRemaining.Decimal(),
			IncrementalAjnaBurned:      increment,
			BlockNumber:                evt.BlockNumber,
			BlockTime:                  evt.BlockTime,
			TxHash:                     evt.TxHash.Hex(),
		}
		b.reserveTakes.put(take.ID, take)
		auction.ReserveAuctionTakes.Add(take.ID)
	default:
		return fmt.Errorf("invalid reserve auction outcome %q", evt.Outcome)
	}
	auction.AuctionPrice = evt.AuctionPrice.Decimal()
	auction.ClaimableReservesRemaining = evt.ClaimableReservesRemaining.Decimal()
	auction.AjnaBurnedAcrossAllTakes = auction.AjnaBurnedAcrossAllTakes.Add(increment)
	h.pool.BurnEpoch = epoch
	h.pool.TotalAjnaBurned = burn.TotalBurned
	h.pool.TotalInterestEarned = burn.TotalInterest
	h.pool.ReserveAuctions.Add(auctionID)
	account, err := h.touchAccount(evt.TxFrom)
	if err != nil {
		return err
	}
	account.ReserveAuctions.Add(auctionID)
	b.notify(
		event.ReserveAuctionEventType,
		event.ReserveAuctionEvent{
			PoolID:      h.pool.ID,
			AuctionID:   auctionID,
			Outcome:     string(evt.Outcome),
			BurnEpoch:   epoch,
			BlockNumber: evt.BlockNumber,
		},
	)
	return nil
}
