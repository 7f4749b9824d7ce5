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
	"github.com/blinklabs-io/ajnadex/event"
	"github.com/blinklabs-io/ajnadex/oracle"
	"github.com/blinklabs-io/ajnadex/poolevent"
	"github.com/blinklabs-io/ajnadex/wad"
)

func (h *applyContext) eventID() string {
	return models.EventID(h.meta.TxHash, h.meta.LogIndex)
}

func (h *applyContext) missing(kind string, borrower common.Address) error {
	return MissingAggregateError{
		Kind:     kind,
		Pool:     h.pool.ID,
		Borrower: models.AccountID(borrower),
		Block:    h.meta.BlockNumber,
	}
}

func (h *applyContext) auctionInfo(borrower common.Address) (oracle.AuctionInfo, error) {
	info, err := h.state.oracle.AuctionInfo(h.ctx, h.meta.Pool, borrower, h.meta.BlockNumber)
	if err != nil {
		return info, fmt.Errorf(
			"auction info for %s: %w",
			models.LoanID(h.meta.Pool, borrower),
			err,
		)
	}
	return info, nil
}

// applyAuctionInfo copies the auction parameters from the contract. A zero
// kicker means the contract already cleared the auction, so nothing is copied
func applyAuctionInfo(auction *models.LiquidationAuction, info oracle.AuctionInfo) {
	if info.Kicker == (common.Address{}) {
		return
	}
	auction.BondFactor = info.BondFactor
	auction.BondSize = info.BondSize
	auction.KickTime = info.KickTime
	auction.KickMomp = info.KickMomp
	auction.NeutralPrice = info.NeutralPrice
}

// openAuction resolves the open auction of a loan and the kick that started it
func (h *applyContext) openAuction(
	borrower common.Address,
) (*models.Loan, *models.LiquidationAuction, *models.Kick, error) {
	b := h.batch
	loan, err := h.loan(borrower)
	if err != nil {
		return nil, nil, nil, err
	}
	if loan == nil {
		return nil, nil, nil, h.missing(AggregateLoan, borrower)
	}
	if loan.ActiveAuctionID == "" {
		return nil, nil, nil, h.missing(AggregateLiquidationAuction, borrower)
	}
	auction, err := b.auctions.get(loan.ActiveAuctionID, b.txn)
	if err != nil {
		return nil, nil, nil, err
	}
	if auction == nil {
		return nil, nil, nil, h.missing(AggregateLiquidationAuction, borrower)
	}
	kick, err := b.kicks.get(auction.KickID, b.txn)
	if err != nil {
		return nil, nil, nil, err
	}
	if kick == nil {
		return nil, nil, nil, h.missing(AggregateKick, borrower)
	}
	return loan, auction, kick, nil
}

func (h *applyContext) notifyLiquidation(
	transition event.LiquidationTransition,
	loan *models.Loan,
	auctionID string,
) {
	h.batch.notify(
		event.LiquidationEventType,
		event.LiquidationEvent{
			Transition:  transition,
			PoolID:      h.pool.ID,
			LoanID:      loan.ID,
			AuctionID:   auctionID,
			BlockNumber: h.meta.BlockNumber,
		},
	)
}

func (h *applyContext) handleKick(evt poolevent.Kick) error {
	b := h.batch
	h.countTx()
	loan, err := h.loadOrCreateLoan(evt.Borrower)
	if err != nil {
		return err
	}
	if loan.ActiveAuctionID != "" {
		return fmt.Errorf(
			"%w: loan %s auction %s",
			ErrAuctionAlreadyOpen,
			loan.ID,
			loan.ActiveAuctionID,
		)
	}
	auctionID := models.LiquidationAuctionID(evt.Pool, evt.Borrower, evt.BlockNumber)
	existing, err := b.auctions.get(auctionID, b.txn)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: auction %s", ErrAuctionAlreadyOpen, auctionID)
	}
	info, err := h.auctionInfo(evt.Borrower)
	if err != nil {
		return err
	}
	debt := evt.Debt.Decimal()
	collateral := evt.Collateral.Decimal()
	bond := evt.Bond.Decimal()
	kicker := models.AccountID(evt.TxFrom)
	kick := &models.Kick{
		ID:                   h.eventID(),
		PoolID:               h.pool.ID,
		LoanID:               loan.ID,
		Borrower:             loan.Borrower,
		Kicker:               kicker,
		Debt:                 debt,
		Collateral:           collateral,
		Bond:                 bond,
		Locked:               bond,
		Claimable:            decimal.Zero,
		KickMomp:             info.KickMomp,
		LiquidationAuctionID: auctionID,
		BlockNumber:          evt.BlockNumber,
		BlockTime:            evt.BlockTime,
		TxHash:               evt.TxHash.Hex(),
	}
	b.kicks.put(kick.ID, kick)
	auction := &models.LiquidationAuction{
		ID:                  auctionID,
		PoolID:              h.pool.ID,
		LoanID:              loan.ID,
		Borrower:            loan.Borrower,
		KickID:              kick.ID,
		Kicker:              kicker,
		BondFactor:          info.BondFactor,
		BondSize:            info.BondSize,
		KickTime:            info.KickTime,
		KickMomp:            info.KickMomp,
		NeutralPrice:        info.NeutralPrice,
		DebtRepaid:          decimal.Zero,
		DebtRemaining:       debt,
		CollateralAuctioned: decimal.Zero,
		CollateralRemaining: collateral,
	}
	b.auctions.put(auctionID, auction)
	// Kicked values carry the penalty, so they replace the loan's figures
	loan.Debt = debt
	loan.CollateralPledged = collateral
	loan.InLiquidation = true
	loan.ActiveAuctionID = auctionID
	loan.LiquidationAuctions.Add(auctionID)
	h.pool.TotalBondEscrowed = h.pool.TotalBondEscrowed.Add(bond)
	h.pool.ActiveLiquidations.Add(auctionID)
	if err := h.refreshPool(); err != nil {
		return err
	}
	h.updateLoanRisk(loan)
	account, err := h.touchAccount(evt.TxFrom)
	if err != nil {
		return err
	}
	account.Kicks.Add(kick.ID)
	h.setLinks(loan.ID, auctionID)
	h.notifyLiquidation(event.LiquidationKicked, loan, auctionID)
	h.state.config.Logger.Debug(
		"liquidation auction kicked",
		"component", "ledger",
		"auction", auctionID,
		"kicker", kicker,
		"bond", bond.String(),
	)
	return nil
}

// applyTake applies the part shared by Take and BucketTake
func (h *applyContext) applyTake(
	borrower common.Address,
	amount wad.Value,
	collateral wad.Value,
	bondChange wad.Value,
	isReward bool,
) (*models.Loan, *models.LiquidationAuction, error) {
	loan, auction, kick, err := h.openAuction(borrower)
	if err != nil {
		return nil, nil, err
	}
	repaid := amount.Decimal()
	seized := collateral.Decimal()
	bond := bondChange.Decimal()
	loan.Debt = h.checkedSub("loan.debt", loan.ID, loan.Debt, repaid)
	loan.CollateralPledged = h.checkedSub(
		"loan.collateralPledged",
		loan.ID,
		loan.CollateralPledged,
		seized,
	)
	auction.DebtRepaid = auction.DebtRepaid.Add(repaid)
	auction.CollateralAuctioned = auction.CollateralAuctioned.Add(seized)
	auction.DebtRemaining = h.checkedSub(
		"auction.debtRemaining",
		auction.ID,
		auction.DebtRemaining,
		repaid,
	)
	auction.CollateralRemaining = h.checkedSub(
		"auction.collateralRemaining",
		auction.ID,
		auction.CollateralRemaining,
		seized,
	)
	if isReward {
		h.pool.TotalBondEscrowed = h.pool.TotalBondEscrowed.Add(bond)
		kick.Locked = kick.Locked.Add(bond)
	} else {
		// The escrow only releases what this kick has locked, so the pool
		// total stays the sum of the locked bonds
		removed := decimal.Min(bond, kick.Locked)
		kick.Locked = h.checkedSub("kick.locked", kick.ID, kick.Locked, bond)
		h.pool.TotalBondEscrowed = h.checkedSub(
			"pool.totalBondEscrowed",
			h.pool.ID,
			h.pool.TotalBondEscrowed,
			removed,
		)
	}
	if err := h.refreshPool(); err != nil {
		return nil, nil, err
	}
	h.updateLoanRisk(loan)
	info, err := h.auctionInfo(borrower)
	if err != nil {
		return nil, nil, err
	}
	applyAuctionInfo(auction, info)
	account, err := h.touchAccount(h.meta.TxFrom)
	if err != nil {
		return nil, nil, err
	}
	account.Takes.Add(h.eventID())
	h.setLinks(loan.ID, auction.ID)
	return loan, auction, nil
}

func (h *applyContext) handleTake(evt poolevent.Take) error {
	h.countTx()
	loan, auction, err := h.applyTake(
		evt.Borrower,
		evt.Amount,
		evt.Collateral,
		evt.BondChange,
		evt.IsReward,
	)
	if err != nil {
		return err
	}
	auction.Takes.Add(h.eventID())
	h.notifyLiquidation(event.LiquidationTaken, loan, auction.ID)
	return nil
}

// handleBucketTake applies a bucket take and, when present, the LP it awarded
// to the kicker and the taker in the bucket
func (h *applyContext) handleBucketTake(
	evt poolevent.BucketTake,
	awarded *poolevent.BucketTakeLPAwarded,
) error {
	h.countTx()
	loan, auction, err := h.applyTake(
		evt.Borrower,
		evt.Amount,
		evt.Collateral,
		evt.BondChange,
		evt.IsReward,
	)
	if err != nil {
		return err
	}
	auction.BucketTakes.Add(h.eventID())
	bucket, err := h.refreshBucket(evt.Index)
	if err != nil {
		return err
	}
	if awarded != nil {
		if err := h.awardLP(bucket, awarded.Kicker, awarded.LPAwardedKicker.Decimal()); err != nil {
			return err
		}
		if err := h.awardLP(bucket, awarded.Taker, awarded.LPAwardedTaker.Decimal()); err != nil {
			return err
		}
		if rec := h.batch.record(awarded.ID()); rec != nil {
			rec.LoanID = loan.ID
			rec.LiquidationAuctionID = auction.ID
		}
	}
	h.notifyLiquidation(event.LiquidationBucketTake, loan, auction.ID)
	return nil
}

// settleAuction closes the auction and detaches it from the loan and pool
func (h *applyContext) settleAuction(
	loan *models.Loan,
	auction *models.LiquidationAuction,
) error {
	auction.Settled = true
	auction.SettleTime = h.meta.BlockTime
	auction.Settles.Add(h.eventID())
	borrower := common.HexToAddress(loan.Borrower)
	info, err := h.auctionInfo(borrower)
	if err != nil {
		return err
	}
	applyAuctionInfo(auction, info)
	if !h.pool.ActiveLiquidations.Remove(auction.ID) {
		h.state.config.Logger.Warn(
			"settled auction was not active",
			"component", "ledger",
			"auction", auction.ID,
		)
	}
	if loan.Counted {
		loan.Counted = false
		h.decrementLoansCount()
	}
	loan.ActiveAuctionID = ""
	return nil
}

func (h *applyContext) decrementLoansCount() {
	if h.pool.LoansCount == 0 {
		h.state.config.Logger.Warn(
			"subtraction below zero clamped",
			"component", "ledger",
			"field", "pool.loansCount",
			"entity", h.pool.ID,
			"block", h.meta.BlockNumber,
		)
		h.state.metrics.underflows.WithLabelValues("pool.loansCount").Inc()
		return
	}
	h.pool.LoansCount--
}

// settleLoan is the terminal loan transition reported by AuctionSettle
func settleLoan(loan *models.Loan, collateral decimal.Decimal) {
	loan.Debt = decimal.Zero
	loan.Collateralization = decimal.Zero
	loan.TP = decimal.Zero
	loan.CollateralPledged = collateral
	loan.InLiquidation = false
}

func (h *applyContext) handleSettle(
	evt poolevent.Settle,
	loanSettle *poolevent.AuctionSettle,
) error {
	h.countTx()
	loan, auction, _, err := h.openAuction(evt.Borrower)
	if err != nil {
		return err
	}
	if err := h.settleAuction(loan, auction); err != nil {
		return err
	}
	if loanSettle != nil {
		settleLoan(loan, loanSettle.Collateral.Decimal())
		if rec := h.batch.record(loanSettle.ID()); rec != nil {
			rec.LoanID = loan.ID
			rec.LiquidationAuctionID = auction.ID
		}
	}
	if err := h.refreshPool(); err != nil {
		return err
	}
	if loanSettle == nil {
		h.updateLoanRisk(loan)
	}
	account, err := h.touchAccount(evt.TxFrom)
	if err != nil {
		return err
	}
	account.Settles.Add(h.eventID())
	h.setLinks(loan.ID, auction.ID)
	h.notifyLiquidation(event.LiquidationSettled, loan, auction.ID)
	return nil
}

// handleAuctionSettle applies an AuctionSettle that arrived without a Settle
// in its transaction. Any auction still open for the loan is closed with it
func (h *applyContext) handleAuctionSettle(evt poolevent.AuctionSettle) error {
	b := h.batch
	loan, err := h.loadOrCreateLoan(evt.Borrower)
	if err != nil {
		return err
	}
	auctionID := loan.ActiveAuctionID
	if auctionID != "" {
		auction, err := b.auctions.get(auctionID, b.txn)
		if err != nil {
			return err
		}
		if auction == nil {
			return h.missing(AggregateLiquidationAuction, evt.Borrower)
		}
		if err := h.settleAuction(loan, auction); err != nil {
			return err
		}
		h.notifyLiquidation(event.LiquidationSettled, loan, auctionID)
	}
	settleLoan(loan, evt.Collateral.Decimal())
	if err := h.refreshPool(); err != nil {
		return err
	}
	h.setLinks(loan.ID, auctionID)
	return nil
}

// handleAuctionNFTSettle links the record to the loan and its latest auction
func (h *applyContext) handleAuctionNFTSettle(evt poolevent.AuctionNFTSettle) error {
	loan, err := h.loan(evt.Borrower)
	if err != nil {
		return err
	}
	if loan == nil {
		return nil
	}
	auctionID := loan.ActiveAuctionID
	if auctionID == "" && len(loan.LiquidationAuctions) > 0 {
		auctionID = loan.LiquidationAuctions[len(loan.LiquidationAuctions)-1]
	}
	h.setLinks(loan.ID, auctionID)
	return nil
}
