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

// Package poolevent defines the typed, pre-decoded pool events consumed by
// the ledger, and readers that produce them from JSON lines.
package poolevent

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/ajnadex/wad"
)

type Name string

const (
	NamePoolCreated          Name = "PoolCreated"
	NameAddCollateral        Name = "AddCollateral"
	NameAddQuoteToken        Name = "AddQuoteToken"
	NameRemoveCollateral     Name = "RemoveCollateral"
	NameRemoveQuoteToken     Name = "RemoveQuoteToken"
	NameMoveQuoteToken       Name = "MoveQuoteToken"
	NameDrawDebt             Name = "DrawDebt"
	NameRepayDebt            Name = "RepayDebt"
	NameKick                 Name = "Kick"
	NameTake                 Name = "Take"
	NameBucketTake           Name = "BucketTake"
	NameBucketTakeLPAwarded  Name = "BucketTakeLPAwarded"
	NameSettle               Name = "Settle"
	NameAuctionSettle        Name = "AuctionSettle"
	NameAuctionNFTSettle     Name = "AuctionNFTSettle"
	NameBucketBankruptcy     Name = "BucketBankruptcy"
	NameReserveAuction       Name = "ReserveAuction"
	NameUpdateInterestRate   Name = "UpdateInterestRate"
	NameBondWithdrawn        Name = "BondWithdrawn"
	NameTransferLPs          Name = "TransferLPs"
	NameLoanStamped          Name = "LoanStamped"
	NameApproveLPTransferors Name = "ApproveLpTransferors"
	NameRevokeLPTransferors  Name = "RevokeLpTransferors"
	NameSetLPAllowance       Name = "SetLpAllowance"
	NameRevokeLPAllowance    Name = "RevokeLpAllowance"
)

// Bucket index bounds of a pool. Events carry the Fenwick index, where 0 is
// the highest price bucket
const (
	MinBucketIndex  = 0
	MaxBucketIndex  = MaxFenwickIndex
	MaxFenwickIndex = 7388
)

// Meta carries the chain position of an event and the pool it targets
type Meta struct {
	Pool        common.Address
	BlockNumber uint64
	BlockTime   uint64
	TxHash      common.Hash
	TxFrom      common.Address
	LogIndex    uint32
}

func (m Meta) Metadata() Meta {
	return m
}

// ID returns the generic event id, txHash-logIndex
func (m Meta) ID() string {
	return fmt.Sprintf("%s-%d", m.TxHash.Hex(), m.LogIndex)
}

// Position returns the total-order position of the event
func (m Meta) Position() Position {
	return Position{BlockNumber: m.BlockNumber, LogIndex: m.LogIndex}
}

// Position orders events by block and log index
type Position struct {
	BlockNumber uint64
	LogIndex    uint32
}

func (p Position) Less(other Position) bool {
	if p.BlockNumber != other.BlockNumber {
		return p.BlockNumber < other.BlockNumber
	}
	return p.LogIndex < other.LogIndex
}

type Event interface {
	Metadata() Meta
	EventName() Name
}

type PoolCreated struct {
	Meta            `json:"-"`
	PoolType        string         `json:"poolType"`
	CollateralToken common.Address `json:"collateralToken"`
	QuoteToken      common.Address `json:"quoteToken"`
	InterestRate    wad.Value      `json:"interestRate"`
}

func (PoolCreated) EventName() Name { return NamePoolCreated }

type AddCollateral struct {
	Meta      `json:"-"`
	Actor     common.Address `json:"actor"`
	Index     int32          `json:"index"`
	Amount    wad.Value      `json:"amount"`
	LPAwarded wad.Value      `json:"lpAwarded"`
}

func (AddCollateral) EventName() Name { return NameAddCollateral }

type AddQuoteToken struct {
	Meta      `json:"-"`
	Lender    common.Address `json:"lender"`
	Index     int32          `json:"index"`
	Amount    wad.Value      `json:"amount"`
	LPAwarded wad.Value      `json:"lpAwarded"`
	LUP       wad.Value      `json:"lup"`
}

func (AddQuoteToken) EventName() Name { return NameAddQuoteToken }

type RemoveCollateral struct {
	Meta       `json:"-"`
	Claimer    common.Address `json:"claimer"`
	Index      int32          `json:"index"`
	Amount     wad.Value      `json:"amount"`
	LPRedeemed wad.Value      `json:"lpRedeemed"`
}

func (RemoveCollateral) EventName() Name { return NameRemoveCollateral }

type RemoveQuoteToken struct {
	Meta       `json:"-"`
	Lender     common.Address `json:"lender"`
	Index      int32          `json:"index"`
	Amount     wad.Value      `json:"amount"`
	LPRedeemed wad.Value      `json:"lpRedeemed"`
	LUP        wad.Value      `json:"lup"`
}

func (RemoveQuoteToken) EventName() Name { return NameRemoveQuoteToken }

type MoveQuoteToken struct {
	Meta           `json:"-"`
	Lender         common.Address `json:"lender"`
	From           int32          `json:"from"`
	To             int32          `json:"to"`
	Amount         wad.Value      `json:"amount"`
	LPRedeemedFrom wad.Value      `json:"lpRedeemedFrom"`
	LPAwardedTo    wad.Value      `json:"lpAwardedTo"`
	LUP            wad.Value      `json:"lup"`
}

func (MoveQuoteToken) EventName() Name { return NameMoveQuoteToken }

type DrawDebt struct {
	Meta              `json:"-"`
	Borrower          common.Address `json:"borrower"`
	AmountBorrowed    wad.Value      `json:"amountBorrowed"`
	CollateralPledged wad.Value      `json:"collateralPledged"`
	LUP               wad.Value      `json:"lup"`
}

func (DrawDebt) EventName() Name { return NameDrawDebt }

type RepayDebt struct {
	Meta             `json:"-"`
	Borrower         common.Address `json:"borrower"`
	QuoteRepaid      wad.Value      `json:"quoteRepaid"`
	CollateralPulled wad.Value      `json:"collateralPulled"`
	LUP              wad.Value      `json:"lup"`
}

func (RepayDebt) EventName() Name { return NameRepayDebt }

// Kick starts a liquidation. The kicker is the transaction sender
type Kick struct {
	Meta       `json:"-"`
	Borrower   common.Address `json:"borrower"`
	Debt       wad.Value      `json:"debt"`
	Collateral wad.Value      `json:"collateral"`
	Bond       wad.Value      `json:"bond"`
}

func (Kick) EventName() Name { return NameKick }

// Take is an arb take against an auction. The taker is the transaction sender
type Take struct {
	Meta       `json:"-"`
	Borrower   common.Address `json:"borrower"`
	Amount     wad.Value      `json:"amount"`
	Collateral wad.Value      `json:"collateral"`
	BondChange wad.Value      `json:"bondChange"`
	IsReward   bool           `json:"isReward"`
}

func (Take) EventName() Name { return NameTake }

type BucketTake struct {
	Meta       `json:"-"`
	Borrower   common.Address `json:"borrower"`
	Index      int32          `json:"index"`
	Amount     wad.Value      `json:"amount"`
	Collateral wad.Value      `json:"collateral"`
	BondChange wad.Value      `json:"bondChange"`
	IsReward   bool           `json:"isReward"`
}

func (BucketTake) EventName() Name { return NameBucketTake }

// BucketTakeLPAwarded is emitted alongside BucketTake in the same transaction
type BucketTakeLPAwarded struct {
	Meta            `json:"-"`
	Taker           common.Address `json:"taker"`
	Kicker          common.Address `json:"kicker"`
	LPAwardedTaker  wad.Value      `json:"lpAwardedTaker"`
	LPAwardedKicker wad.Value      `json:"lpAwardedKicker"`
}

func (BucketTakeLPAwarded) EventName() Name { return NameBucketTakeLPAwarded }

type Settle struct {
	Meta        `json:"-"`
	Borrower    common.Address `json:"borrower"`
	SettledDebt wad.Value      `json:"settledDebt"`
}

func (Settle) EventName() Name { return NameSettle }

// AuctionSettle is emitted alongside Settle by fungible collateral pools
type AuctionSettle struct {
	Meta       `json:"-"`
	Borrower   common.Address `json:"borrower"`
	Collateral wad.Value      `json:"collateral"`
}

func (AuctionSettle) EventName() Name { return NameAuctionSettle }

type AuctionNFTSettle struct {
	Meta       `json:"-"`
	Borrower   common.Address `json:"borrower"`
	Collateral wad.Value      `json:"collateral"`
	LPs        wad.Value      `json:"lps"`
	Index      int32          `json:"index"`
}

func (AuctionNFTSettle) EventName() Name { return NameAuctionNFTSettle }

type BucketBankruptcy struct {
	Meta        `json:"-"`
	Index       int32     `json:"index"`
	LPForfeited wad.Value `json:"lpForfeited"`
}

func (BucketBankruptcy) EventName() Name { return NameBucketBankruptcy }

type ReserveAuctionOutcome string

const (
	ReserveAuctionStarted ReserveAuctionOutcome = "started"
	ReserveAuctionTaken   ReserveAuctionOutcome = "taken"
)

func (o ReserveAuctionOutcome) Valid() bool {
	return o == ReserveAuctionStarted || o == ReserveAuctionTaken
}

// ReserveAuction is emitted both when a reserve auction is kicked and on
// every take. The event source tags which one it is
type ReserveAuction struct {
	Meta                       `json:"-"`
	ClaimableReservesRemaining wad.Value             `json:"claimableReservesRemaining"`
	AuctionPrice               wad.Value             `json:"auctionPrice"`
	CurrentBurnEpoch           uint64                `json:"currentBurnEpoch"`
	Outcome                    ReserveAuctionOutcome `json:"outcome"`
}

func (ReserveAuction) EventName() Name { return NameReserveAuction }

type UpdateInterestRate struct {
	Meta    `json:"-"`
	OldRate wad.Value `json:"oldRate"`
	NewRate wad.Value `json:"newRate"`
}

func (UpdateInterestRate) EventName() Name { return NameUpdateInterestRate }

type BondWithdrawn struct {
	Meta     `json:"-"`
	Kicker   common.Address `json:"kicker"`
	Receiver common.Address `json:"receiver"`
	Amount   wad.Value      `json:"amount"`
}

func (BondWithdrawn) EventName() Name { return NameBondWithdrawn }

type TransferLPs struct {
	Meta     `json:"-"`
	Owner    common.Address `json:"owner"`
	NewOwner common.Address `json:"newOwner"`
	Indexes  []int32        `json:"indexes"`
	LPs      wad.Value      `json:"lps"`
}

func (TransferLPs) EventName() Name { return NameTransferLPs }

type LoanStamped struct {
	Meta     `json:"-"`
	Borrower common.Address `json:"borrower"`
}

func (LoanStamped) EventName() Name { return NameLoanStamped }

type ApproveLPTransferors struct {
	Meta        `json:"-"`
	Lender      common.Address   `json:"lender"`
	Transferors []common.Address `json:"transferors"`
}

func (ApproveLPTransferors) EventName() Name { return NameApproveLPTransferors }

type RevokeLPTransferors struct {
	Meta        `json:"-"`
	Lender      common.Address   `json:"lender"`
	Transferors []common.Address `json:"transferors"`
}

func (RevokeLPTransferors) EventName() Name { return NameRevokeLPTransferors }

// SetLPAllowance is emitted by the LP owner, the transaction sender
type SetLPAllowance struct {
	Meta    `json:"-"`
	Spender common.Address `json:"spender"`
	Indexes []int32        `json:"indexes"`
	Amounts []wad.Value    `json:"amounts"`
}

func (SetLPAllowance) EventName() Name { return NameSetLPAllowance }

type RevokeLPAllowance struct {
	Meta    `json:"-"`
	Spender common.Address `json:"spender"`
	Indexes []int32        `json:"indexes"`
}

func (RevokeLPAllowance) EventName() Name { return NameRevokeLPAllowance }

// ValidBucketIndex reports whether idx is within the pool's bucket range
func ValidBucketIndex(idx int32) bool {
	return idx >= MinBucketIndex && idx <= MaxBucketIndex
}
