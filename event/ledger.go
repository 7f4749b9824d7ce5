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

package event

const (
	// TransactionAppliedEventType is published after a transaction's events
	// have been committed to the store
	TransactionAppliedEventType EventType = "ledger.transaction_applied"
	// LiquidationEventType is published for every liquidation auction
	// transition
	LiquidationEventType EventType = "ledger.liquidation"
	// ReserveAuctionEventType is published when a reserve auction is kicked
	// or taken
	ReserveAuctionEventType EventType = "ledger.reserve_auction"
)

type TransactionAppliedEvent struct {
	TxHash      string
	BlockNumber uint64
	BlockTime   uint64
	// LastLogIndex is the log index the cursor was advanced to
	LastLogIndex uint32
	// Events holds the names of the primary events in log order
	Events []string
	Pools  []string
	// SkippedEvents counts events archived without ledger changes
	SkippedEvents int
}

type LiquidationTransition string

const (
	LiquidationKicked     LiquidationTransition = "kicked"
	LiquidationTaken      LiquidationTransition = "taken"
	LiquidationBucketTake LiquidationTransition = "bucket_taken"
	LiquidationSettled    LiquidationTransition = "settled"
)

type LiquidationEvent struct {
	Transition  LiquidationTransition
	PoolID      string
	LoanID      string
	AuctionID   string
	BlockNumber uint64
}

type ReserveAuctionEvent struct {
	PoolID      string
	AuctionID   string
	Outcome     string
	BurnEpoch   uint64
	BlockNumber uint64
}
