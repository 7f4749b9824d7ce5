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
	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/ajnadex/poolevent"
)

// input is one state machine step. Settle and BucketTake consume their
// same-transaction companion event along with their own payload
type input struct {
	primary   poolevent.Event
	companion poolevent.Event
}

type loanKey struct {
	pool     common.Address
	borrower common.Address
}

// pairInputs turns the events of a transaction into state machine inputs in
// log order. A BucketTake is paired with the BucketTakeLPAwarded of the same
// pool in emission order. A Settle is paired with the AuctionSettle of the
// same loan. A BucketTakeLPAwarded left without a BucketTake is an error,
// while an AuctionSettle without a Settle is a valid input on its own
func pairInputs(events []poolevent.Event) ([]input, error) {
	for _, evt := range events {
		if err := validateEvent(evt); err != nil {
			return nil, err
		}
	}
	lpAwarded := make(map[common.Address][]int)
	auctionSettles := make(map[loanKey][]int)
	for i, evt := range events {
		switch e := evt.(type) {
		case poolevent.BucketTakeLPAwarded:
			lpAwarded[e.Pool] = append(lpAwarded[e.Pool], i)
		case poolevent.AuctionSettle:
			key := loanKey{pool: e.Pool, borrower: e.Borrower}
			auctionSettles[key] = append(auctionSettles[key], i)
		}
	}
	companions := make(map[int]int)
	used := make([]bool, len(events))
	for i, evt := range events {
		var queue []int
		switch e := evt.(type) {
		case poolevent.BucketTake:
			queue = lpAwarded[e.Pool]
			if len(queue) > 0 {
				lpAwarded[e.Pool] = queue[1:]
			}
		case poolevent.Settle:
			key := loanKey{pool: e.Pool, borrower: e.Borrower}
			queue = auctionSettles[key]
			if len(queue) > 0 {
				auctionSettles[key] = queue[1:]
			}
		default:
			continue
		}
		if len(queue) > 0 {
			companions[i] = queue[0]
			used[queue[0]] = true
		}
	}
	ret := make([]input, 0, len(events))
	for i, evt := range events {
		if used[i] {
			continue
		}
		if lp, ok := evt.(poolevent.BucketTakeLPAwarded); ok {
			return nil, UnpairedEventError{
				Event:    lp.EventName(),
				Expected: poolevent.NameBucketTake,
				TxHash:   lp.TxHash.Hex(),
				LogIndex: lp.LogIndex,
			}
		}
		in := input{primary: evt}
		if j, ok := companions[i]; ok {
			in.companion = events[j]
		}
		ret = append(ret, in)
	}
	return ret, nil
}

// validateEvent rejects events naming a bucket outside the price range
func validateEvent(evt poolevent.Event) error {
	var indexes []int32
	switch e := evt.(type) {
	case poolevent.AddCollateral:
		indexes = []int32{e.Index}
	case poolevent.AddQuoteToken:
		indexes = []int32{e.Index}
	case poolevent.RemoveCollateral:
		indexes = []int32{e.Index}
	case poolevent.RemoveQuoteToken:
		indexes = []int32{e.Index}
	case poolevent.MoveQuoteToken:
		indexes = []int32{e.From, e.To}
	case poolevent.BucketTake:
		indexes = []int32{e.Index}
	case poolevent.BucketBankruptcy:
		indexes = []int32{e.Index}
	case poolevent.SetLPAllowance:
		indexes = e.Indexes
	case poolevent.RevokeLPAllowance:
		indexes = e.Indexes
	}
	for _, idx := range indexes {
		if !poolevent.ValidBucketIndex(idx) {
			meta := evt.Metadata()
			return InvalidBucketIndexError{
				Event:    evt.EventName(),
				Index:    idx,
				TxHash:   meta.TxHash.Hex(),
				LogIndex: meta.LogIndex,
			}
		}
	}
	return nil
}
