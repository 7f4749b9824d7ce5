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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex/poolevent"
)

var (
	pairPoolA    = common.HexToAddress("0xa1")
	pairPoolB    = common.HexToAddress("0xb1")
	pairBorrower = common.HexToAddress("0xc1")
	pairOther    = common.HexToAddress("0xc2")
)

func pairMeta(pool common.Address, logIndex uint32) poolevent.Meta {
	return poolevent.Meta{
		Pool:        pool,
		BlockNumber: 10,
		TxHash:      common.HexToHash("0x01"),
		LogIndex:    logIndex,
	}
}

func TestPairInputsBucketTake(t *testing.T) {
	events := []poolevent.Event{
		poolevent.BucketTakeLPAwarded{Meta: pairMeta(pairPoolB, 0)},
		poolevent.BucketTake{Meta: pairMeta(pairPoolA, 1), Index: 1},
		poolevent.BucketTakeLPAwarded{Meta: pairMeta(pairPoolA, 2)},
		poolevent.BucketTake{Meta: pairMeta(pairPoolB, 3), Index: 2},
	}
	inputs, err := pairInputs(events)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	require.Equal(t, uint32(1), inputs[0].primary.Metadata().LogIndex)
	require.Equal(t, uint32(2), inputs[0].companion.Metadata().LogIndex)
	require.Equal(t, uint32(3), inputs[1].primary.Metadata().LogIndex)
	require.Equal(t, uint32(0), inputs[1].companion.Metadata().LogIndex)
}

func TestPairInputsSettle(t *testing.T) {
	events := []poolevent.Event{
		poolevent.Settle{Meta: pairMeta(pairPoolA, 0), Borrower: pairBorrower},
		poolevent.AuctionSettle{Meta: pairMeta(pairPoolA, 1), Borrower: pairOther},
		poolevent.AuctionSettle{Meta: pairMeta(pairPoolA, 2), Borrower: pairBorrower},
		poolevent.DrawDebt{Meta: pairMeta(pairPoolA, 3)},
	}
	inputs, err := pairInputs(events)
	require.NoError(t, err)
	require.Len(t, inputs, 3)
	require.Equal(t, poolevent.NameSettle, inputs[0].primary.EventName())
	require.Equal(t, uint32(2), inputs[0].companion.Metadata().LogIndex)
	// An AuctionSettle for another loan stands alone
	require.Equal(t, poolevent.NameAuctionSettle, inputs[1].primary.EventName())
	require.Nil(t, inputs[1].companion)
	require.Equal(t, poolevent.NameDrawDebt, inputs[2].primary.EventName())
}

func TestPairInputsErrors(t *testing.T) {
	_, err := pairInputs([]poolevent.Event{
		poolevent.BucketTake{Meta: pairMeta(pairPoolA, 0)},
		poolevent.BucketTakeLPAwarded{Meta: pairMeta(pairPoolB, 1)},
	})
	var unpaired UnpairedEventError
	require.True(t, errors.As(err, &unpaired))
	require.Equal(t, uint32(1), unpaired.LogIndex)

	_, err = pairInputs([]poolevent.Event{
		poolevent.MoveQuoteToken{Meta: pairMeta(pairPoolA, 0), From: 0, To: poolevent.MinBucketIndex - 1},
	})
	var invalid InvalidBucketIndexError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, poolevent.NameMoveQuoteToken, invalid.Event)
}

func TestCheckedMath(t *testing.T) {
	require.True(t, collateralization(dec("0"), dec("10"), dec("2000")).IsZero())
	require.True(t, thresholdPrice(dec("10"), dec("0")).IsZero())
	require.Equal(t, "3.333333333333333333", thresholdPrice(dec("10"), dec("3")).String())
	require.Equal(t, "10", reserveAuctionKickerAward(dec("1000")).String())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
