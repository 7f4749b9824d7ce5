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

package poolevent_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex/poolevent"
	"github.com/blinklabs-io/ajnadex/wad"
)

const (
	testPool  = "0x1111111111111111111111111111111111111111"
	testTxA   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testTxB   = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testActor = "0x2222222222222222222222222222222222222222"
)

var testInput = strings.Join([]string{
	`{"event":"DrawDebt","pool":"` + testPool + `","block_number":10,"block_timestamp":1000,"tx_hash":"` + testTxA + `","tx_from":"` + testActor + `","log_index":1,"args":{"borrower":"` + testActor + `","amountBorrowed":"1000000000000000000","collateralPledged":"2000000000000000000","lup":"5000000000000000000"}}`,
	`{"event":"Settle","pool":"` + testPool + `","block_number":10,"block_timestamp":1000,"tx_hash":"` + testTxA + `","tx_from":"` + testActor + `","log_index":2,"args":{"borrower":"` + testActor + `","settledDebt":"7"}}`,
	``,
	`{"event":"ReserveAuction","pool":"` + testPool + `","block_number":11,"block_timestamp":1012,"tx_hash":"` + testTxB + `","tx_from":"` + testActor + `","log_index":0,"args":{"claimableReservesRemaining":"100","auctionPrice":"3","currentBurnEpoch":2,"outcome":"started"}}`,
}, "\n")

func TestReaderTransactions(t *testing.T) {
	r := poolevent.NewReader(strings.NewReader(testInput))
	txA, err := r.NextTransaction()
	require.NoError(t, err)
	require.Equal(t, common.HexToHash(testTxA), txA.Hash)
	require.Len(t, txA.Events, 2)
	draw, ok := txA.Events[0].(poolevent.DrawDebt)
	require.True(t, ok, "unexpected type %T", txA.Events[0])
	require.Equal(t, common.HexToAddress(testActor), draw.Borrower)
	require.Equal(t, "1", draw.AmountBorrowed.Decimal().String())
	require.Equal(t, uint64(1000), draw.BlockTime)
	require.Equal(t, common.HexToAddress(testPool), draw.Pool)
	require.Equal(t, poolevent.Position{BlockNumber: 10, LogIndex: 2}, txA.Last())

	txB, err := r.NextTransaction()
	require.NoError(t, err)
	require.Len(t, txB.Events, 1)
	ra, ok := txB.Events[0].(poolevent.ReserveAuction)
	require.True(t, ok)
	require.Equal(t, poolevent.ReserveAuctionStarted, ra.Outcome)
	require.Equal(t, uint64(2), ra.CurrentBurnEpoch)

	_, err = r.NextTransaction()
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderOutOfOrder(t *testing.T) {
	lines := strings.Split(testInput, "\n")
	input := lines[3] + "\n" + lines[0]
	r := poolevent.NewReader(strings.NewReader(input))
	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	var ooe poolevent.OutOfOrderError
	require.True(t, errors.As(err, &ooe), "unexpected error: %v", err)
	require.Equal(t, uint64(11), ooe.Previous.BlockNumber)
}

func TestReaderBadRecords(t *testing.T) {
	testDefs := []struct {
		name  string
		input string
	}{
		{
			name:  "unknown event",
			input: `{"event":"Mint","pool":"` + testPool + `","block_number":1,"tx_hash":"` + testTxA + `","log_index":0,"args":{}}`,
		},
		{
			name:  "bad outcome",
			input: `{"event":"ReserveAuction","pool":"` + testPool + `","block_number":1,"tx_hash":"` + testTxA + `","log_index":0,"args":{"outcome":"kicked"}}`,
		},
		{
			name:  "mismatched allowance",
			input: `{"event":"SetLpAllowance","pool":"` + testPool + `","block_number":1,"tx_hash":"` + testTxA + `","log_index":0,"args":{"spender":"` + testActor + `","indexes":[1,2],"amounts":["1"]}}`,
		},
		{
			name:  "malformed json",
			input: `{"event":`,
		},
	}
	for _, testDef := range testDefs {
		r := poolevent.NewReader(strings.NewReader(testDef.input))
		_, err := r.Next()
		require.Error(t, err, testDef.name)
	}
	r := poolevent.NewReader(strings.NewReader(testDefs[0].input))
	_, err := r.Next()
	require.ErrorIs(t, err, poolevent.ErrUnknownEvent)
}

func TestOpenCompressed(t *testing.T) {
	dir := t.TempDir()

	gzPath := filepath.Join(dir, "events.jsonl.gz")
	f, err := os.Create(gzPath)
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	_, err = gw.Write([]byte(testInput))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())

	zstPath := filepath.Join(dir, "events.jsonl.zst")
	f, err = os.Create(zstPath)
	require.NoError(t, err)
	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write([]byte(testInput))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	for _, path := range []string{gzPath, zstPath} {
		r, err := poolevent.Open(path)
		require.NoError(t, err, path)
		count := 0
		for {
			_, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			require.NoError(t, err, path)
			count++
		}
		require.Equal(t, 3, count, path)
		require.NoError(t, r.Close())
	}
}

func TestRecordRoundTrip(t *testing.T) {
	evt := poolevent.Kick{
		Meta: poolevent.Meta{
			Pool:        common.HexToAddress(testPool),
			BlockNumber: 20,
			TxHash:      common.HexToHash(testTxB),
			TxFrom:      common.HexToAddress(testActor),
			LogIndex:    4,
		},
		Borrower:   common.HexToAddress(testActor),
		Debt:       wad.Must("10"),
		Collateral: wad.Must("3"),
		Bond:       wad.Must("0.1"),
	}
	rec, err := poolevent.NewRecord(evt)
	require.NoError(t, err)
	require.Equal(t, poolevent.NameKick, rec.Event)
	decoded, err := rec.Decode()
	require.NoError(t, err)
	require.Equal(t, evt, decoded)
	require.Equal(t, testTxB+"-4", decoded.Metadata().ID())
}

func TestGroupTransactions(t *testing.T) {
	meta := func(tx string, logIdx uint32) poolevent.Meta {
		return poolevent.Meta{
			BlockNumber: 5,
			TxHash:      common.HexToHash(tx),
			LogIndex:    logIdx,
		}
	}
	events := []poolevent.Event{
		poolevent.Kick{Meta: meta(testTxA, 0)},
		poolevent.Take{Meta: meta(testTxA, 1)},
		poolevent.Settle{Meta: meta(testTxB, 2)},
	}
	txs := poolevent.GroupTransactions(events)
	require.Len(t, txs, 2)
	require.Len(t, txs[0].Events, 2)
	require.Len(t, txs[1].Events, 1)
	require.True(t, poolevent.ValidBucketIndex(poolevent.MaxBucketIndex))
	require.False(t, poolevent.ValidBucketIndex(poolevent.MinBucketIndex-1))
}
