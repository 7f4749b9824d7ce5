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

package ajnadex_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex"
	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/event"
	"github.com/blinklabs-io/ajnadex/oracle"
)

const (
	testPool     = "0x1111111111111111111111111111111111111111"
	testBorrower = "0x2222222222222222222222222222222222222222"
	testDeployer = "0x4444444444444444444444444444444444444444"
)

func eventLine(name string, block uint64, logIndex uint32, from string, args string) string {
	return fmt.Sprintf(
		`{"event":"%s","pool":"%s","block_number":%d,"block_timestamp":%d,"tx_hash":"%s","tx_from":"%s","log_index":%d,"args":%s}`,
		name,
		testPool,
		block,
		1700000000+block*12,
		fmt.Sprintf("0x%064x", block),
		from,
		logIndex,
		args,
	)
}

func writeEvents(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
}

var testEvents = []string{
	eventLine("PoolCreated", 10, 0, testDeployer, `{"poolType":"ERC20","collateralToken":"0x5555555555555555555555555555555555555555","quoteToken":"0x6666666666666666666666666666666666666666","interestRate":"50000000000000000"}`),
	eventLine("DrawDebt", 11, 2, testBorrower, `{"borrower":"`+testBorrower+`","amountBorrowed":"1000000000000000000000","collateralPledged":"2000000000000000000","lup":"2000000000000000000000"}`),
}

func newTestIndexer(t *testing.T, opts ...ajnadex.ConfigOptionFunc) *ajnadex.Indexer {
	t.Helper()
	orc := oracle.NewStatic()
	orc.SetPool(common.HexToAddress(testPool), 0, oracle.PoolInfo{
		LUP:          decimal.NewFromInt(2000),
		LUPIndex:     3000,
		PoolSize:     decimal.NewFromInt(5000),
		InterestRate: decimal.RequireFromString("0.05"),
	})
	opts = append([]ajnadex.ConfigOptionFunc{ajnadex.WithOracle(orc)}, opts...)
	idx, err := ajnadex.New(ajnadex.NewConfig(opts...))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, idx.Stop())
	})
	return idx
}

func getLoan(t *testing.T, idx *ajnadex.Indexer) *models.Loan {
	t.Helper()
	loan, err := idx.State().Database().Metadata().GetLoan(
		models.LoanID(common.HexToAddress(testPool), common.HexToAddress(testBorrower)),
		nil,
	)
	require.NoError(t, err)
	return loan
}

func TestNewRequiresOracle(t *testing.T) {
	_, err := ajnadex.New(ajnadex.NewConfig())
	require.Error(t, err)
}

func TestLoadFileIsIdempotent(t *testing.T) {
	idx := newTestIndexer(t)
	_, applied := idx.EventBus().Subscribe(event.TransactionAppliedEventType)
	require.NoError(t, idx.Start(context.Background()))

	path := filepath.Join(t.TempDir(), "events.jsonl")
	writeEvents(t, path, testEvents...)

	stats, err := idx.LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, ajnadex.LoadStats{Transactions: 2, Applied: 2}, stats)

	loan := getLoan(t, idx)
	require.NotNil(t, loan)
	require.True(t, loan.Debt.Equal(decimal.NewFromInt(1000)), "got %s", loan.Debt)

	for range 2 {
		select {
		case evt := <-applied:
			_, ok := evt.Data.(event.TransactionAppliedEvent)
			require.True(t, ok)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for notification")
		}
	}

	stats, err = idx.LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, ajnadex.LoadStats{Transactions: 2, Skipped: 2}, stats)
	loan = getLoan(t, idx)
	require.True(t, loan.Debt.Equal(decimal.NewFromInt(1000)))
}

func TestLoadFileRequiresStart(t *testing.T) {
	idx := newTestIndexer(t)
	_, err := idx.LoadFile(context.Background(), "missing.jsonl")
	require.Error(t, err)
}

func TestRunInputs(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "0001.jsonl")
	second := filepath.Join(dir, "0002.jsonl")
	writeEvents(t, first, testEvents[0])
	writeEvents(t, second, testEvents[1])
	idx := newTestIndexer(t, ajnadex.WithInputs(first, second))
	require.NoError(t, idx.Run(context.Background()))
	require.NotNil(t, getLoan(t, idx))
	cursor, err := idx.State().Cursor()
	require.NoError(t, err)
	require.Equal(t, uint64(11), cursor.BlockNumber)
	require.Equal(t, uint32(2), cursor.LogIndex)
}

func TestRunBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	writeEvents(t, path, `{"event":`)
	idx := newTestIndexer(t, ajnadex.WithInputs(path))
	require.Error(t, idx.Run(context.Background()))
}

func TestRunWatchDir(t *testing.T) {
	dir := t.TempDir()
	idx := newTestIndexer(
		t,
		ajnadex.WithWatchDir(dir),
		ajnadex.WithPollInterval(10*time.Millisecond),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, idx.Start(ctx))
	runErr := make(chan error, 1)
	go func() {
		runErr <- idx.Run(ctx)
	}()

	// Staged files are ignored until renamed into place
	staged := filepath.Join(dir, ".0001.jsonl")
	writeEvents(t, staged, testEvents...)
	require.NoError(t, os.Rename(staged, filepath.Join(dir, "0001.jsonl")))

	require.Eventually(t, func() bool {
		cursor, err := idx.State().Cursor()
		return err == nil && cursor != nil && cursor.BlockNumber == 11
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
