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

package ledger_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex/database"
	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/event"
	"github.com/blinklabs-io/ajnadex/ledger"
	"github.com/blinklabs-io/ajnadex/oracle"
	"github.com/blinklabs-io/ajnadex/poolevent"
	"github.com/blinklabs-io/ajnadex/wad"
)

var (
	testPool       = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testOtherPool  = common.HexToAddress("0x1000000000000000000000000000000000000002")
	testCollateral = common.HexToAddress("0x2000000000000000000000000000000000000001")
	testQuote      = common.HexToAddress("0x2000000000000000000000000000000000000002")
	testDeployer   = common.HexToAddress("0x3000000000000000000000000000000000000001")
	testBorrower   = common.HexToAddress("0x3000000000000000000000000000000000000002")
	testLender     = common.HexToAddress("0x3000000000000000000000000000000000000003")
	testKicker     = common.HexToAddress("0x3000000000000000000000000000000000000004")
	testTaker      = common.HexToAddress("0x3000000000000000000000000000000000000005")
)

const testStartBlock = 100

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.True(
		t,
		dec(expected).Equal(actual),
		append([]any{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...,
	)
}

type testHarness struct {
	t        *testing.T
	db       *database.Database
	oracle   *oracle.Static
	state    *ledger.State
	bus      *event.EventBus
	registry *prometheus.Registry
	block    uint64
	logIndex uint32
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	registry := prometheus.NewRegistry()
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	orc := oracle.NewStatic()
	state, err := ledger.NewState(ledger.StateConfig{
		Database:     db,
		Oracle:       orc,
		EventBus:     bus,
		PromRegistry: registry,
	})
	require.NoError(t, err)
	orc.SetPool(testPool, 0, oracle.PoolInfo{
		LUP:               dec("2000"),
		LUPIndex:          3000,
		HPB:               dec("2100"),
		HPBIndex:          2990,
		PoolSize:          dec("5000"),
		InterestRate:      dec("0.05"),
		ClaimableReserves: dec("1000"),
	})
	return &testHarness{
		t:        t,
		db:       db,
		oracle:   orc,
		state:    state,
		bus:      bus,
		registry: registry,
		block:    testStartBlock,
	}
}

func txHash(block uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(block))
}

// meta returns the metadata of the next event in the pending transaction
func (h *testHarness) meta(from common.Address) poolevent.Meta {
	return h.metaFor(testPool, from)
}

func (h *testHarness) metaFor(pool common.Address, from common.Address) poolevent.Meta {
	ret := poolevent.Meta{
		Pool:        pool,
		BlockNumber: h.block,
		BlockTime:   1_700_000_000 + h.block*12,
		TxHash:      txHash(h.block),
		TxFrom:      from,
		LogIndex:    h.logIndex,
	}
	h.logIndex++
	return ret
}

// transaction wraps the pending events and moves on to the next block
func (h *testHarness) transaction(events ...poolevent.Event) poolevent.Transaction {
	ret := poolevent.Transaction{
		Hash:        txHash(h.block),
		BlockNumber: h.block,
		Events:      events,
	}
	h.block++
	h.logIndex = 0
	return ret
}

func (h *testHarness) apply(events ...poolevent.Event) error {
	_, err := h.state.ApplyTransaction(context.Background(), h.transaction(events...))
	return err
}

func (h *testHarness) mustApply(events ...poolevent.Event) {
	h.t.Helper()
	require.NoError(h.t, h.apply(events...))
}

func (h *testHarness) createPool() {
	h.t.Helper()
	h.mustApply(poolevent.PoolCreated{
		Meta:            h.meta(testDeployer),
		PoolType:        "ERC20",
		CollateralToken: testCollateral,
		QuoteToken:      testQuote,
		InterestRate:    wad.Must("0.05"),
	})
}

func (h *testHarness) pool() *models.Pool {
	h.t.Helper()
	ret, err := h.db.GetPool(models.PoolID(testPool), nil)
	require.NoError(h.t, err)
	require.NotNil(h.t, ret)
	return ret
}

func (h *testHarness) loan(borrower common.Address) *models.Loan {
	h.t.Helper()
	ret, err := h.db.GetLoan(models.LoanID(testPool, borrower), nil)
	require.NoError(h.t, err)
	require.NotNil(h.t, ret)
	return ret
}

func (h *testHarness) account(addr common.Address) *models.Account {
	h.t.Helper()
	ret, err := h.db.GetAccount(models.AccountID(addr), nil)
	require.NoError(h.t, err)
	require.NotNil(h.t, ret)
	return ret
}

func (h *testHarness) lend(index int32, lender common.Address) *models.Lend {
	h.t.Helper()
	ret, err := h.db.GetLend(models.LendID(models.BucketID(testPool, index), lender), nil)
	require.NoError(h.t, err)
	require.NotNil(h.t, ret)
	return ret
}

func (h *testHarness) auction(id string) *models.LiquidationAuction {
	h.t.Helper()
	ret, err := h.db.GetLiquidationAuction(id, nil)
	require.NoError(h.t, err)
	require.NotNil(h.t, ret)
	return ret
}

func (h *testHarness) drawDebt(borrower common.Address, debt string, collateral string) {
	h.t.Helper()
	h.mustApply(poolevent.DrawDebt{
		Meta:              h.meta(borrower),
		Borrower:          borrower,
		AmountBorrowed:    wad.Must(debt),
		CollateralPledged: wad.Must(collateral),
		LUP:               wad.Must("2000"),
	})
}

// kick kicks the borrower's loan and returns the auction id
func (h *testHarness) kick(debt string, collateral string, bond string) string {
	h.t.Helper()
	return h.kickBorrower(testBorrower, debt, collateral, bond)
}

func (h *testHarness) kickBorrower(borrower common.Address, debt string, collateral string, bond string) string {
	h.t.Helper()
	h.oracle.SetAuction(testPool, borrower, h.block, oracle.AuctionInfo{
		Kicker:       testKicker,
		BondFactor:   dec("0.011"),
		BondSize:     dec(bond),
		KickTime:     1_700_000_000 + h.block*12,
		KickMomp:     dec("1900"),
		NeutralPrice: dec("1950"),
	})
	auctionID := models.LiquidationAuctionID(testPool, borrower, h.block)
	h.mustApply(poolevent.Kick{
		Meta:       h.meta(testKicker),
		Borrower:   borrower,
		Debt:       wad.Must(debt),
		Collateral: wad.Must(collateral),
		Bond:       wad.Must(bond),
	})
	return auctionID
}

// requireBondEscrow checks that the pool escrow equals the locked bonds of
// every kick in the pool
func (h *testHarness) requireBondEscrow() {
	h.t.Helper()
	kicks, err := h.db.GetKicksByPool(models.PoolID(testPool), nil)
	require.NoError(h.t, err)
	total := decimal.Zero
	for _, kick := range kicks {
		require.False(h.t, kick.Locked.IsNegative())
		total = total.Add(kick.Locked)
	}
	requireDecimal(h.t, total.String(), h.pool().TotalBondEscrowed)
}

// requireLoanRiskConsistent checks that zero debt goes with zero risk metrics
func requireLoanRiskConsistent(t *testing.T, loan *models.Loan) {
	t.Helper()
	zeroRisk := loan.Collateralization.IsZero() && loan.TP.IsZero()
	if loan.Debt.IsZero() {
		require.True(t, zeroRisk, "loan %s has zero debt but nonzero risk", loan.ID)
	} else if !loan.CollateralPledged.IsZero() {
		require.False(t, zeroRisk, "loan %s has debt but zero risk", loan.ID)
	}
}
