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

package sqlite_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/ajnadex/database/types"
)

func newTestStore(t *testing.T) *sqlite.MetadataStoreSqlite {
	t.Helper()
	store, err := sqlite.New("", nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestPoolUpsert(t *testing.T) {
	store := newTestStore(t)
	pool, err := store.GetPool("0xabc", nil)
	require.NoError(t, err)
	require.Nil(t, pool)

	pool = &models.Pool{
		ID:                 "0xabc",
		CurrentDebt:        decimal.RequireFromString("10.000000000000000001"),
		LoansCount:         1,
		ActiveLiquidations: types.StringList{"0xabc-0x01-5"},
	}
	require.NoError(t, store.SetPool(pool, nil))

	pool.CurrentDebt = decimal.RequireFromString("4.5")
	pool.ActiveLiquidations = nil
	pool.TxCount = 3
	require.NoError(t, store.SetPool(pool, nil))

	got, err := store.GetPool("0xabc", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.True(t, got.CurrentDebt.Equal(decimal.RequireFromString("4.5")))
	require.Empty(t, got.ActiveLiquidations)
	require.Equal(t, uint64(3), got.TxCount)
	require.Equal(t, uint64(1), got.LoansCount)

	pools, err := store.GetPools(nil)
	require.NoError(t, err)
	require.Len(t, pools, 1)
}

func TestDecimalPrecision(t *testing.T) {
	store := newTestStore(t)
	huge := decimal.RequireFromString("1004968987.606512354182109771")
	require.NoError(t, store.SetBucket(&models.Bucket{
		ID:          "0xabc-0",
		PoolID:      "0xabc",
		BucketPrice: huge,
		Lends:       types.StringList{"0xabc-0-0x01", "0xabc-0-0x02"},
	}, nil))
	got, err := store.GetBucket("0xabc-0", nil)
	require.NoError(t, err)
	require.True(t, huge.Equal(got.BucketPrice), "got %s", got.BucketPrice)
	require.Equal(t, types.StringList{"0xabc-0-0x01", "0xabc-0-0x02"}, got.Lends)

	buckets, err := store.GetBucketsByPool("0xabc", nil)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NotNil(t, txn)
	require.NoError(t, store.SetLoan(&models.Loan{ID: "0xabc-0x01"}, txn))
	require.NoError(t, store.SetCursor(&models.Cursor{BlockNumber: 7, LogIndex: 2}, txn))
	got, err := store.GetLoan("0xabc-0x01", txn)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NoError(t, txn.Rollback())

	got, err = store.GetLoan("0xabc-0x01", nil)
	require.NoError(t, err)
	require.Nil(t, got)
	cursor, err := store.GetCursor(nil)
	require.NoError(t, err)
	require.Nil(t, cursor)

	txn = store.Transaction()
	require.NoError(t, store.SetCursor(&models.Cursor{BlockNumber: 7, LogIndex: 2}, txn))
	require.NoError(t, store.SetCommitTimestamp(1234, txn))
	require.NoError(t, txn.Commit())
	cursor, err = store.GetCursor(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(7), cursor.BlockNumber)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	require.Equal(t, int64(1234), ts)
}

func TestLPAllowanceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	allowance := &models.LPAllowance{
		ID:      "0xabc-0x01-0x02",
		PoolID:  "0xabc",
		Owner:   "0x01",
		Spender: "0x02",
		Allowances: types.IndexAmounts{
			2550: decimal.RequireFromString("12.5"),
			-10:  decimal.NewFromInt(1),
		},
	}
	require.NoError(t, store.SetLPAllowance(allowance, nil))
	got, err := store.GetLPAllowance(allowance.ID, nil)
	require.NoError(t, err)
	require.Equal(t, []int32{-10, 2550}, got.Allowances.Indexes())
	require.True(t, got.Allowances[2550].Equal(decimal.RequireFromString("12.5")))
}

func TestSeparateMemoryStores(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)
	require.NoError(t, a.SetAccount(&models.Account{ID: "0x01", TxCount: 1}, nil))
	got, err := b.GetAccount("0x01", nil)
	require.NoError(t, err)
	require.Nil(t, got)
}
