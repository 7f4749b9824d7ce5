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

package badger_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex/database/plugin/blob/badger"
	"github.com/blinklabs-io/ajnadex/database/types"
)

func newMemoryStore(t *testing.T) *badger.BlobStoreBadger {
	t.Helper()
	store, err := badger.New(badger.WithGc(false))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestSetGetDelete(t *testing.T) {
	store := newMemoryStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("a"), []byte("one")))
	val, err := store.Get(txn, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), val)
	require.NoError(t, txn.Commit())

	// Finished transactions cannot be reused
	_, err = store.Get(txn, []byte("a"))
	require.Error(t, err)

	txn = store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, []byte("a")))
	_, err = store.Get(txn, []byte("a"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Rollback())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err = store.Get(txn, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), val)
	require.ErrorIs(t, store.Set(txn, []byte("b"), []byte("two")), types.ErrReadOnlyTxn)
}

func TestForeignTxn(t *testing.T) {
	a := newMemoryStore(t)
	b := newMemoryStore(t)
	txn := a.NewTransaction(true)
	defer txn.Rollback() //nolint:errcheck
	require.Error(t, b.Set(txn, []byte("k"), []byte("v")))
	require.ErrorIs(t, b.Set(nil, []byte("k"), []byte("v")), types.ErrNilTxn)
}

func TestIteratorPrefix(t *testing.T) {
	store := newMemoryStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, types.EventBlobKey(10, "0xaa-1"), []byte("x")))
	require.NoError(t, store.Set(txn, types.EventBlobKey(10, "0xaa-0"), []byte("y")))
	require.NoError(t, store.Set(txn, types.EventBlobKey(11, "0xbb-0"), []byte("z")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	prefix := types.EventBlobBlockPrefix(10)
	iter := store.NewIterator(txn, types.BlobIteratorOptions{Prefix: prefix})
	defer iter.Close()
	var vals []string
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		val, err := iter.Item().ValueCopy(nil)
		require.NoError(t, err)
		vals = append(vals, string(val))
	}
	require.NoError(t, iter.Err())
	require.Equal(t, []string{"y", "x"}, vals)
}

func TestCommitTimestamp(t *testing.T) {
	store := newMemoryStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	require.Zero(t, ts)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1700000000123, txn))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	require.Equal(t, int64(1700000000123), ts)
	require.ErrorIs(t, store.SetCommitTimestamp(1, nil), types.ErrNilTxn)
}

func TestDiskStoreGc(t *testing.T) {
	registry := prometheus.NewRegistry()
	store, err := badger.New(
		badger.WithDataDir(t.TempDir()),
		badger.WithBlockCacheSize(1<<20),
		badger.WithIndexCacheSize(1<<20),
		badger.WithPromRegistry(registry),
	)
	require.NoError(t, err)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("k"), []byte("v")))
	require.NoError(t, txn.Commit())
	families, err := registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
	require.NoError(t, store.Close())
	// Closing twice is harmless
	require.NoError(t, store.Close())
}
