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

package gcs

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex/database/types"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeObjects) Read(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotExist
	}
	return append([]byte(nil), val...), nil
}

func (f *fakeObjects) Write(_ context.Context, key string, val []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), val...)
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeObjects) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ret []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			ret = append(ret, k)
		}
	}
	sort.Strings(ret)
	return ret, nil
}

func newTestStore(t *testing.T) (*BlobStoreGCS, *fakeObjects) {
	t.Helper()
	objects := &fakeObjects{objects: make(map[string][]byte)}
	store, err := NewWithOptions(
		WithBucket("archive"),
		WithPrefix("ajnadex/"),
		WithPromRegistry(prometheus.NewRegistry()),
		withObjectStore(objects),
	)
	require.NoError(t, err)
	require.NoError(t, store.Start())
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store, objects
}

func TestParseDataDir(t *testing.T) {
	bucket, prefix, err := parseDataDir("gcs://archive/events")
	require.NoError(t, err)
	require.Equal(t, "archive", bucket)
	require.Equal(t, "events/", prefix)
	_, _, err = parseDataDir("s3://archive")
	require.Error(t, err)
}

func TestBufferedWrites(t *testing.T) {
	store, objects := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("event/a"), []byte("1")))
	require.Empty(t, objects.objects)
	require.NoError(t, txn.Commit())
	require.Equal(t, []byte("1"), objects.objects["ajnadex/event/a"])

	txn = store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("event/b"), []byte("2")))
	require.NoError(t, txn.Rollback())
	require.NotContains(t, objects.objects, "ajnadex/event/b")

	txn = store.NewTransaction(false)
	val, err := store.Get(txn, []byte("event/a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), val)
	_, err = store.Get(txn, []byte("event/b"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.ErrorIs(t, store.Delete(txn, []byte("event/a")), types.ErrReadOnlyTxn)
}

func TestIteratorAndTimestamp(t *testing.T) {
	store, _ := newTestStore(t)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, types.EventBlobKey(9, "0x01-1"), []byte("y")))
	require.NoError(t, store.Set(txn, types.EventBlobKey(9, "0x01-0"), []byte("x")))
	require.NoError(t, store.SetCommitTimestamp(99, txn))
	require.NoError(t, txn.Commit())

	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	require.Equal(t, int64(99), ts)

	txn = store.NewTransaction(false)
	prefix := types.EventBlobBlockPrefix(9)
	iter := store.NewIterator(txn, types.BlobIteratorOptions{Prefix: prefix, Reverse: true})
	var keys []string
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		keys = append(keys, string(iter.Item().Key()))
	}
	require.NoError(t, iter.Err())
	require.Equal(t, []string{
		string(types.EventBlobKey(9, "0x01-1")),
		string(types.EventBlobKey(9, "0x01-0")),
	}, keys)
}
