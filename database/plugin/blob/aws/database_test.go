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

package aws

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/ajnadex/database/types"
)

// fakeS3 is an in-memory S3API
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(val))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func newTestStore(t *testing.T, client *fakeS3, registry prometheus.Registerer) *BlobStoreS3 {
	t.Helper()
	store, err := NewWithOptions(
		WithBucket("archive"),
		WithPrefix("ajnadex/"),
		WithClient(client),
		WithPromRegistry(registry),
	)
	require.NoError(t, err)
	require.NoError(t, store.Start())
	return store
}

func TestParseDataDir(t *testing.T) {
	bucket, prefix, err := parseDataDir("s3://archive/events/")
	require.NoError(t, err)
	require.Equal(t, "archive", bucket)
	require.Equal(t, "events/", prefix)

	bucket, prefix, err = parseDataDir("s3://archive")
	require.NoError(t, err)
	require.Equal(t, "archive", bucket)
	require.Empty(t, prefix)

	_, _, err = parseDataDir("gcs://archive")
	require.Error(t, err)
	_, _, err = parseDataDir("s3://")
	require.Error(t, err)
}

func TestStartWithoutBucket(t *testing.T) {
	store, err := NewWithOptions()
	require.NoError(t, err)
	require.Error(t, store.Start())
}

func TestBufferedCommit(t *testing.T) {
	client := newFakeS3()
	registry := prometheus.NewRegistry()
	store := newTestStore(t, client, registry)

	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("event/1"), []byte("one")))
	// Pending writes are visible inside the transaction only
	val, err := store.Get(txn, []byte("event/1"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), val)
	require.Zero(t, client.puts)
	require.NoError(t, txn.Commit())
	require.Equal(t, 1, client.puts)
	require.Contains(t, client.objects, "ajnadex/event/1")
	require.InDelta(t, 1, testutil.ToFloat64(store.metrics.opsTotal.WithLabelValues("put")), 0)

	txn = store.NewTransaction(true)
	require.NoError(t, store.Set(txn, []byte("event/2"), []byte("two")))
	require.NoError(t, txn.Rollback())
	require.NotContains(t, client.objects, "ajnadex/event/2")

	txn = store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, []byte("event/1")))
	_, err = store.Get(txn, []byte("event/1"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Commit())
	require.Empty(t, client.objects)
}

func TestReadOnlyTxn(t *testing.T) {
	store := newTestStore(t, newFakeS3(), nil)
	txn := store.NewTransaction(false)
	require.ErrorIs(t, store.Set(txn, []byte("k"), []byte("v")), types.ErrReadOnlyTxn)
	_, err := store.Get(txn, []byte("missing"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, txn.Commit())
	_, err = store.Get(txn, []byte("missing"))
	require.Error(t, err)
}

func TestIterator(t *testing.T) {
	store := newTestStore(t, newFakeS3(), nil)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, types.EventBlobKey(5, "0xaa-2"), []byte("b")))
	require.NoError(t, store.Set(txn, types.EventBlobKey(5, "0xaa-1"), []byte("a")))
	require.NoError(t, store.Set(txn, types.EventBlobKey(6, "0xbb-0"), []byte("c")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	prefix := types.EventBlobBlockPrefix(5)
	iter := store.NewIterator(txn, types.BlobIteratorOptions{Prefix: prefix})
	var vals []string
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		val, err := iter.Item().ValueCopy(nil)
		require.NoError(t, err)
		vals = append(vals, string(val))
	}
	iter.Close()
	require.NoError(t, iter.Err())
	require.Equal(t, []string{"a", "b"}, vals)
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t, newFakeS3(), nil)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	require.Zero(t, ts)
	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(42, txn))
	require.NoError(t, txn.Commit())
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	require.Equal(t, int64(42), ts)
}
