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
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/option"

	"github.com/blinklabs-io/ajnadex/database/plugin"
	"github.com/blinklabs-io/ajnadex/database/types"
)

// BlobStoreGCS stores data in a Google Cloud Storage bucket.
type BlobStoreGCS struct {
	promRegistry    prometheus.Registerer
	logger          *plugin.PrintfLogger
	client          *storage.Client
	objects         objectStore
	opsTotal        *prometheus.CounterVec
	bucketName      string
	prefix          string
	credentialsFile string
	timeout         time.Duration
}

// gcsTxn buffers writes until Commit
type gcsTxn struct {
	store     *BlobStoreGCS
	writes    map[string][]byte
	deletes   map[string]struct{}
	finished  bool
	readWrite bool
}

// New creates a new GCS-backed blob store.
func New(
	dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*BlobStoreGCS, error) {
	bucketName, prefix, err := parseDataDir(dataDir)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(
		WithBucket(bucketName),
		WithPrefix(prefix),
		WithLogger(logger),
		WithPromRegistry(promRegistry),
	)
}

// parseDataDir splits "gcs://bucket[/prefix]" into bucket and object prefix
func parseDataDir(dataDir string) (string, string, error) {
	after, ok := strings.CutPrefix(dataDir, "gcs://")
	if !ok || after == "" {
		return "", "", errors.New(
			"gcs blob: bucket not set (expected dataDir='gcs://<bucket>[/prefix]')",
		)
	}
	bucketName, prefix, _ := strings.Cut(after, "/")
	if bucketName == "" {
		return "", "", errors.New("gcs blob: invalid path (missing bucket)")
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return bucketName, prefix, nil
}

// NewWithOptions creates a new GCS-backed blob store using options.
func NewWithOptions(opts ...BlobStoreGCSOptionFunc) (*BlobStoreGCS, error) {
	db := &BlobStoreGCS{}

	// Apply options
	for _, opt := range opts {
		opt(db)
	}

	// Set defaults
	if db.logger == nil {
		db.logger = plugin.NewPrintfLogger(nil, "gcs")
	}

	return db, nil
}

func (d *BlobStoreGCS) SetLogger(logger *slog.Logger) {
	d.logger = plugin.NewPrintfLogger(logger, "gcs")
}

func (d *BlobStoreGCS) SetPromRegistry(registry prometheus.Registerer) {
	d.promRegistry = registry
}

func (d *BlobStoreGCS) init() error {
	// Configure metrics
	if d.promRegistry != nil && d.opsTotal == nil {
		opsTotal := prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_blob_gcs_ops_total",
				Help: "Total number of GCS blob operations",
			},
			[]string{"op"},
		)
		if err := d.promRegistry.Register(opsTotal); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
			existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return err
			}
			opsTotal = existing
		}
		d.opsTotal = opsTotal
	}
	return nil
}

func (d *BlobStoreGCS) countOp(op string) {
	if d.opsTotal != nil {
		d.opsTotal.WithLabelValues(op).Inc()
	}
}

func (d *BlobStoreGCS) opContext() (context.Context, context.CancelFunc) {
	timeout := d.timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// Close closes the GCS client.
func (d *BlobStoreGCS) Close() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// Returns the GCS client.
func (d *BlobStoreGCS) Client() *storage.Client {
	return d.client
}

// Start implements the plugin.Plugin interface.
func (d *BlobStoreGCS) Start() error {
	if err := d.init(); err != nil {
		return err
	}
	// An object store supplied with withObjectStore is used as is
	if d.objects != nil {
		return nil
	}
	// Validate required fields
	if d.bucketName == "" {
		return errors.New("gcs blob: bucket not set")
	}

	// Validate credentials file if specified
	if err := ValidateCredentials(d.credentialsFile); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := []option.ClientOption{
		storage.WithDisabledClientMetrics(),
	}
	if d.credentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(d.credentialsFile),
		)
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf(
			"gcs blob: failed in creating storage client: %w",
			err,
		)
	}

	d.client = client
	d.objects = &bucketObjects{bucket: client.Bucket(d.bucketName)}
	d.logger.Infof("gcs blob store using bucket %q", d.bucketName)
	return nil
}

// Stop implements the plugin.Plugin interface.
func (d *BlobStoreGCS) Stop() error {
	return d.Close()
}

// NewTransaction returns a transaction that buffers writes until Commit
func (d *BlobStoreGCS) NewTransaction(readWrite bool) types.Txn {
	return &gcsTxn{
		store:     d,
		readWrite: readWrite,
		writes:    make(map[string][]byte),
		deletes:   make(map[string]struct{}),
	}
}

func (t *gcsTxn) Commit() error {
	if t.finished {
		return nil
	}
	if len(t.writes) > 0 || len(t.deletes) > 0 {
		ctx, cancel := t.store.opContext()
		defer cancel()
		keys := make([]string, 0, len(t.writes))
		for key := range t.writes {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := t.store.objects.Write(ctx, t.store.prefix+key, t.writes[key]); err != nil {
				t.store.logger.Errorf("gcs write %q failed: %v", key, err)
				return err
			}
			t.store.countOp("write")
		}
		for key := range t.deletes {
			if err := t.store.objects.Delete(ctx, t.store.prefix+key); err != nil {
				t.store.logger.Errorf("gcs delete %q failed: %v", key, err)
				return err
			}
			t.store.countOp("delete")
		}
	}
	t.finished = true
	return nil
}

func (t *gcsTxn) Rollback() error {
	t.writes = nil
	t.deletes = nil
	t.finished = true
	return nil
}

func (d *BlobStoreGCS) validateTxn(txn types.Txn) (*gcsTxn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	t, ok := txn.(*gcsTxn)
	if !ok || t.store != d {
		return nil, types.ErrTxnWrongType
	}
	if t.finished {
		return nil, errors.New("transaction already finished")
	}
	if d.objects == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	return t, nil
}

// Get retrieves a value within a transaction, seeing its pending writes
func (d *BlobStoreGCS) Get(txn types.Txn, key []byte) ([]byte, error) {
	t, err := d.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	if val, ok := t.writes[string(key)]; ok {
		return bytes.Clone(val), nil
	}
	if _, ok := t.deletes[string(key)]; ok {
		return nil, types.ErrBlobKeyNotFound
	}
	ctx, cancel := d.opContext()
	defer cancel()
	data, err := d.objects.Read(ctx, d.prefix+string(key))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, types.ErrBlobKeyNotFound
		}
		d.logger.Errorf("gcs read %q failed: %v", string(key), err)
		return nil, err
	}
	d.countOp("read")
	return data, nil
}

// Set stages a key-value pair for writing on Commit
func (d *BlobStoreGCS) Set(txn types.Txn, key, val []byte) error {
	t, err := d.validateTxn(txn)
	if err != nil {
		return err
	}
	if !t.readWrite {
		return types.ErrReadOnlyTxn
	}
	delete(t.deletes, string(key))
	t.writes[string(key)] = bytes.Clone(val)
	return nil
}

// Delete stages a key for removal on Commit
func (d *BlobStoreGCS) Delete(txn types.Txn, key []byte) error {
	t, err := d.validateTxn(txn)
	if err != nil {
		return err
	}
	if !t.readWrite {
		return types.ErrReadOnlyTxn
	}
	delete(t.writes, string(key))
	t.deletes[string(key)] = struct{}{}
	return nil
}

// NewIterator creates an iterator over the committed objects matching the
// prefix
func (d *BlobStoreGCS) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	if _, err := d.validateTxn(txn); err != nil {
		return &gcsIterator{err: err}
	}
	ctx, cancel := d.opContext()
	defer cancel()
	names, err := d.objects.List(ctx, d.prefix+string(opts.Prefix))
	if err != nil {
		d.logger.Errorf("gcs list failed: %v", err)
		return &gcsIterator{err: err}
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, strings.TrimPrefix(name, d.prefix))
	}
	sort.Strings(keys)
	if opts.Reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	}
	return &gcsIterator{store: d, txn: txn, keys: keys}
}

type gcsIterator struct {
	store *BlobStoreGCS
	txn   types.Txn
	keys  []string
	idx   int
	err   error
}

func (it *gcsIterator) Rewind() { it.idx = 0 }

func (it *gcsIterator) Seek(prefix []byte) {
	target := string(prefix)
	it.idx = sort.Search(len(it.keys), func(i int) bool {
		return it.keys[i] >= target
	})
}

func (it *gcsIterator) Valid() bool {
	return it.err == nil && it.idx < len(it.keys)
}

func (it *gcsIterator) ValidForPrefix(prefix []byte) bool {
	return it.Valid() && strings.HasPrefix(it.keys[it.idx], string(prefix))
}

func (it *gcsIterator) Next() {
	if it.idx < len(it.keys) {
		it.idx++
	}
}

func (it *gcsIterator) Item() types.BlobItem {
	if !it.Valid() {
		return nil
	}
	return &gcsItem{store: it.store, txn: it.txn, key: it.keys[it.idx]}
}

func (it *gcsIterator) Close()     {}
func (it *gcsIterator) Err() error { return it.err }

type gcsItem struct {
	store *BlobStoreGCS
	txn   types.Txn
	key   string
}

func (i *gcsItem) Key() []byte {
	return []byte(i.key)
}

func (i *gcsItem) ValueCopy(dst []byte) ([]byte, error) {
	data, err := i.store.Get(i.txn, []byte(i.key))
	if err != nil {
		return nil, err
	}
	return append(dst[:0], data...), nil
}
