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

// Package ajnadex wires the event store, the pool state oracle and the
// lending ledgers into an indexer that loads pool event files
package ajnadex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blinklabs-io/ajnadex/database"
	"github.com/blinklabs-io/ajnadex/event"
	"github.com/blinklabs-io/ajnadex/ledger"
	"github.com/blinklabs-io/ajnadex/oracle"
	"github.com/blinklabs-io/ajnadex/poolevent"
)

// LoadStats summarizes one event file
type LoadStats struct {
	Transactions int
	Applied      int
	Skipped      int
}

// ErrStopped is returned by LoadFile when Stop interrupts it
var ErrStopped = errors.New("indexer is stopped")

type Indexer struct {
	config        Config
	db            *database.Database
	oracle        oracle.Oracle
	state         *ledger.State
	eventBus      *event.EventBus
	shutdownFuncs []func(context.Context) error
	loaded        map[string]struct{}
	runWg         sync.WaitGroup
	startOnce     sync.Once
	startErr      error
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Indexer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	i := &Indexer{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		loaded:   make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	return i, nil
}

// EventBus returns the bus that ledger notifications are published on
func (i *Indexer) EventBus() *event.EventBus {
	return i.eventBus
}

// State returns the ledger state. It is nil until Start returns
func (i *Indexer) State() *ledger.State {
	return i.state
}

// Start opens the database and the oracle. It is called by Run, and only
// needs to be called directly when loading files with LoadFile
func (i *Indexer) Start(ctx context.Context) error {
	i.startOnce.Do(func() {
		i.startErr = i.start(ctx)
	})
	return i.startErr
}

func (i *Indexer) start(ctx context.Context) error {
	// Configure tracing
	if i.config.tracing {
		if err := i.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	dbConfig := &database.Config{
		DataDir:        i.config.dataDir,
		BlobPlugin:     i.config.blobPlugin,
		MetadataPlugin: i.config.metadataPlugin,
		Logger:         i.config.logger,
		PromRegistry:   i.config.promRegistry,
	}
	db, err := database.New(dbConfig)
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	i.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		// Archive records are rewritten when the events are replayed
		i.config.logger.Warn(
			"database commit timestamps differ, continuing",
			"component", "indexer",
			"behind", dbErr.Behind(),
			"error", err,
		)
	}
	if err := i.setupOracle(ctx); err != nil {
		return err
	}
	// Load state
	state, err := ledger.NewState(
		ledger.StateConfig{
			Logger:       i.config.logger,
			Database:     i.db,
			Oracle:       i.oracle,
			EventBus:     i.eventBus,
			PromRegistry: i.config.promRegistry,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}
	i.state = state
	i.eventBus.SubscribeFunc(event.LiquidationEventType, i.logLiquidation)
	cursor, err := state.Cursor()
	if err != nil {
		return fmt.Errorf("failed to read cursor: %w", err)
	}
	if cursor != nil {
		i.config.logger.Info(
			fmt.Sprintf(
				"resuming after block %d log %d",
				cursor.BlockNumber,
				cursor.LogIndex,
			),
			"component", "indexer",
		)
	}
	return nil
}

func (i *Indexer) setupOracle(ctx context.Context) error {
	o := i.config.oracle
	if o == nil {
		rpc, err := oracle.Dial(
			ctx,
			i.config.rpcURL,
			oracle.RPCConfig{
				Logger:        i.config.logger,
				PromRegistry:  i.config.promRegistry,
				PoolInfoUtils: i.config.poolInfoUtils,
				Timeout:       i.config.rpcTimeout,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to connect oracle: %w", err)
		}
		i.shutdownFuncs = append(
			i.shutdownFuncs,
			func(context.Context) error { return rpc.Close() },
		)
		o = rpc
	}
	if i.config.oracleCacheSize > 0 {
		cached, err := oracle.NewCached(o, i.config.oracleCacheSize)
		if err != nil {
			return fmt.Errorf("failed to create oracle cache: %w", err)
		}
		o = cached
	}
	i.oracle = o
	return nil
}

func (i *Indexer) logLiquidation(evt event.Event) {
	data, ok := evt.Data.(event.LiquidationEvent)
	if !ok {
		return
	}
	i.config.logger.Debug(
		"liquidation "+string(data.Transition),
		"component", "indexer",
		"pool", data.PoolID,
		"loan", data.LoanID,
		"auction", data.AuctionID,
		"block", data.BlockNumber,
	)
}

// Run loads the configured input files and then, when a watch directory is
// configured, keeps loading new files from it until the context is canceled
// or Stop is called
func (i *Indexer) Run(ctx context.Context) error {
	select {
	case <-i.done:
		return ErrStopped
	default:
	}
	i.runWg.Add(1)
	defer i.runWg.Done()
	if err := i.Start(ctx); err != nil {
		return err
	}
	err := i.run(ctx)
	if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (i *Indexer) run(ctx context.Context) error {
	for _, path := range i.config.inputs {
		if _, err := i.loadOnce(ctx, path); err != nil {
			return err
		}
	}
	if i.config.watchDir == "" {
		return nil
	}
	return i.watch(ctx)
}

func (i *Indexer) watch(ctx context.Context) error {
	interval := i.config.pollInterval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	i.config.logger.Info(
		"watching for event files in "+i.config.watchDir,
		"component", "indexer",
	)
	for {
		if err := i.scanWatchDir(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-i.done:
			return nil
		case <-ticker.C:
		}
	}
}

// scanWatchDir loads files not seen before in name order. Hidden files are
// ignored so writers can stage a file and rename it into place
func (i *Indexer) scanWatchDir(ctx context.Context) error {
	entries, err := os.ReadDir(i.config.watchDir)
	if err != nil {
		return fmt.Errorf("failed to read watch dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, err := i.loadOnce(ctx, filepath.Join(i.config.watchDir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (i *Indexer) loadOnce(ctx context.Context, path string) (LoadStats, error) {
	if _, ok := i.loaded[path]; ok {
		return LoadStats{}, nil
	}
	stats, err := i.LoadFile(ctx, path)
	if err != nil {
		return stats, err
	}
	i.loaded[path] = struct{}{}
	return stats, nil
}

// LoadFile applies every transaction in an event file. Transactions at or
// before the cursor are skipped, so a file can be loaded again safely
func (i *Indexer) LoadFile(ctx context.Context, path string) (LoadStats, error) {
	var stats LoadStats
	if i.state == nil {
		return stats, errors.New("indexer is not started")
	}
	r, err := poolevent.Open(path)
	if err != nil {
		return stats, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		select {
		case <-i.done:
			return stats, ErrStopped
		default:
		}
		tx, err := r.NextTransaction()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read %s: %w", path, err)
		}
		stats.Transactions++
		applied, err := i.state.ApplyTransaction(ctx, tx)
		if err != nil {
			return stats, fmt.Errorf("load %s: %w", path, err)
		}
		if applied {
			stats.Applied++
		} else {
			stats.Skipped++
		}
	}
	i.config.logger.Info(
		fmt.Sprintf("loaded %s", filepath.Base(path)),
		"component", "indexer",
		"transactions", stats.Transactions,
		"applied", stats.Applied,
		"skipped", stats.Skipped,
		"duration", time.Since(start).String(),
	)
	return stats, nil
}

func (i *Indexer) Stop() error {
	var err error
	i.shutdownOnce.Do(func() {
		err = i.shutdown()
	})
	return err
}

func (i *Indexer) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := DefaultShutdownTimeout
	if i.config.shutdownTimeout > 0 {
		shutdownTimeout = i.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	i.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	i.config.logger.Debug("shutdown phase 1: stopping loader")
	close(i.done)
	runDone := make(chan struct{})
	go func() {
		i.runWg.Wait()
		close(runDone)
	}()
	select {
	case <-runDone:
	case <-ctx.Done():
		err = errors.Join(err, fmt.Errorf("waiting for loader: %w", ctx.Err()))
	}

	// Phase 2: Close database
	i.config.logger.Debug("shutdown phase 2: closing database")
	if i.db != nil {
		if closeErr := i.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 3: Cleanup resources
	i.config.logger.Debug("shutdown phase 3: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range i.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	i.shutdownFuncs = nil

	if i.eventBus != nil {
		i.eventBus.Stop()
	}

	i.config.logger.Debug("graceful shutdown complete")
	return err
}
