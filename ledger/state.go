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

// Package ledger applies pool events to the derived lending state: pools,
// buckets, lends, loans, liquidation auctions, reserve auctions and the
// account index
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/ajnadex/database"
	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/event"
	"github.com/blinklabs-io/ajnadex/oracle"
	"github.com/blinklabs-io/ajnadex/poolevent"
)

const tracerName = "github.com/blinklabs-io/ajnadex/ledger"

type StateConfig struct {
	Logger         *slog.Logger
	Database       *database.Database
	Oracle         oracle.Oracle
	EventBus       *event.EventBus
	PromRegistry   prometheus.Registerer
	TracerProvider trace.TracerProvider
}

// State applies transactions to the store one at a time
type State struct {
	sync.Mutex
	config  StateConfig
	db      *database.Database
	oracle  oracle.Oracle
	tracer  trace.Tracer
	metrics stateMetrics
}

func NewState(cfg StateConfig) (*State, error) {
	if cfg.Database == nil {
		return nil, ErrNilDatabase
	}
	if cfg.Oracle == nil {
		return nil, ErrNilOracle
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	s := &State{
		config: cfg,
		db:     cfg.Database,
		oracle: cfg.Oracle,
		tracer: cfg.TracerProvider.Tracer(tracerName),
	}
	s.metrics.init(cfg.PromRegistry)
	cursor, err := s.db.GetCursor(nil)
	if err != nil {
		return nil, fmt.Errorf("load cursor: %w", err)
	}
	if cursor != nil {
		s.metrics.cursorBlock.Set(float64(cursor.BlockNumber))
	}
	return s, nil
}

func (s *State) Database() *database.Database {
	return s.db
}

// Cursor returns the position of the last applied transaction, or nil when
// nothing has been applied
func (s *State) Cursor() (*models.Cursor, error) {
	return s.db.GetCursor(nil)
}

// alreadyApplied reports whether the transaction ending at pos is at or
// before the cursor
func alreadyApplied(cursor *models.Cursor, pos poolevent.Position) bool {
	if cursor == nil {
		return false
	}
	applied := poolevent.Position{
		BlockNumber: cursor.BlockNumber,
		LogIndex:    cursor.LogIndex,
	}
	return !applied.Less(pos)
}

// ApplyTransaction applies every event of a transaction and commits the
// result together with the new cursor. It returns false without changing
// anything when the transaction was already applied
func (s *State) ApplyTransaction(
	ctx context.Context,
	tx poolevent.Transaction,
) (bool, error) {
	s.Lock()
	defer s.Unlock()
	ctx, span := s.tracer.Start(
		ctx,
		"ledger.ApplyTransaction",
		trace.WithAttributes(
			attribute.String("tx_hash", tx.Hash.Hex()),
			attribute.Int64("block_number", int64(tx.BlockNumber)), // #nosec G115
			attribute.Int("events", len(tx.Events)),
		),
	)
	defer span.End()
	applied, err := s.applyTransaction(ctx, tx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	span.SetAttributes(attribute.Bool("applied", applied))
	return applied, nil
}

func (s *State) applyTransaction(
	ctx context.Context,
	tx poolevent.Transaction,
) (bool, error) {
	if len(tx.Events) == 0 {
		return false, nil
	}
	startTime := time.Now()
	last := tx.Last()
	cursor, err := s.db.GetCursor(nil)
	if err != nil {
		return false, fmt.Errorf("load cursor: %w", err)
	}
	if alreadyApplied(cursor, last) {
		s.metrics.transactionsSkipped.Inc()
		s.config.Logger.Debug(
			"skipping already applied transaction",
			"component", "ledger",
			"tx_hash", tx.Hash.Hex(),
			"block", tx.BlockNumber,
		)
		return false, nil
	}
	inputs, err := pairInputs(tx.Events)
	if err != nil {
		return false, err
	}
	var b *batch
	txn := s.db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		b = newBatch(s.db, txn)
		for _, evt := range tx.Events {
			rec, err := poolevent.NewRecord(evt)
			if err != nil {
				return fmt.Errorf("encode %s: %w", evt.EventName(), err)
			}
			b.records = append(b.records, &database.ArchivedEvent{Record: rec})
		}
		for _, in := range inputs {
			if err := s.applyInput(ctx, b, in); err != nil {
				return err
			}
		}
		if err := b.flush(s.db); err != nil {
			return err
		}
		return s.db.SetCursor(
			&models.Cursor{
				BlockNumber: last.BlockNumber,
				LogIndex:    last.LogIndex,
				TxHash:      tx.Hash.Hex(),
			},
			txn,
		)
	})
	if err != nil {
		return false, err
	}
	s.metrics.transactionsApplied.Inc()
	s.metrics.cursorBlock.Set(float64(last.BlockNumber))
	s.metrics.applyDuration.Observe(time.Since(startTime).Seconds())
	s.publish(tx, last, b)
	return true, nil
}

// publish announces a committed transaction on the event bus
func (s *State) publish(
	tx poolevent.Transaction,
	last poolevent.Position,
	b *batch,
) {
	if s.config.EventBus == nil {
		return
	}
	applied := event.TransactionAppliedEvent{
		TxHash:       tx.Hash.Hex(),
		BlockNumber:  tx.BlockNumber,
		LastLogIndex: last.LogIndex,
	}
	for _, rec := range b.records {
		applied.BlockTime = rec.BlockTimestamp
		applied.Events = append(applied.Events, string(rec.Event))
		poolID := models.PoolID(rec.Pool)
		if !slices.Contains(applied.Pools, poolID) {
			applied.Pools = append(applied.Pools, poolID)
		}
		if rec.Skipped {
			applied.SkippedEvents++
		}
	}
	for _, n := range b.notifications {
		s.config.EventBus.Publish(n.eventType, event.NewEvent(n.eventType, n.data))
	}
	s.config.EventBus.Publish(
		event.TransactionAppliedEventType,
		event.NewEvent(event.TransactionAppliedEventType, applied),
	)
}

// applyContext carries what a handler needs to apply one input
type applyContext struct {
	ctx    context.Context
	state  *State
	batch  *batch
	pool   *models.Pool
	meta   poolevent.Meta
	record *database.ArchivedEvent
}

func (b *batch) record(id string) *database.ArchivedEvent {
	for _, rec := range b.records {
		if rec.ID() == id {
			return rec
		}
	}
	return nil
}

func (s *State) applyInput(ctx context.Context, b *batch, in input) error {
	meta := in.primary.Metadata()
	h := &applyContext{
		ctx:    ctx,
		state:  s,
		batch:  b,
		meta:   meta,
		record: b.record(meta.ID()),
	}
	if created, ok := in.primary.(poolevent.PoolCreated); ok {
		return h.handlePoolCreated(created)
	}
	poolID := models.PoolID(meta.Pool)
	pool, err := b.pools.get(poolID, b.txn)
	if err != nil {
		return err
	}
	if pool == nil {
		s.skipInput(b, in, MissingAggregateError{
			Kind:  AggregatePool,
			Pool:  poolID,
			Block: meta.BlockNumber,
		})
		return nil
	}
	h.pool = pool
	if err := h.dispatch(in); err != nil {
		return fmt.Errorf(
			"apply %s at block %d log %d: %w",
			in.primary.EventName(),
			meta.BlockNumber,
			meta.LogIndex,
			err,
		)
	}
	s.metrics.eventsApplied.WithLabelValues(string(in.primary.EventName())).Inc()
	if in.companion != nil {
		s.metrics.eventsApplied.WithLabelValues(string(in.companion.EventName())).Inc()
	}
	return nil
}

// skipInput archives an input's records without touching the ledgers
func (s *State) skipInput(b *batch, in input, reason error) {
	var missing MissingAggregateError
	label := "other"
	if errors.As(reason, &missing) {
		label = "missing_" + missing.Kind
	}
	for _, evt := range []poolevent.Event{in.primary, in.companion} {
		if evt == nil {
			continue
		}
		if rec := b.record(evt.Metadata().ID()); rec != nil {
			rec.Skipped = true
		}
		s.metrics.eventsSkipped.WithLabelValues(label).Inc()
	}
	s.config.Logger.Warn(
		"event not applied",
		"component", "ledger",
		"event", in.primary.EventName(),
		"id", in.primary.Metadata().ID(),
		"reason", reason.Error(),
	)
}

func (h *applyContext) dispatch(in input) error {
	switch e := in.primary.(type) {
	case poolevent.AddCollateral:
		return h.handleAddCollateral(e)
	case poolevent.AddQuoteToken:
		return h.handleAddQuoteToken(e)
	case poolevent.RemoveCollateral:
		return h.handleRemoveCollateral(e)
	case poolevent.RemoveQuoteToken:
		return h.handleRemoveQuoteToken(e)
	case poolevent.MoveQuoteToken:
		return h.handleMoveQuoteToken(e)
	case poolevent.DrawDebt:
		return h.handleDrawDebt(e)
	case poolevent.RepayDebt:
		return h.handleRepayDebt(e)
	case poolevent.UpdateInterestRate:
		return h.handleUpdateInterestRate(e)
	case poolevent.Kick:
		return h.handleKick(e)
	case poolevent.Take:
		return h.handleTake(e)
	case poolevent.BucketTake:
		var lp *poolevent.BucketTakeLPAwarded
		if c, ok := in.companion.(poolevent.BucketTakeLPAwarded); ok {
			lp = &c
		}
		return h.handleBucketTake(e, lp)
	case poolevent.Settle:
		var as *poolevent.AuctionSettle
		if c, ok := in.companion.(poolevent.AuctionSettle); ok {
			as = &c
		}
		return h.handleSettle(e, as)
	case poolevent.AuctionSettle:
		return h.handleAuctionSettle(e)
	case poolevent.AuctionNFTSettle:
		return h.handleAuctionNFTSettle(e)
	case poolevent.BucketBankruptcy:
		return h.handleBucketBankruptcy(e)
	case poolevent.ReserveAuction:
		return h.handleReserveAuction(e)
	case poolevent.BondWithdrawn:
		return h.handleBondWithdrawn(e)
	case poolevent.TransferLPs:
		return h.handleTransferLPs(e)
	case poolevent.LoanStamped:
		// Recorded only
		return nil
	case poolevent.ApproveLPTransferors:
		return h.handleApproveLPTransferors(e)
	case poolevent.RevokeLPTransferors:
		return h.handleRevokeLPTransferors(e)
	case poolevent.SetLPAllowance:
		return h.handleSetLPAllowance(e)
	case poolevent.RevokeLPAllowance:
		return h.handleRevokeLPAllowance(e)
	default:
		return fmt.Errorf("%w: %s", poolevent.ErrUnknownEvent, in.primary.EventName())
	}
}

// checkedSub returns a - b, clamping at zero. A clamp means the store and the
// chain disagree, so it is logged and counted
func (h *applyContext) checkedSub(
	field string,
	entityID string,
	a, b decimal.Decimal,
) decimal.Decimal {
	ret := a.Sub(b)
	if !ret.IsNegative() {
		return ret
	}
	h.state.config.Logger.Warn(
		"subtraction below zero clamped",
		"component", "ledger",
		"field", field,
		"entity", entityID,
		"value", a.String(),
		"subtrahend", b.String(),
		"block", h.meta.BlockNumber,
	)
	h.state.metrics.underflows.WithLabelValues(field).Inc()
	return decimal.Zero
}

// countTx bumps the pool transaction counter
func (h *applyContext) countTx() {
	h.pool.TxCount++
}

func (h *applyContext) setLinks(loanID string, auctionID string) {
	if h.record == nil {
		return
	}
	h.record.LoanID = loanID
	h.record.LiquidationAuctionID = auctionID
}
