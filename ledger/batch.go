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

package ledger

import (
	"slices"

	"github.com/blinklabs-io/ajnadex/database"
	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/event"
)

// entityCache holds the entities of one kind touched by a transaction. Loads
// go to the store once; every cached entity is written back on flush
type entityCache[T any] struct {
	items map[string]*T
	load  func(string, *database.Txn) (*T, error)
	save  func(*T, *database.Txn) error
}

func newEntityCache[T any](
	load func(string, *database.Txn) (*T, error),
	save func(*T, *database.Txn) error,
) *entityCache[T] {
	return &entityCache[T]{
		items: make(map[string]*T),
		load:  load,
		save:  save,
	}
}

// get returns the entity with the given id, or nil if it does not exist
func (c *entityCache[T]) get(id string, txn *database.Txn) (*T, error) {
	if item, ok := c.items[id]; ok {
		return item, nil
	}
	item, err := c.load(id, txn)
	if err != nil {
		return nil, err
	}
	if item != nil {
		c.items[id] = item
	}
	return item, nil
}

func (c *entityCache[T]) put(id string, item *T) {
	c.items[id] = item
}

// flush writes every cached entity in id order
func (c *entityCache[T]) flush(txn *database.Txn) error {
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := c.save(c.items[id], txn); err != nil {
			return err
		}
	}
	return nil
}

type notification struct {
	eventType event.EventType
	data      any
}

// batch buffers the mutations of one transaction until they are flushed
// together
type batch struct {
	txn             *database.Txn
	pools           *entityCache[models.Pool]
	buckets         *entityCache[models.Bucket]
	lends           *entityCache[models.Lend]
	loans           *entityCache[models.Loan]
	kicks           *entityCache[models.Kick]
	auctions        *entityCache[models.LiquidationAuction]
	reserveAuctions *entityCache[models.ReserveAuction]
	reserveTakes    *entityCache[models.ReserveAuctionTake]
	accounts        *entityCache[models.Account]
	transferors     *entityCache[models.LPTransferors]
	allowances      *entityCache[models.LPAllowance]
	records         []*database.ArchivedEvent
	notifications   []notification
}

func newBatch(db *database.Database, txn *database.Txn) *batch {
	return &batch{
		txn:             txn,
		pools:           newEntityCache(db.GetPool, db.SetPool),
		buckets:         newEntityCache(db.GetBucket, db.SetBucket),
		lends:           newEntityCache(db.GetLend, db.SetLend),
		loans:           newEntityCache(db.GetLoan, db.SetLoan),
		kicks:           newEntityCache(db.GetKick, db.SetKick),
		auctions:        newEntityCache(db.GetLiquidationAuction, db.SetLiquidationAuction),
		reserveAuctions: newEntityCache(db.GetReserveAuction, db.SetReserveAuction),
		reserveTakes:    newEntityCache(db.GetReserveAuctionTake, db.SetReserveAuctionTake),
		accounts:        newEntityCache(db.GetAccount, db.SetAccount),
		transferors:     newEntityCache(db.GetLPTransferors, db.SetLPTransferors),
		allowances:      newEntityCache(db.GetLPAllowance, db.SetLPAllowance),
	}
}

func (b *batch) notify(eventType event.EventType, data any) {
	b.notifications = append(
		b.notifications,
		notification{eventType: eventType, data: data},
	)
}

// flush writes every touched entity and archives the event records
func (b *batch) flush(db *database.Database) error {
	flushers := []func(*database.Txn) error{
		b.pools.flush,
		b.buckets.flush,
		b.lends.flush,
		b.loans.flush,
		b.kicks.flush,
		b.auctions.flush,
		b.reserveAuctions.flush,
		b.reserveTakes.flush,
		b.accounts.flush,
		b.transferors.flush,
		b.allowances.flush,
	}
	for _, fn := range flushers {
		if err := fn(b.txn); err != nil {
			return err
		}
	}
	for _, record := range b.records {
		if err := db.ArchiveEvent(record, b.txn); err != nil {
			return err
		}
	}
	return nil
}
