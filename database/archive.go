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

package database

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/blinklabs-io/ajnadex/database/types"
	"github.com/blinklabs-io/ajnadex/poolevent"
)

// ArchivedEvent is a primary event record as stored in the blob archive,
// along with the entities it was linked to when applied
type ArchivedEvent struct {
	poolevent.Record
	LoanID               string `json:"loan_id,omitempty"`
	LiquidationAuctionID string `json:"liquidation_auction_id,omitempty"`
	// Skipped is set when the ledgers did not apply the event, such as an
	// event for a pool that was never created
	Skipped bool `json:"skipped,omitempty"`
}

// ID returns the event id, which is also the tail of its archive key
func (a *ArchivedEvent) ID() string {
	return a.Meta().ID()
}

// ArchiveEvent writes an event record to the blob store. Records are keyed
// overwrites, so archiving the same event twice is harmless
func (d *Database) ArchiveEvent(evt *ArchivedEvent, txn *Txn) error {
	if txn == nil || txn.Blob() == nil {
		return types.ErrNilTxn
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", evt.ID(), err)
	}
	key := types.EventBlobKey(evt.BlockNumber, evt.ID())
	if err := d.blob.Set(txn.Blob(), key, data); err != nil {
		return fmt.Errorf("archive event %s: %w", evt.ID(), err)
	}
	return nil
}

// GetArchivedEvent returns the archived record of an event, or nil if the
// event was never archived
func (d *Database) GetArchivedEvent(
	blockNumber uint64,
	id string,
	txn *Txn,
) (*ArchivedEvent, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	data, err := d.blob.Get(txn.Blob(), types.EventBlobKey(blockNumber, id))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var ret ArchivedEvent
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("decode archived event %s: %w", id, err)
	}
	return &ret, nil
}

// GetArchivedEventsByBlock returns the archived records of a block in log
// order
func (d *Database) GetArchivedEventsByBlock(
	blockNumber uint64,
	txn *Txn,
) ([]ArchivedEvent, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	prefix := types.EventBlobBlockPrefix(blockNumber)
	iter := d.blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer iter.Close()
	var ret []ArchivedEvent
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		data, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var tmpEvent ArchivedEvent
		if err := json.Unmarshal(data, &tmpEvent); err != nil {
			return nil, fmt.Errorf(
				"decode archived event %s: %w",
				iter.Item().Key(),
				err,
			)
		}
		ret = append(ret, tmpEvent)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	// Keys sort lexically by id, which does not match log order past 9 logs
	slices.SortFunc(ret, func(a, b ArchivedEvent) int {
		return cmp.Compare(a.LogIndex, b.LogIndex)
	})
	return ret, nil
}
