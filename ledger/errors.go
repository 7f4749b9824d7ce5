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
	"errors"
	"fmt"

	"github.com/blinklabs-io/ajnadex/poolevent"
)

var (
	// ErrAuctionAlreadyOpen is returned when a loan with an unsettled
	// liquidation auction is kicked again
	ErrAuctionAlreadyOpen = errors.New("liquidation auction already open")
	// ErrReserveAuctionNotFound is returned for a reserve auction take in an
	// epoch whose auction was never started
	ErrReserveAuctionNotFound = errors.New("reserve auction not found")
	// ErrReserveAuctionStarted is returned when a reserve auction is started
	// twice in the same burn epoch
	ErrReserveAuctionStarted = errors.New("reserve auction already started")
	ErrNilOracle             = errors.New("oracle is required")
	ErrNilDatabase           = errors.New("database is required")
)

// Kinds of aggregate reported by MissingAggregateError
const (
	AggregatePool               = "pool"
	AggregateLoan               = "loan"
	AggregateLiquidationAuction = "liquidation auction"
	AggregateKick               = "kick"
)

// MissingAggregateError reports an entity that an event depends on but that
// does not exist in the store. A missing pool is recovered from by skipping
// the event; every other kind is fatal
type MissingAggregateError struct {
	Kind     string
	Pool     string
	Borrower string
	Block    uint64
}

func (e MissingAggregateError) Error() string {
	if e.Borrower == "" {
		return fmt.Sprintf(
			"missing %s for pool %s at block %d",
			e.Kind,
			e.Pool,
			e.Block,
		)
	}
	return fmt.Sprintf(
		"missing %s for pool %s borrower %s at block %d",
		e.Kind,
		e.Pool,
		e.Borrower,
		e.Block,
	)
}

// UnpairedEventError is returned for a companion event whose primary event
// is not part of the same transaction
type UnpairedEventError struct {
	Event    poolevent.Name
	Expected poolevent.Name
	TxHash   string
	LogIndex uint32
}

func (e UnpairedEventError) Error() string {
	return fmt.Sprintf(
		"%s at tx %s log %d has no preceding %s",
		e.Event,
		e.TxHash,
		e.LogIndex,
		e.Expected,
	)
}

// InvalidBucketIndexError is returned for an event naming a bucket index
// outside the pool's price range
type InvalidBucketIndexError struct {
	Event    poolevent.Name
	Index    int32
	TxHash   string
	LogIndex uint32
}

func (e InvalidBucketIndexError) Error() string {
	return fmt.Sprintf(
		"%s at tx %s log %d: bucket index %d outside [%d, %d]",
		e.Event,
		e.TxHash,
		e.LogIndex,
		e.Index,
		poolevent.MinBucketIndex,
		poolevent.MaxBucketIndex,
	)
}
