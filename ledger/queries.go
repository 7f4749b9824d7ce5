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

	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/ajnadex/database"
	"github.com/blinklabs-io/ajnadex/database/models"
)

var ErrUnsupportedQuery = errors.New("unsupported query type")

type (
	PoolsQuery struct{}
	PoolQuery  struct {
		Pool common.Address
	}
	BucketsQuery struct {
		Pool common.Address
	}
	LoanQuery struct {
		Pool     common.Address
		Borrower common.Address
	}
	// ActiveLiquidationQuery returns the open liquidation auction of a loan,
	// or nil when there is none
	ActiveLiquidationQuery struct {
		Pool     common.Address
		Borrower common.Address
	}
	ReserveAuctionsQuery struct {
		Pool common.Address
	}
	AccountQuery struct {
		Address common.Address
	}
	// BlockEventsQuery returns the archived event records of a block
	BlockEventsQuery struct {
		BlockNumber uint64
	}
)

// Query answers read queries against committed state. It waits for any
// transaction being applied so the answer reflects whole transactions
func (s *State) Query(query any) (any, error) {
	s.Lock()
	defer s.Unlock()
	switch q := query.(type) {
	case PoolsQuery:
		return s.db.GetPools(nil)
	case PoolQuery:
		return s.db.GetPool(models.PoolID(q.Pool), nil)
	case BucketsQuery:
		return s.db.GetBucketsByPool(models.PoolID(q.Pool), nil)
	case LoanQuery:
		return s.db.GetLoan(models.LoanID(q.Pool, q.Borrower), nil)
	case ActiveLiquidationQuery:
		return s.queryActiveLiquidation(q)
	case ReserveAuctionsQuery:
		return s.db.GetReserveAuctionsByPool(models.PoolID(q.Pool), nil)
	case AccountQuery:
		return s.db.GetAccount(models.AccountID(q.Address), nil)
	case BlockEventsQuery:
		return s.db.GetArchivedEventsByBlock(q.BlockNumber, nil)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedQuery, q)
	}
}

func (s *State) queryActiveLiquidation(
	q ActiveLiquidationQuery,
) (*models.LiquidationAuction, error) {
	loan, err := s.db.GetLoan(models.LoanID(q.Pool, q.Borrower), nil)
	if err != nil || loan == nil || loan.ActiveAuctionID == "" {
		return nil, err
	}
	return s.db.GetLiquidationAuction(loan.ActiveAuctionID, nil)
}

// ArchivedEvents is a shorthand for BlockEventsQuery
func (s *State) ArchivedEvents(blockNumber uint64) ([]database.ArchivedEvent, error) {
	ret, err := s.Query(BlockEventsQuery{BlockNumber: blockNumber})
	if err != nil {
		return nil, err
	}
	events, _ := ret.([]database.ArchivedEvent)
	return events, nil
}
