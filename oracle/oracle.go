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

// Package oracle provides read-only access to pool contract state pinned to
// a block. Every amount is already converted from WAD to decimal.
package oracle

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("oracle: not found")

type BucketInfo struct {
	Price        decimal.Decimal
	QuoteTokens  decimal.Decimal
	Collateral   decimal.Decimal
	LPB          decimal.Decimal
	Scale        decimal.Decimal
	ExchangeRate decimal.Decimal
}

type AuctionInfo struct {
	Kicker       common.Address
	BondFactor   decimal.Decimal
	BondSize     decimal.Decimal
	KickTime     uint64
	KickMomp     decimal.Decimal
	NeutralPrice decimal.Decimal
	Head         common.Address
	Next         common.Address
	Prev         common.Address
	AlreadyTaken bool
}

type BurnInfo struct {
	Timestamp     uint64
	TotalInterest decimal.Decimal
	TotalBurned   decimal.Decimal
}

type PoolInfo struct {
	HPB                        decimal.Decimal
	HPBIndex                   int32
	HTP                        decimal.Decimal
	HTPIndex                   int32
	LUP                        decimal.Decimal
	LUPIndex                   int32
	PoolSize                   decimal.Decimal
	PendingInflator            decimal.Decimal
	Reserves                   decimal.Decimal
	ClaimableReserves          decimal.Decimal
	ClaimableReservesRemaining decimal.Decimal
	AuctionPrice               decimal.Decimal
	InterestRate               decimal.Decimal
}

// Oracle answers contract state queries as of the end of a block
type Oracle interface {
	BucketInfo(ctx context.Context, pool common.Address, index int32, block uint64) (BucketInfo, error)
	AuctionInfo(ctx context.Context, pool common.Address, borrower common.Address, block uint64) (AuctionInfo, error)
	BurnInfo(ctx context.Context, pool common.Address, epoch uint64, block uint64) (BurnInfo, error)
	CurrentBurnEpoch(ctx context.Context, pool common.Address, block uint64) (uint64, error)
	PoolInfo(ctx context.Context, pool common.Address, block uint64) (PoolInfo, error)
}
