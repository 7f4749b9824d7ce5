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

package models

import (
	"github.com/shopspring/decimal"

	"github.com/blinklabs-io/ajnadex/database/types"
)

type Pool struct {
	ID                         string `gorm:"primaryKey;size:128"`
	PoolType                   string
	CollateralToken            string          `gorm:"size:64"`
	QuoteToken                 string          `gorm:"size:64"`
	CreatedBlock               uint64          `gorm:"index"`
	CreatedTime                uint64
	CurrentDebt                decimal.Decimal `gorm:"type:text"`
	PledgedCollateral          decimal.Decimal `gorm:"type:text"`
	TotalBondEscrowed          decimal.Decimal `gorm:"type:text"`
	TotalAjnaBurned            decimal.Decimal `gorm:"type:text"`
	TotalInterestEarned        decimal.Decimal `gorm:"type:text"`
	LUP                        decimal.Decimal `gorm:"type:text"`
	LUPIndex                   int32
	HPB                        decimal.Decimal `gorm:"type:text"`
	HPBIndex                   int32
	HTP                        decimal.Decimal `gorm:"type:text"`
	HTPIndex                   int32
	PoolSize                   decimal.Decimal `gorm:"type:text"`
	InterestRate               decimal.Decimal `gorm:"type:text"`
	Reserves                   decimal.Decimal `gorm:"type:text"`
	ClaimableReserves          decimal.Decimal `gorm:"type:text"`
	ClaimableReservesRemaining decimal.Decimal `gorm:"type:text"`
	ReserveAuctionPrice        decimal.Decimal `gorm:"type:text"`
	BurnEpoch                  uint64
	LoansCount                 uint64
	TxCount                    uint64
	ActiveLiquidations         types.StringList
	ReserveAuctions            types.StringList
}

func (Pool) TableName() string {
	return "pool"
}
