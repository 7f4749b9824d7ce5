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

// Kick records the start of a liquidation and the bond escrowed by the kicker
type Kick struct {
	ID                   string `gorm:"primaryKey;size:128"`
	PoolID               string `gorm:"index;size:64"`
	LoanID               string `gorm:"index;size:128"`
	Borrower             string `gorm:"size:64"`
	Kicker               string `gorm:"index;size:64"`
	Debt                 decimal.Decimal `gorm:"type:text"`
	Collateral           decimal.Decimal `gorm:"type:text"`
	Bond                 decimal.Decimal `gorm:"type:text"`
	Locked               decimal.Decimal `gorm:"type:text"`
	Claimable            decimal.Decimal `gorm:"type:text"`
	KickMomp             decimal.Decimal `gorm:"type:text"`
	LiquidationAuctionID string          `gorm:"size:160"`
	BlockNumber          uint64
	BlockTime            uint64
	TxHash               string `gorm:"size:80"`
}

func (Kick) TableName() string {
	return "kick"
}

type LiquidationAuction struct {
	ID                  string `gorm:"primaryKey;size:160"`
	PoolID              string `gorm:"index;size:64"`
	LoanID              string `gorm:"index;size:128"`
	Borrower            string `gorm:"size:64"`
	KickID              string `gorm:"size:128"`
	Kicker              string `gorm:"size:64"`
	BondFactor          decimal.Decimal `gorm:"type:text"`
	BondSize            decimal.Decimal `gorm:"type:text"`
	KickTime            uint64
	KickMomp            decimal.Decimal `gorm:"type:text"`
	NeutralPrice        decimal.Decimal `gorm:"type:text"`
	DebtRepaid          decimal.Decimal `gorm:"type:text"`
	DebtRemaining       decimal.Decimal `gorm:"type:text"`
	CollateralAuctioned decimal.Decimal `gorm:"type:text"`
	CollateralRemaining decimal.Decimal `gorm:"type:text"`
	Settled             bool
	SettleTime          uint64
	Takes               types.StringList
	BucketTakes         types.StringList
	Settles             types.StringList
}

func (LiquidationAuction) TableName() string {
	return "liquidation_auction"
}
