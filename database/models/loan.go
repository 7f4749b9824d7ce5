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

type Loan struct {
	ID                  string `gorm:"primaryKey;size:128"`
	PoolID              string `gorm:"index;size:64"`
	Borrower            string `gorm:"index;size:64"`
	Debt                decimal.Decimal `gorm:"type:text"`
	CollateralPledged   decimal.Decimal `gorm:"type:text"`
	Collateralization   decimal.Decimal `gorm:"type:text"`
	TP                  decimal.Decimal `gorm:"type:text"`
	InLiquidation       bool
	ActiveAuctionID     string `gorm:"size:160"`
	Counted             bool
	LiquidationAuctions types.StringList
}

func (Loan) TableName() string {
	return "loan"
}
