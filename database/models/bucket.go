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

// Bucket is the liquidity at one price index of a pool
type Bucket struct {
	ID           string `gorm:"primaryKey;size:128"`
	PoolID       string `gorm:"index;size:64"`
	BucketIndex  int32
	BucketPrice  decimal.Decimal `gorm:"type:text"`
	Collateral   decimal.Decimal `gorm:"type:text"`
	Deposit      decimal.Decimal `gorm:"type:text"`
	LPB          decimal.Decimal `gorm:"type:text"`
	ExchangeRate decimal.Decimal `gorm:"type:text"`
	Lends        types.StringList
}

func (Bucket) TableName() string {
	return "bucket"
}

// Lend is a lender's LP claim on a bucket
type Lend struct {
	ID              string `gorm:"primaryKey;size:128"`
	BucketID        string `gorm:"index;size:128"`
	PoolID          string `gorm:"index;size:64"`
	Lender          string `gorm:"index;size:64"`
	BucketIndex     int32
	LPB             decimal.Decimal `gorm:"type:text"`
	LPBValueInQuote decimal.Decimal `gorm:"type:text"`
}

func (Lend) TableName() string {
	return "lend"
}
