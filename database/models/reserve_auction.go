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

// ReserveAuction tracks one burn epoch's auction of claimable reserves.
// An empty Kicker means the auction has not started
type ReserveAuction struct {
	ID                         string `gorm:"primaryKey;size:128"`
	PoolID                     string `gorm:"index;size:64"`
	BurnEpoch                  uint64
	Kicker                     string          `gorm:"size:64"`
	KickTime                   uint64
	KickerAward                decimal.Decimal `gorm:"type:text"`
	AuctionPrice               decimal.Decimal `gorm:"type:text"`
	ClaimableReservesRemaining decimal.Decimal `gorm:"type:text"`
	AjnaBurnedAcrossAllTakes   decimal.Decimal `gorm:"type:text"`
	ReserveAuctionTakes        types.StringList
}

func (ReserveAuction) TableName() string {
	return "reserve_auction"
}

func (r *ReserveAuction) Started() bool {
	return r.Kicker != ""
}

type ReserveAuctionTake struct {
	ID                         string `gorm:"primaryKey;size:128"`
	ReserveAuctionID           string `gorm:"index;size:128"`
	Taker                      string `gorm:"size:64"`
	AuctionPrice               decimal.Decimal `gorm:"type:text"`
	ClaimableReservesRemaining decimal.Decimal `gorm:"type:text"`
	IncrementalAjnaBurned      decimal.Decimal `gorm:"type:text"`
	BlockNumber                uint64
	BlockTime                  uint64
	TxHash                     string `gorm:"size:80"`
}

func (ReserveAuctionTake) TableName() string {
	return "reserve_auction_take"
}
