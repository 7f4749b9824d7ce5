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
	"github.com/shopspring/decimal"

	"github.com/blinklabs-io/ajnadex/wad"
)

// kickerAwardRate is the share of claimable reserves paid to the kicker of a
// reserve auction
var kickerAwardRate = decimal.New(1, -2)

// collateralization returns collateral * lup / debt, or zero when either
// debt or collateral is zero
func collateralization(debt, collateral, lup decimal.Decimal) decimal.Decimal {
	if debt.IsZero() || collateral.IsZero() {
		return decimal.Zero
	}
	return wad.Div(wad.Mul(collateral, lup), debt)
}

// thresholdPrice returns debt / collateral, or zero when either is zero
func thresholdPrice(debt, collateral decimal.Decimal) decimal.Decimal {
	if debt.IsZero() || collateral.IsZero() {
		return decimal.Zero
	}
	return wad.Div(debt, collateral)
}

func lpbValueInQuote(lpb, exchangeRate decimal.Decimal) decimal.Decimal {
	return wad.Mul(lpb, exchangeRate)
}

func reserveAuctionKickerAward(claimableReserves decimal.Decimal) decimal.Decimal {
	return wad.Mul(claimableReserves, kickerAwardRate)
}
