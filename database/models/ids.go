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
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Entity ids are lowercase hex components joined by "-"

func AddressID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

func PoolID(pool common.Address) string {
	return AddressID(pool)
}

func AccountID(addr common.Address) string {
	return AddressID(addr)
}

func BucketID(pool common.Address, index int32) string {
	return PoolID(pool) + "-" + strconv.FormatInt(int64(index), 10)
}

func LendID(bucketID string, lender common.Address) string {
	return bucketID + "-" + AddressID(lender)
}

func LoanID(pool common.Address, borrower common.Address) string {
	return PoolID(pool) + "-" + AddressID(borrower)
}

func LiquidationAuctionID(pool common.Address, borrower common.Address, kickBlock uint64) string {
	return LoanID(pool, borrower) + "-" + strconv.FormatUint(kickBlock, 10)
}

func ReserveAuctionID(pool common.Address, burnEpoch uint64) string {
	return PoolID(pool) + "-" + strconv.FormatUint(burnEpoch, 10)
}

func LPTransferorsID(pool common.Address, lender common.Address) string {
	return PoolID(pool) + "-" + AddressID(lender)
}

func LPAllowanceID(pool common.Address, owner common.Address, spender common.Address) string {
	return PoolID(pool) + "-" + AddressID(owner) + "-" + AddressID(spender)
}

// EventID returns the id of an event record, txHash-logIndex
func EventID(txHash common.Hash, logIndex uint32) string {
	return strings.ToLower(txHash.Hex()) + "-" + strconv.FormatUint(uint64(logIndex), 10)
}
