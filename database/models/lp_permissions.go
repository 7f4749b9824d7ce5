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
	"github.com/blinklabs-io/ajnadex/database/types"
)

// LPTransferors is the set of addresses a lender allows to transfer LP to it
type LPTransferors struct {
	ID          string `gorm:"primaryKey;size:128"`
	PoolID      string `gorm:"index;size:64"`
	Lender      string `gorm:"size:64"`
	Transferors types.StringList
}

func (LPTransferors) TableName() string {
	return "lp_transferors"
}

// LPAllowance holds the per-bucket LP amounts an owner lets a spender move
type LPAllowance struct {
	ID         string `gorm:"primaryKey;size:192"`
	PoolID     string `gorm:"index;size:64"`
	Owner      string `gorm:"size:64"`
	Spender    string `gorm:"size:64"`
	Allowances types.IndexAmounts
}

func (LPAllowance) TableName() string {
	return "lp_allowance"
}
