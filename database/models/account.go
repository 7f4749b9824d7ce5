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

// Account indexes every entity an address has touched, in first-seen order
type Account struct {
	ID              string `gorm:"primaryKey;size:64"`
	TxCount         uint64
	Pools           types.StringList
	Loans           types.StringList
	Lends           types.StringList
	Kicks           types.StringList
	Takes           types.StringList
	Settles         types.StringList
	ReserveAuctions types.StringList
}

func (Account) TableName() string {
	return "account"
}
