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
	"github.com/ethereum/go-ethereum/common"

	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/poolevent"
)

// account loads the account for addr, creating it on first reference
func (h *applyContext) account(addr common.Address) (*models.Account, error) {
	b := h.batch
	accountID := models.AccountID(addr)
	account, err := b.accounts.get(accountID, b.txn)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &models.Account{ID: accountID}
		b.accounts.put(accountID, account)
	}
	return account, nil
}

// touchAccount records that addr initiated the current event in this pool
func (h *applyContext) touchAccount(addr common.Address) (*models.Account, error) {
	account, err := h.account(addr)
	if err != nil {
		return nil, err
	}
	account.TxCount++
	account.Pools.Add(h.pool.ID)
	return account, nil
}

func (h *applyContext) handleBondWithdrawn(evt poolevent.BondWithdrawn) error {
	_, err := h.touchAccount(evt.Kicker)
	return err
}

func (h *applyContext) handleTransferLPs(evt poolevent.TransferLPs) error {
	_, err := h.touchAccount(evt.Owner)
	return err
}
