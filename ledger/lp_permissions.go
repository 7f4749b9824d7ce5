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
	"github.com/blinklabs-io/ajnadex/database/types"
	"github.com/blinklabs-io/ajnadex/poolevent"
)

func (h *applyContext) loadOrCreateTransferors(lender common.Address) (*models.LPTransferors, error) {
	b := h.batch
	id := models.LPTransferorsID(h.meta.Pool, lender)
	ret, err := b.transferors.get(id, b.txn)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		ret = &models.LPTransferors{
			ID:     id,
			PoolID: h.pool.ID,
			Lender: models.AccountID(lender),
		}
		b.transferors.put(id, ret)
	}
	return ret, nil
}

func (h *applyContext) loadOrCreateAllowance(
	owner common.Address,
	spender common.Address,
) (*models.LPAllowance, error) {
	b := h.batch
	id := models.LPAllowanceID(h.meta.Pool, owner, spender)
	ret, err := b.allowances.get(id, b.txn)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		ret = &models.LPAllowance{
			ID:      id,
			PoolID:  h.pool.ID,
			Owner:   models.AccountID(owner),
			Spender: models.AccountID(spender),
		}
		b.allowances.put(id, ret)
	}
	if ret.Allowances == nil {
		ret.Allowances = types.IndexAmounts{}
	}
	return ret, nil
}

func (h *applyContext) handleApproveLPTransferors(evt poolevent.ApproveLPTransferors) error {
	transferors, err := h.loadOrCreateTransferors(evt.Lender)
	if err != nil {
		return err
	}
	for _, addr := range evt.Transferors {
		transferors.Transferors.Add(models.AccountID(addr))
	}
	return nil
}

func (h *applyContext) handleRevokeLPTransferors(evt poolevent.RevokeLPTransferors) error {
	transferors, err := h.loadOrCreateTransferors(evt.Lender)
	if err != nil {
		return err
	}
	for _, addr := range evt.Transferors {
		transferors.Transferors.Remove(models.AccountID(addr))
	}
	return nil
}

func (h *applyContext) handleSetLPAllowance(evt poolevent.SetLPAllowance) error {
	allowance, err := h.loadOrCreateAllowance(evt.TxFrom, evt.Spender)
	if err != nil {
		return err
	}
	for i, idx := range evt.Indexes {
		allowance.Allowances[idx] = evt.Amounts[i].Decimal()
	}
	return nil
}

func (h *applyContext) handleRevokeLPAllowance(evt poolevent.RevokeLPAllowance) error {
	allowance, err := h.loadOrCreateAllowance(evt.TxFrom, evt.Spender)
	if err != nil {
		return err
	}
	for _, idx := range evt.Indexes {
		delete(allowance.Allowances, idx)
	}
	return nil
}
