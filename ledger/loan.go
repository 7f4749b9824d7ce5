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
	"github.com/shopspring/decimal"

	"github.com/blinklabs-io/ajnadex/database/models"
	"github.com/blinklabs-io/ajnadex/poolevent"
)

// loan returns the loan of borrower in the current pool, or nil
func (h *applyContext) loan(borrower common.Address) (*models.Loan, error) {
	b := h.batch
	return b.loans.get(models.LoanID(h.meta.Pool, borrower), b.txn)
}

func (h *applyContext) loadOrCreateLoan(borrower common.Address) (*models.Loan, error) {
	loan, err := h.loan(borrower)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		loan = &models.Loan{
			ID:                models.LoanID(h.meta.Pool, borrower),
			PoolID:            h.pool.ID,
			Borrower:          models.AccountID(borrower),
			Debt:              decimal.Zero,
			CollateralPledged: decimal.Zero,
			Collateralization: decimal.Zero,
			TP:                decimal.Zero,
		}
		h.batch.loans.put(loan.ID, loan)
	}
	return loan, nil
}

// updateLoanRisk recomputes collateralization and threshold price against the
// pool's current lup
func (h *applyContext) updateLoanRisk(loan *models.Loan) {
	loan.Collateralization = collateralization(
		loan.Debt,
		loan.CollateralPledged,
		h.pool.LUP,
	)
	loan.TP = thresholdPrice(loan.Debt, loan.CollateralPledged)
}

func (h *applyContext) handleDrawDebt(evt poolevent.DrawDebt) error {
	h.countTx()
	loan, err := h.loadOrCreateLoan(evt.Borrower)
	if err != nil {
		return err
	}
	borrowed := evt.AmountBorrowed.Decimal()
	pledged := evt.CollateralPledged.Decimal()
	loan.Debt = loan.Debt.Add(borrowed)
	loan.CollateralPledged = loan.CollateralPledged.Add(pledged)
	h.pool.CurrentDebt = h.pool.CurrentDebt.Add(borrowed)
	h.pool.PledgedCollateral = h.pool.PledgedCollateral.Add(pledged)
	if !loan.Counted && loan.Debt.IsPositive() {
		loan.Counted = true
		h.pool.LoansCount++
	}
	if err := h.refreshPool(); err != nil {
		return err
	}
	h.updateLoanRisk(loan)
	account, err := h.touchAccount(evt.Borrower)
	if err != nil {
		return err
	}
	account.Loans.Add(loan.ID)
	h.setLinks(loan.ID, loan.ActiveAuctionID)
	return nil
}

func (h *applyContext) handleRepayDebt(evt poolevent.RepayDebt) error {
	h.countTx()
	loan, err := h.loadOrCreateLoan(evt.Borrower)
	if err != nil {
		return err
	}
	repaid := evt.QuoteRepaid.Decimal()
	pulled := evt.CollateralPulled.Decimal()
	loan.Debt = h.checkedSub("loan.debt", loan.ID, loan.Debt, repaid)
	loan.CollateralPledged = h.checkedSub(
		"loan.collateralPledged",
		loan.ID,
		loan.CollateralPledged,
		pulled,
	)
	h.pool.CurrentDebt = h.checkedSub(
		"pool.currentDebt",
		h.pool.ID,
		h.pool.CurrentDebt,
		repaid,
	)
	h.pool.PledgedCollateral = h.checkedSub(
		"pool.pledgedCollateral",
		h.pool.ID,
		h.pool.PledgedCollateral,
		pulled,
	)
	if err := h.refreshPool(); err != nil {
		return err
	}
	h.updateLoanRisk(loan)
	account, err := h.touchAccount(evt.Borrower)
	if err != nil {
		return err
	}
	account.Loans.Add(loan.ID)
	h.setLinks(loan.ID, loan.ActiveAuctionID)
	return nil
}
