// Package guard decides whether an expense or saving is covered by the
// available balance. The ledger does not enforce this; callers check first.
package guard

import (
	"github.com/shopspring/decimal"

	"wealthwise/internal/core"
)

// EffectiveBalance removes the effect of the entry being edited from
// balance. editing is nil for new entries.
func EffectiveBalance(balance decimal.Decimal, editing *core.Transaction) decimal.Decimal {
	if editing == nil {
		return balance
	}
	return balance.Sub(editing.BalanceEffect())
}

// CheckAffordable reports whether amount of type typ fits the effective
// balance. Income is always affordable.
func CheckAffordable(amount decimal.Decimal, typ core.TransactionType, balance decimal.Decimal, editing *core.Transaction) bool {
	if typ == core.Income {
		return true
	}
	return amount.LessThanOrEqual(EffectiveBalance(balance, editing))
}

// Check is CheckAffordable returning an *core.InsufficientFundsError that
// carries the effective balance.
func Check(amount decimal.Decimal, typ core.TransactionType, balance decimal.Decimal, editing *core.Transaction) error {
	if CheckAffordable(amount, typ, balance, editing) {
		return nil
	}
	return &core.InsufficientFundsError{
		Available: EffectiveBalance(balance, editing),
		Requested: amount,
	}
}
