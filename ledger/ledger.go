// Package ledger moves funds between the available and locked parts of a
// user's balances. Every function works on a row taken with
// store.Tx.LockBalance, so concurrent cascades touching the same
// (user, asset) key serialize on it.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/store"
	"github.com/zsmartex/tradecore/types"
)

// Get returns the balance of a user for an asset and whether it exists.
func Get(tx store.Tx, userID int64, asset string) (*models.Balance, bool, error) {
	balance, err := tx.GetBalance(userID, asset)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return balance, true, nil
}

// Available is the spendable amount, zero for a balance never referenced.
func Available(tx store.Tx, userID int64, asset string) (decimal.Decimal, error) {
	balance, found, err := Get(tx, userID, asset)
	if err != nil || !found {
		return decimal.Zero, err
	}

	return balance.Available, nil
}

// Lock moves amount from available to locked.
func Lock(tx store.Tx, userID int64, asset string, amount decimal.Decimal) error {
	balance, err := tx.LockBalance(userID, asset)
	if err != nil {
		return err
	}

	if amount.GreaterThan(balance.Available) {
		return &types.InsufficientFundsError{
			UserID:    userID,
			Asset:     asset,
			Required:  amount,
			Available: balance.Available,
		}
	}

	if err := balance.LockFunds(amount); err != nil {
		return types.NewSettlementFailure("%w", err)
	}

	return tx.SaveBalance(balance)
}

// Unlock moves amount from locked back to available.
func Unlock(tx store.Tx, userID int64, asset string, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}

	balance, err := tx.LockBalance(userID, asset)
	if err != nil {
		return err
	}

	if err := balance.UnlockFunds(amount); err != nil {
		return types.NewSettlementFailure("%w", err)
	}

	return tx.SaveBalance(balance)
}

// Settle applies both deltas to the balance or neither. A result below zero
// is a settlement failure.
func Settle(tx store.Tx, userID int64, asset string, availableDelta, lockedDelta decimal.Decimal) error {
	balance, err := tx.LockBalance(userID, asset)
	if err != nil {
		return err
	}

	if err := balance.Apply(availableDelta, lockedDelta); err != nil {
		return types.NewSettlementFailure("%w", err)
	}

	return tx.SaveBalance(balance)
}

// Deposit credits funds received from outside the core.
func Deposit(tx store.Tx, userID int64, asset string, amount decimal.Decimal) (*models.Balance, error) {
	balance, err := tx.LockBalance(userID, asset)
	if err != nil {
		return nil, err
	}

	if err := balance.PlusFunds(amount); err != nil {
		return nil, err
	}

	if err := tx.SaveBalance(balance); err != nil {
		return nil, err
	}

	return balance, nil
}
