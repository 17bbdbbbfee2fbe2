package models

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Balance struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	UserID    int64           `json:"user_id" gorm:"uniqueIndex:idx_balances_user_asset"`
	Asset     string          `json:"asset" gorm:"uniqueIndex:idx_balances_user_asset"`
	Available decimal.Decimal `json:"available" gorm:"type:numeric(32,16);not null;default:0"`
	Locked    decimal.Decimal `json:"locked" gorm:"type:numeric(32,16);not null;default:0"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewBalance(userID int64, asset string) *Balance {
	return &Balance{
		UserID:    userID,
		Asset:     asset,
		Available: decimal.Zero,
		Locked:    decimal.Zero,
	}
}

func (b *Balance) PlusFunds(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.New("Cannot add funds (user id: " + b.userString() + ", asset: " + b.Asset + ", amount: " + amount.String() + ", available: " + b.Available.String() + ").")
	}

	b.Available = b.Available.Add(amount)
	return nil
}

func (b *Balance) SubFunds(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(b.Available) {
		return errors.New("Cannot subtract funds (user id: " + b.userString() + ", asset: " + b.Asset + ", amount: " + amount.String() + ", available: " + b.Available.String() + ").")
	}

	b.Available = b.Available.Sub(amount)
	return nil
}

func (b *Balance) LockFunds(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(b.Available) {
		return errors.New("Cannot lock funds (user id: " + b.userString() + ", asset: " + b.Asset + ", amount: " + amount.String() + ", available: " + b.Available.String() + ", locked: " + b.Locked.String() + ").")
	}

	b.Available = b.Available.Sub(amount)
	b.Locked = b.Locked.Add(amount)
	return nil
}

func (b *Balance) UnlockFunds(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(b.Locked) {
		return errors.New("Cannot unlock funds (user id: " + b.userString() + ", asset: " + b.Asset + ", amount: " + amount.String() + ", available: " + b.Available.String() + ", locked: " + b.Locked.String() + ").")
	}

	b.Available = b.Available.Add(amount)
	b.Locked = b.Locked.Sub(amount)
	return nil
}

func (b *Balance) UnlockAndSubFunds(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(b.Locked) {
		return errors.New("Cannot unlock funds (user id: " + b.userString() + ", asset: " + b.Asset + ", amount: " + amount.String() + ", locked: " + b.Locked.String() + ").")
	}

	b.Locked = b.Locked.Sub(amount)
	return nil
}

// Apply adds both deltas or neither.
func (b *Balance) Apply(availableDelta, lockedDelta decimal.Decimal) error {
	available := b.Available.Add(availableDelta)
	locked := b.Locked.Add(lockedDelta)

	if available.IsNegative() || locked.IsNegative() {
		return errors.New("Cannot settle funds (user id: " + b.userString() + ", asset: " + b.Asset + ", available delta: " + availableDelta.String() + ", locked delta: " + lockedDelta.String() + ", available: " + b.Available.String() + ", locked: " + b.Locked.String() + ").")
	}

	b.Available = available
	b.Locked = locked
	return nil
}

func (b *Balance) Amount() decimal.Decimal {
	return b.Available.Add(b.Locked)
}

func (b *Balance) userString() string {
	return strconv.FormatInt(b.UserID, 10)
}
