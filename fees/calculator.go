package fees

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultLookback = 30 * 24 * time.Hour

// VolumeSource reports a user's traded notional since a point in time.
type VolumeSource interface {
	UserVolumeSince(userID int64, since time.Time) (decimal.Decimal, error)
}

type Fees struct {
	MakerFee decimal.Decimal
	TakerFee decimal.Decimal
}

type Calculator struct {
	Table    Table
	Lookback time.Duration
	Now      func() time.Time
}

func NewCalculator(table Table, lookback time.Duration) *Calculator {
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	return &Calculator{
		Table:    table,
		Lookback: lookback,
		Now:      time.Now,
	}
}

func (c *Calculator) TierFor(volume decimal.Decimal) Tier {
	return c.Table.TierFor(volume)
}

// TrailingVolume is the user's notional over the lookback window.
func (c *Calculator) TrailingVolume(src VolumeSource, userID int64) (decimal.Decimal, error) {
	return src.UserVolumeSince(userID, c.Now().UTC().Add(-c.Lookback))
}

// CalculateFees prices one fill. The maker and the taker are tiered on their
// own trailing volume, so the same trade can carry rates from two tiers.
func (c *Calculator) CalculateFees(src VolumeSource, makerUserID, takerUserID int64, quantity, price decimal.Decimal) (Fees, error) {
	notional := quantity.Mul(price)

	makerVolume, err := c.TrailingVolume(src, makerUserID)
	if err != nil {
		return Fees{}, err
	}

	takerVolume, err := c.TrailingVolume(src, takerUserID)
	if err != nil {
		return Fees{}, err
	}

	return Fees{
		MakerFee: notional.Mul(c.TierFor(makerVolume).MakerRate),
		TakerFee: notional.Mul(c.TierFor(takerVolume).TakerRate),
	}, nil
}
