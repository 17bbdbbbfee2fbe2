package fees

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrNoBaseTier   = errors.New("fee table needs a tier with a zero volume threshold")
	ErrNegativeRate = errors.New("fee rates and thresholds must not be negative")
)

// Tier is one row of the fee schedule: a party whose trailing volume reaches
// Threshold pays MakerRate when its order rested and TakerRate when it
// initiated the trade.
type Tier struct {
	Threshold decimal.Decimal `json:"threshold" yaml:"threshold"`
	MakerRate decimal.Decimal `json:"maker_rate" yaml:"maker_rate"`
	TakerRate decimal.Decimal `json:"taker_rate" yaml:"taker_rate"`
}

// Table holds the tiers sorted by threshold ascending.
type Table []Tier

// DefaultTable is the schedule used when nothing is configured.
func DefaultTable() Table {
	return Table{
		{Threshold: decimal.Zero, MakerRate: decimal.RequireFromString("0.0015"), TakerRate: decimal.RequireFromString("0.002")},
		{Threshold: decimal.NewFromInt(100000), MakerRate: decimal.RequireFromString("0.001"), TakerRate: decimal.RequireFromString("0.0015")},
		{Threshold: decimal.NewFromInt(1000000), MakerRate: decimal.RequireFromString("0.0008"), TakerRate: decimal.RequireFromString("0.001")},
	}
}

func NewTable(tiers []Tier) (Table, error) {
	table := make(Table, len(tiers))
	copy(table, tiers)

	hasBase := false
	for _, tier := range table {
		if tier.Threshold.IsNegative() || tier.MakerRate.IsNegative() || tier.TakerRate.IsNegative() {
			return nil, ErrNegativeRate
		}

		if tier.Threshold.IsZero() {
			hasBase = true
		}
	}

	if !hasBase {
		return nil, ErrNoBaseTier
	}

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Threshold.LessThan(table[j].Threshold)
	})

	return table, nil
}

// TierFor scans from the highest threshold down and returns the first tier
// the volume reaches. The zero threshold tier catches everything else.
func (t Table) TierFor(volume decimal.Decimal) Tier {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Threshold.LessThanOrEqual(volume) {
			return t[i]
		}
	}

	return t[0]
}

// MaxRate is the highest rate any party can be charged under the table.
func (t Table) MaxRate() decimal.Decimal {
	rate := decimal.Zero
	for _, tier := range t {
		rate = decimal.Max(rate, tier.MakerRate, tier.TakerRate)
	}

	return rate
}
