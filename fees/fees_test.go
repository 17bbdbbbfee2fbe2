package fees

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type volumeStub map[int64]decimal.Decimal

func (v volumeStub) UserVolumeSince(userID int64, since time.Time) (decimal.Decimal, error) {
	return v[userID], nil
}

type suiteFeesTester struct {
	suite.Suite
	table Table
}

func (s *suiteFeesTester) SetupTest() {
	table, err := NewTable(DefaultTable())
	s.Require().NoError(err)

	s.table = table
}

func (s *suiteFeesTester) TestTierFor() {
	s.True(s.table.TierFor(decimal.Zero).Threshold.IsZero())
	s.True(s.table.TierFor(decimal.NewFromInt(99999)).Threshold.IsZero())
	s.True(s.table.TierFor(decimal.NewFromInt(150000)).Threshold.Equal(decimal.NewFromInt(100000)))
	s.True(s.table.TierFor(decimal.NewFromInt(1000000)).Threshold.Equal(decimal.NewFromInt(1000000)))
	s.True(s.table.TierFor(decimal.NewFromInt(2000000)).Threshold.Equal(decimal.NewFromInt(1000000)))
}

func (s *suiteFeesTester) TestNewTableSortsTiers() {
	tiers := DefaultTable()
	reversed := Table{tiers[2], tiers[0], tiers[1]}

	table, err := NewTable(reversed)
	s.Require().NoError(err)
	s.True(table[0].Threshold.IsZero())
	s.True(table[2].Threshold.Equal(decimal.NewFromInt(1000000)))
}

func (s *suiteFeesTester) TestNewTableRequiresBaseTier() {
	_, err := NewTable(DefaultTable()[1:])
	s.ErrorIs(err, ErrNoBaseTier)

	_, err = NewTable(Table{{Threshold: decimal.Zero, MakerRate: decimal.NewFromInt(-1), TakerRate: decimal.Zero}})
	s.ErrorIs(err, ErrNegativeRate)
}

func (s *suiteFeesTester) TestMaxRate() {
	s.True(s.table.MaxRate().Equal(decimal.RequireFromString("0.002")))
}

func (s *suiteFeesTester) TestCalculateFeesPerParty() {
	calculator := NewCalculator(s.table, 0)
	s.Equal(DefaultLookback, calculator.Lookback)

	volumes := volumeStub{
		1: decimal.NewFromInt(2000000),
		2: decimal.Zero,
	}

	fees, err := calculator.CalculateFees(volumes, 1, 2, decimal.NewFromInt(2), decimal.NewFromInt(1000))
	s.Require().NoError(err)

	// notional 2000: maker in the top tier, taker in the base tier
	s.True(fees.MakerFee.Equal(decimal.RequireFromString("1.6")), fees.MakerFee.String())
	s.True(fees.TakerFee.Equal(decimal.RequireFromString("4")), fees.TakerFee.String())
}

func (s *suiteFeesTester) TestTrailingVolumeUsesLookback() {
	calculator := NewCalculator(s.table, time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	calculator.Now = func() time.Time { return now }

	var got time.Time
	src := volumeFunc(func(userID int64, since time.Time) (decimal.Decimal, error) {
		got = since
		return decimal.Zero, nil
	})

	_, err := calculator.TrailingVolume(src, 7)
	s.Require().NoError(err)
	s.Equal(now.Add(-time.Hour), got)
}

type volumeFunc func(userID int64, since time.Time) (decimal.Decimal, error)

func (f volumeFunc) UserVolumeSince(userID int64, since time.Time) (decimal.Decimal, error) {
	return f(userID, since)
}

func TestFees(t *testing.T) {
	suite.Run(t, new(suiteFeesTester))
}
