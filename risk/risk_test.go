package risk

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/store"
	"github.com/zsmartex/tradecore/types"
)

type fakeSource struct {
	balances map[string]*models.Balance
	orders   int64
	since    time.Time
	trades   []*models.Trade
}

func (f *fakeSource) GetBalance(userID int64, asset string) (*models.Balance, error) {
	balance, ok := f.balances[asset]
	if !ok {
		return nil, store.ErrRecordNotFound
	}

	return balance, nil
}

func (f *fakeSource) CountOrdersSince(userID int64, since time.Time) (int64, error) {
	f.since = since
	return f.orders, nil
}

func (f *fakeSource) RecentTrades(symbol string, limit int) ([]*models.Trade, error) {
	if len(f.trades) > limit {
		return f.trades[:limit], nil
	}

	return f.trades, nil
}

type suiteRiskTester struct {
	suite.Suite
	screen *Screen
	src    *fakeSource
	now    time.Time
}

func (s *suiteRiskTester) SetupTest() {
	s.now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.screen = NewScreen(Config{
		PositionLimits: map[string]decimal.Decimal{
			"BTC": decimal.NewFromInt(100),
		},
	})
	s.screen.Now = func() time.Time { return s.now }
	s.src = &fakeSource{balances: map[string]*models.Balance{}}
}

func (s *suiteRiskTester) violation(err error) *types.RiskViolation {
	var violation *types.RiskViolation
	s.Require().True(errors.As(err, &violation), "expected a risk violation, got %v", err)

	return violation
}

func (s *suiteRiskTester) TestDefaults() {
	cfg := s.screen.Config()
	s.Equal(DefaultFrequencyWindow, cfg.FrequencyWindow)
	s.EqualValues(DefaultFrequencyCap, cfg.FrequencyCap)
	s.Equal(DefaultDeviationWindow, cfg.DeviationWindow)
	s.True(cfg.DeviationThreshold.Equal(DefaultDeviationThreshold))
}

func (s *suiteRiskTester) TestOrderFrequencyBoundary() {
	s.src.orders = DefaultFrequencyCap
	s.NoError(s.screen.CheckOrderFrequency(s.src, 1))
	s.Equal(s.now.Add(-DefaultFrequencyWindow), s.src.since)

	s.src.orders = DefaultFrequencyCap + 1
	violation := s.violation(s.screen.CheckOrderFrequency(s.src, 1))
	s.Equal(types.SeverityCritical, violation.Severity)
	s.Equal(types.RiskSuspiciousActivity, violation.EventType)
	s.EqualValues(1, violation.UserID)
}

func (s *suiteRiskTester) TestPositionLimit() {
	s.NoError(s.screen.CheckPositionLimit(s.src, 1, "BTC"))

	s.src.balances["BTC"] = &models.Balance{Available: decimal.NewFromInt(60), Locked: decimal.NewFromInt(40)}
	s.NoError(s.screen.CheckPositionLimit(s.src, 1, "BTC"))

	s.src.balances["BTC"].Locked = decimal.NewFromInt(41)
	violation := s.violation(s.screen.CheckPositionLimit(s.src, 1, "BTC"))
	s.Equal(types.SeverityHigh, violation.Severity)
	s.Equal(types.RiskInsufficientFunds, violation.EventType)

	s.src.balances["USDT"] = &models.Balance{Available: decimal.NewFromInt(1000000000)}
	s.NoError(s.screen.CheckPositionLimit(s.src, 1, "USDT"))
}

func (s *suiteRiskTester) TestPriceDeviation() {
	s.NoError(s.screen.CheckPriceDeviation(s.src, 1, "BTC/USDT", decimal.NewFromInt(1)))

	s.src.trades = []*models.Trade{
		{Price: decimal.NewFromInt(100)},
		{Price: decimal.NewFromInt(100)},
	}

	s.NoError(s.screen.CheckPriceDeviation(s.src, 1, "BTC/USDT", decimal.NewFromInt(120)))
	s.NoError(s.screen.CheckPriceDeviation(s.src, 1, "BTC/USDT", decimal.NewFromInt(80)))

	violation := s.violation(s.screen.CheckPriceDeviation(s.src, 1, "BTC/USDT", decimal.RequireFromString("120.01")))
	s.Equal(types.SeverityCritical, violation.Severity)

	s.violation(s.screen.CheckPriceDeviation(s.src, 1, "BTC/USDT", decimal.NewFromInt(79)))
}

func (s *suiteRiskTester) TestScreenSkipsDeviationForMarketOrders() {
	s.src.trades = []*models.Trade{{Price: decimal.NewFromInt(100)}}

	order := &models.Order{
		UserID: 1,
		Symbol: "BTC/USDT",
		Side:   types.SideSell,
		Type:   types.TypeMarket,
	}
	s.NoError(s.screen.Screen(s.src, order))

	order.Type = types.TypeLimit
	order.Price = decimal.NewNullDecimal(decimal.NewFromInt(500))
	s.violation(s.screen.Screen(s.src, order))
}

func (s *suiteRiskTester) TestScreenChecksAcquiredAsset() {
	s.src.balances["BTC"] = &models.Balance{Available: decimal.NewFromInt(101)}

	buy := &models.Order{UserID: 1, Symbol: "BTC/USDT", Side: types.SideBuy, Type: types.TypeMarket}
	s.violation(s.screen.Screen(s.src, buy))

	sell := &models.Order{UserID: 1, Symbol: "BTC/USDT", Side: types.SideSell, Type: types.TypeMarket}
	s.NoError(s.screen.Screen(s.src, sell))
}

func TestRisk(t *testing.T) {
	suite.Run(t, new(suiteRiskTester))
}
