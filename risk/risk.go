// Package risk screens orders before they are accepted. Every check is
// stateless per call: it reads what it needs through a Source and either
// passes or returns a *types.RiskViolation carrying the event to record.
package risk

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/store"
	"github.com/zsmartex/tradecore/types"
)

const (
	DefaultFrequencyWindow = 60 * time.Second
	DefaultFrequencyCap    = 20
	DefaultDeviationWindow = 10
)

var DefaultDeviationThreshold = decimal.RequireFromString("0.2")

type Config struct {
	// PositionLimits caps available + locked per asset. Assets missing from
	// the map are unlimited.
	PositionLimits     map[string]decimal.Decimal
	FrequencyWindow    time.Duration
	FrequencyCap       int64
	DeviationWindow    int
	DeviationThreshold decimal.Decimal
}

// Source is the read side of a store transaction the screen needs.
type Source interface {
	GetBalance(userID int64, asset string) (*models.Balance, error)
	CountOrdersSince(userID int64, since time.Time) (int64, error)
	RecentTrades(symbol string, limit int) ([]*models.Trade, error)
}

type Screen struct {
	cfg Config
	Now func() time.Time
}

func NewScreen(cfg Config) *Screen {
	if cfg.FrequencyWindow <= 0 {
		cfg.FrequencyWindow = DefaultFrequencyWindow
	}
	if cfg.FrequencyCap <= 0 {
		cfg.FrequencyCap = DefaultFrequencyCap
	}
	if cfg.DeviationWindow <= 0 {
		cfg.DeviationWindow = DefaultDeviationWindow
	}
	if !cfg.DeviationThreshold.IsPositive() {
		cfg.DeviationThreshold = DefaultDeviationThreshold
	}
	if cfg.PositionLimits == nil {
		cfg.PositionLimits = map[string]decimal.Decimal{}
	}

	return &Screen{cfg: cfg, Now: time.Now}
}

func (s *Screen) Config() Config {
	return s.cfg
}

// CheckPositionLimit fails when the user's total holding of asset is above
// the configured cap.
func (s *Screen) CheckPositionLimit(src Source, userID int64, asset string) error {
	limit, ok := s.cfg.PositionLimits[asset]
	if !ok {
		return nil
	}

	total := decimal.Zero
	balance, err := src.GetBalance(userID, asset)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
	case err != nil:
		return err
	default:
		total = balance.Amount()
	}

	if total.LessThanOrEqual(limit) {
		return nil
	}

	return &types.RiskViolation{
		UserID:      userID,
		EventType:   types.RiskInsufficientFunds,
		Severity:    types.SeverityHigh,
		Description: fmt.Sprintf("User exceeded position limit for %s: %s/%s", asset, total, limit),
		Reason:      "risk.position_limit_exceeded",
	}
}

// CheckOrderFrequency counts the orders the user already created inside the
// window. The order under submission is not counted yet.
func (s *Screen) CheckOrderFrequency(src Source, userID int64) error {
	since := s.Now().UTC().Add(-s.cfg.FrequencyWindow)

	count, err := src.CountOrdersSince(userID, since)
	if err != nil {
		return err
	}

	if count <= s.cfg.FrequencyCap {
		return nil
	}

	return &types.RiskViolation{
		UserID:      userID,
		EventType:   types.RiskSuspiciousActivity,
		Severity:    types.SeverityCritical,
		Description: fmt.Sprintf("User placed %d orders in %s", count, s.cfg.FrequencyWindow),
		Reason:      "risk.order_frequency_exceeded",
	}
}

// CheckPriceDeviation compares a limit price with the mean of the symbol's
// latest trade prices. A symbol without trades is never flagged.
func (s *Screen) CheckPriceDeviation(src Source, userID int64, symbol string, price decimal.Decimal) error {
	trades, err := src.RecentTrades(symbol, s.cfg.DeviationWindow)
	if err != nil {
		return err
	}

	if len(trades) == 0 {
		return nil
	}

	sum := decimal.Zero
	for _, trade := range trades {
		sum = sum.Add(trade.Price)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(trades))))

	if !mean.IsPositive() {
		return nil
	}

	deviation := price.Sub(mean).Abs().Div(mean)
	if deviation.LessThanOrEqual(s.cfg.DeviationThreshold) {
		return nil
	}

	return &types.RiskViolation{
		UserID:      userID,
		EventType:   types.RiskSuspiciousActivity,
		Severity:    types.SeverityCritical,
		Description: fmt.Sprintf("Suspicious price deviation: %s vs avg %s", price, mean.StringFixed(8)),
		Reason:      "risk.price_deviation_exceeded",
	}
}

// Screen runs every check that applies to the order and stops at the first
// violation.
func (s *Screen) Screen(src Source, order *models.Order) error {
	if err := s.CheckOrderFrequency(src, order.UserID); err != nil {
		return err
	}

	if err := s.CheckPositionLimit(src, order.UserID, order.IncomeAsset()); err != nil {
		return err
	}

	if order.Type == types.TypeLimit && order.Price.Valid {
		return s.CheckPriceDeviation(src, order.UserID, order.Symbol, order.Price.Decimal)
	}

	return nil
}
