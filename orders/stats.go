package orders

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/store"
)

const StatsWindow = 24 * time.Hour

type Stats struct {
	Symbol             string          `json:"symbol"`
	LastPrice          decimal.Decimal `json:"last_price"`
	OpenPrice          decimal.Decimal `json:"open_price"`
	HighPrice          decimal.Decimal `json:"high_price"`
	LowPrice           decimal.Decimal `json:"low_price"`
	PriceChange        decimal.Decimal `json:"price_change"`
	PriceChangePercent decimal.Decimal `json:"price_change_percent"`
	Volume             decimal.Decimal `json:"volume"`
	QuoteVolume        decimal.Decimal `json:"quote_volume"`
	TradesCount        int             `json:"trades_count"`
}

// GetStats summarizes the trades of the last 24 hours. Without trades in
// the window every price is the last traded price, or zero.
func (m *Manager) GetStats(ctx context.Context, symbol string) (*Stats, error) {
	if _, _, err := models.ParseSymbol(symbol); err != nil {
		return nil, err
	}

	var trades []*models.Trade
	var last []*models.Trade
	err := m.store.View(ctx, func(tx store.Tx) (err error) {
		trades, err = tx.TradesSince(symbol, m.Now().UTC().Add(-StatsWindow))
		if err != nil {
			return err
		}

		last, err = tx.RecentTrades(symbol, 1)
		return err
	})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Symbol:             symbol,
		LastPrice:          decimal.Zero,
		PriceChange:        decimal.Zero,
		PriceChangePercent: decimal.Zero,
		Volume:             decimal.Zero,
		QuoteVolume:        decimal.Zero,
		TradesCount:        len(trades),
	}

	if len(last) > 0 {
		stats.LastPrice = last[0].Price
	}

	stats.OpenPrice, stats.HighPrice, stats.LowPrice = stats.LastPrice, stats.LastPrice, stats.LastPrice
	if len(trades) == 0 {
		return stats, nil
	}

	sort.SliceStable(trades, func(i, j int) bool {
		if !trades[i].ExecutedAt.Equal(trades[j].ExecutedAt) {
			return trades[i].ExecutedAt.Before(trades[j].ExecutedAt)
		}

		return trades[i].ID < trades[j].ID
	})

	stats.OpenPrice = trades[0].Price
	stats.HighPrice = trades[0].Price
	stats.LowPrice = trades[0].Price
	for _, trade := range trades {
		stats.HighPrice = decimal.Max(stats.HighPrice, trade.Price)
		stats.LowPrice = decimal.Min(stats.LowPrice, trade.Price)
		stats.Volume = stats.Volume.Add(trade.Quantity)
		stats.QuoteVolume = stats.QuoteVolume.Add(trade.Total)
	}

	stats.PriceChange = stats.LastPrice.Sub(stats.OpenPrice)
	if stats.OpenPrice.IsPositive() {
		stats.PriceChangePercent = stats.PriceChange.Div(stats.OpenPrice).Mul(decimal.NewFromInt(100)).Round(4)
	}

	return stats, nil
}
