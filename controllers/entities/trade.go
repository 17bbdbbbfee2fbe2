package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/types"
)

type TradeEntity struct {
	ID        int64           `json:"id"`
	Market    string          `json:"market"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Total     decimal.Decimal `json:"total"`
	TakerType types.OrderSide `json:"taker_type"`
	CreatedAt time.Time       `json:"created_at"`
}

func TradesToEntities(trades []*models.Trade) []TradeEntity {
	trades_json := make([]TradeEntity, 0, len(trades))
	for _, trade := range trades {
		trades_json = append(trades_json, TradeEntity{
			ID:        trade.ID,
			Market:    trade.Symbol,
			Price:     trade.Price,
			Amount:    trade.Quantity,
			Total:     trade.Total,
			TakerType: trade.TakerSide,
			CreatedAt: trade.ExecutedAt,
		})
	}

	return trades_json
}
