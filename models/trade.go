package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/types"
)

type Trade struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	Symbol       string          `json:"symbol" gorm:"index:idx_trades_symbol_executed"`
	Price        decimal.Decimal `json:"price" gorm:"type:numeric(32,16);not null"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:numeric(32,16);not null"`
	Total        decimal.Decimal `json:"total" gorm:"type:numeric(32,16);not null"`
	BuyOrderID   int64           `json:"buy_order_id"`
	SellOrderID  int64           `json:"sell_order_id"`
	BuyerID      int64           `json:"buyer_id" gorm:"index"`
	SellerID     int64           `json:"seller_id" gorm:"index"`
	BuyerFee     decimal.Decimal `json:"buyer_fee" gorm:"type:numeric(32,16);not null;default:0"`
	SellerFee    decimal.Decimal `json:"seller_fee" gorm:"type:numeric(32,16);not null;default:0"`
	MakerOrderID int64           `json:"maker_order_id"`
	TakerOrderID int64           `json:"taker_order_id"`
	TakerSide    types.OrderSide `json:"taker_side"`
	ExecutedAt   time.Time       `json:"executed_at" gorm:"index:idx_trades_symbol_executed"`
}

// Involves reports whether the user is on either side of the trade.
func (t *Trade) Involves(userID int64) bool {
	return t.BuyerID == userID || t.SellerID == userID
}

func (t *Trade) Fees() decimal.Decimal {
	return t.BuyerFee.Add(t.SellerFee)
}
