package models

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/types"
)

var ErrInvalidSymbol = errors.New("market.order.invalid_symbol")

type Order struct {
	ID             int64               `json:"id" gorm:"primaryKey"`
	UUID           uuid.UUID           `json:"uuid" gorm:"type:uuid;uniqueIndex"`
	UserID         int64               `json:"user_id" gorm:"index:idx_orders_user_created"`
	Symbol         string              `json:"symbol" gorm:"index:idx_orders_book,priority:1"`
	Side           types.OrderSide     `json:"side" gorm:"index:idx_orders_book,priority:2"`
	Type           types.OrderType     `json:"type"`
	Quantity       decimal.Decimal     `json:"quantity" gorm:"type:numeric(32,16);not null"`
	Price          decimal.NullDecimal `json:"price" gorm:"type:numeric(32,16);index:idx_orders_book,priority:4"`
	FilledQuantity decimal.Decimal     `json:"filled_quantity" gorm:"type:numeric(32,16);not null;default:0"`
	Status         types.OrderStatus   `json:"status" gorm:"index:idx_orders_book,priority:3"`
	Locked         decimal.Decimal     `json:"locked" gorm:"type:numeric(32,16);not null;default:0"`
	OriginLocked   decimal.Decimal     `json:"origin_locked" gorm:"type:numeric(32,16);not null;default:0"`
	TradesCount    int64               `json:"trades_count" gorm:"default:0"`
	CreatedAt      time.Time           `json:"created_at" gorm:"index:idx_orders_user_created;index:idx_orders_book,priority:5"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ParseSymbol splits a BASE/QUOTE symbol.
func ParseSymbol(symbol string) (base, quote string, err error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) == 0 {
		return "", "", ErrInvalidSymbol
	}

	return parts[0], parts[1], nil
}

func (o *Order) BaseAsset() string {
	base, _, _ := ParseSymbol(o.Symbol)
	return base
}

func (o *Order) QuoteAsset() string {
	_, quote, _ := ParseSymbol(o.Symbol)
	return quote
}

// LockedAsset is the asset reserved while the order is open: quote for a
// buy, base for a sell.
func (o *Order) LockedAsset() string {
	if o.Side == types.SideBuy {
		return o.QuoteAsset()
	}

	return o.BaseAsset()
}

// IncomeAsset is the asset the order acquires when it fills.
func (o *Order) IncomeAsset() string {
	if o.Side == types.SideBuy {
		return o.BaseAsset()
	}

	return o.QuoteAsset()
}

func (o *Order) Remaining() decimal.Decimal {
	return o.Quantity.Sub(o.FilledQuantity)
}

func (o *Order) IsOpen() bool {
	return o.Status == types.StatusPending || o.Status == types.StatusPartial
}

func (o *Order) IsTerminal() bool {
	return o.Status == types.StatusFilled || o.Status == types.StatusCancelled
}

// Resting reports whether the order belongs on the book.
func (o *Order) Resting() bool {
	return o.Type == types.TypeLimit && o.IsOpen() && o.Price.Valid
}

// Marketable reports whether a resting order at price can trade against o.
func (o *Order) Marketable(price decimal.Decimal) bool {
	if o.Type == types.TypeMarket {
		return true
	}

	if o.Side == types.SideBuy {
		return price.LessThanOrEqual(o.Price.Decimal)
	}

	return price.GreaterThanOrEqual(o.Price.Decimal)
}

// Fill records an execution of quantity against the order and moves it to
// FILLED or PARTIAL.
func (o *Order) Fill(quantity decimal.Decimal) error {
	if !quantity.IsPositive() || quantity.GreaterThan(o.Remaining()) {
		return errors.New("cannot fill order (id: " + o.idString() + ", quantity: " + quantity.String() + ", remaining: " + o.Remaining().String() + ")")
	}

	o.FilledQuantity = o.FilledQuantity.Add(quantity)
	o.TradesCount++

	if o.FilledQuantity.Equal(o.Quantity) {
		o.Status = types.StatusFilled
	} else {
		o.Status = types.StatusPartial
	}

	return nil
}

// SubLocked consumes part of the order's reservation.
func (o *Order) SubLocked(amount decimal.Decimal) error {
	if amount.IsNegative() || amount.GreaterThan(o.Locked) {
		return errors.New("cannot consume order reservation (id: " + o.idString() + ", amount: " + amount.String() + ", locked: " + o.Locked.String() + ")")
	}

	o.Locked = o.Locked.Sub(amount)

	return nil
}

func (o *Order) idString() string {
	return strconv.FormatInt(o.ID, 10)
}
