// Package store defines the persistence contract of the trading core. Every
// cascade (order creation, matching, cancellation) runs inside one
// Transaction so that either all of its writes become visible or none do.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/types"
)

var ErrRecordNotFound = errors.New("record not found")

type Store interface {
	// Transaction runs fn atomically. A non-nil error from fn discards every
	// write made through tx.
	Transaction(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against committed state. Writes made through tx inside
	// View are discarded.
	View(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

type Tx interface {
	// GetBalance returns ErrRecordNotFound when the user never referenced
	// the asset.
	GetBalance(userID int64, asset string) (*models.Balance, error)
	// LockBalance returns the balance row locked for the rest of the
	// transaction, creating an empty one on first reference.
	LockBalance(userID int64, asset string) (*models.Balance, error)
	SaveBalance(balance *models.Balance) error

	CreateOrder(order *models.Order) error
	SaveOrder(order *models.Order) error
	FindOrder(id int64) (*models.Order, error)
	LockOrder(id int64) (*models.Order, error)
	// OpenOrders returns the resting limit orders of one side of a symbol in
	// price-time priority: asks by price ascending, bids by price
	// descending, then by creation time and id.
	OpenOrders(symbol string, side types.OrderSide) ([]*models.Order, error)
	OrdersByUser(userID int64, limit int) ([]*models.Order, error)
	CountOrdersSince(userID int64, since time.Time) (int64, error)

	CreateTrade(trade *models.Trade) error
	// RecentTrades returns the newest trades of a symbol first.
	RecentTrades(symbol string, limit int) ([]*models.Trade, error)
	TradesSince(symbol string, since time.Time) ([]*models.Trade, error)
	// UserVolumeSince sums the notional of every trade the user took part
	// in since the given time.
	UserVolumeSince(userID int64, since time.Time) (decimal.Decimal, error)

	CreateRiskEvent(event *models.RiskEvent) error
	FindRiskEvent(id int64) (*models.RiskEvent, error)
	SaveRiskEvent(event *models.RiskEvent) error
	UnresolvedRiskEvents(limit int) ([]*models.RiskEvent, error)
}

// SortOpenOrders orders a side of the book by price-time priority.
func SortOpenOrders(side types.OrderSide, orders []*models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.Price.Decimal.Equal(b.Price.Decimal) {
			if side == types.SideBuy {
				return a.Price.Decimal.GreaterThan(b.Price.Decimal)
			}
			return a.Price.Decimal.LessThan(b.Price.Decimal)
		}

		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}

		return a.ID < b.ID
	})
}
