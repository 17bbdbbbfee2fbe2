// Package orders is the entry point of the trading core: it validates and
// reserves new orders, runs them through the matching engine of their
// symbol, cancels them and answers the read side queries.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/fees"
	"github.com/zsmartex/tradecore/ledger"
	"github.com/zsmartex/tradecore/matching"
	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/risk"
	"github.com/zsmartex/tradecore/server"
	"github.com/zsmartex/tradecore/store"
	"github.com/zsmartex/tradecore/types"
)

const (
	DefaultHistoryLimit = 50
	MaxListLimit        = 1000
)

var DefaultMarketPriceCeilingMultiplier = decimal.RequireFromString("1.05")

type Options struct {
	// MarketPriceCeilingMultiplier pads the book-walk cost of a market buy.
	MarketPriceCeilingMultiplier decimal.Decimal
	MinOrderSize                 decimal.Decimal
	MaxOrderSize                 decimal.Decimal
	HistoryLimit                 int
}

type Manager struct {
	store          store.Store
	engines        *server.EngineServer
	screen         *risk.Screen
	feeReserveRate decimal.Decimal
	opts           Options

	Now func() time.Time
}

func NewManager(db store.Store, engines *server.EngineServer, screen *risk.Screen, table fees.Table, opts Options) *Manager {
	if !opts.MarketPriceCeilingMultiplier.IsPositive() {
		opts.MarketPriceCeilingMultiplier = DefaultMarketPriceCeilingMultiplier
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}

	return &Manager{
		store:          db,
		engines:        engines,
		screen:         screen,
		feeReserveRate: table.MaxRate(),
		opts:           opts,
		Now:            time.Now,
	}
}

func notFound(err error) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return types.ErrNotFound
	}

	return err
}

// recordRiskEvents persists events raised by a cascade that was rolled back.
func (m *Manager) recordRiskEvents(ctx context.Context, events []*models.RiskEvent) {
	if len(events) == 0 {
		return
	}

	err := m.store.Transaction(context.WithoutCancel(ctx), func(tx store.Tx) error {
		for _, event := range events {
			if err := tx.CreateRiskEvent(event); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		config.Logger.Errorf("Failed to record %d risk events: %v", len(events), err)
	}
}

// reservation is what the order has to lock up front: the base quantity of
// a sell, the notional plus the highest fee of a buy. A market buy is priced
// by walking the asks it is about to take.
func (m *Manager) reservation(tx store.Tx, order *models.Order) (decimal.Decimal, error) {
	if order.Type == types.TypeMarket {
		makers, err := tx.OpenOrders(order.Symbol, order.Side.Opposite())
		if err != nil {
			return decimal.Zero, err
		}

		if len(makers) == 0 {
			return decimal.Zero, types.NewValidationError("market.order.insufficient_market_liquidity")
		}

		if order.Side == types.SideSell {
			return order.Quantity, nil
		}

		cost := decimal.Zero
		remaining := order.Quantity
		for _, maker := range makers {
			if !remaining.IsPositive() {
				break
			}

			quantity := decimal.Min(remaining, maker.Remaining())
			cost = cost.Add(quantity.Mul(maker.Price.Decimal))
			remaining = remaining.Sub(quantity)
		}

		return models.CeilAmount(cost.Mul(m.opts.MarketPriceCeilingMultiplier).Mul(decimal.NewFromInt(1).Add(m.feeReserveRate))), nil
	}

	if order.Side == types.SideSell {
		return order.Quantity, nil
	}

	return models.CeilAmount(order.Price.Decimal.Mul(order.Quantity).Mul(decimal.NewFromInt(1).Add(m.feeReserveRate))), nil
}

func insufficientFundsEvent(order *models.Order) *models.RiskEvent {
	description := "Not enough base asset"
	if order.Side == types.SideBuy {
		description = "Not enough quote asset"
	}

	return models.NewRiskEvent(order.UserID, types.RiskInsufficientFunds, types.SeverityMedium, description)
}

// CreateOrder validates, screens and reserves a new order, stores it and
// matches it, all in one cascade of its symbol. The returned order is in
// its post-match state.
func (m *Manager) CreateOrder(ctx context.Context, params CreateOrderParams) (*models.Order, error) {
	params.Normalize()
	if verr := params.Validate(m.opts); verr != nil {
		return nil, verr
	}

	engine, err := m.engines.GetEngine(ctx, params.Symbol)
	if err != nil {
		return nil, err
	}

	order := params.BuildOrder()
	order.CreatedAt = m.Now().UTC()

	events := make([]*models.RiskEvent, 0)
	result, err := engine.Execute(ctx, func(tx store.Tx) (*matching.Result, error) {
		reserve, err := m.reservation(tx, order)
		if err != nil {
			return nil, err
		}

		available, err := ledger.Available(tx, order.UserID, order.LockedAsset())
		if err != nil {
			return nil, err
		}

		if available.LessThan(reserve) {
			events = append(events, insufficientFundsEvent(order))

			return nil, &types.InsufficientFundsError{
				UserID:    order.UserID,
				Asset:     order.LockedAsset(),
				Required:  reserve,
				Available: available,
			}
		}

		if err := m.screen.Screen(tx, order); err != nil {
			var violation *types.RiskViolation
			if errors.As(err, &violation) {
				events = append(events, models.RiskEventFromViolation(violation))
			}

			return nil, err
		}

		if err := ledger.Lock(tx, order.UserID, order.LockedAsset(), reserve); err != nil {
			return nil, err
		}

		order.Locked = reserve
		order.OriginLocked = reserve

		if err := tx.CreateOrder(order); err != nil {
			return nil, err
		}

		return engine.MatchTx(tx, order)
	})
	if err != nil {
		m.recordRiskEvents(ctx, events)

		var failure *types.SettlementFailure
		if errors.As(err, &failure) {
			config.Logger.Errorf("Order of user %d on %s rolled back: %v", order.UserID, order.Symbol, failure.Cause)
		}

		return nil, err
	}

	return result.Taker, nil
}

// CancelOrder releases the outstanding reservation of an open order and
// closes it.
func (m *Manager) CancelOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := m.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	engine, err := m.engines.GetEngine(ctx, order.Symbol)
	if err != nil {
		return nil, err
	}

	result, err := engine.Execute(ctx, func(tx store.Tx) (*matching.Result, error) {
		order, err := tx.LockOrder(orderID)
		if err != nil {
			return nil, notFound(err)
		}

		if order.UserID != userID {
			return nil, types.ErrPermissionDenied
		}

		if order.IsTerminal() {
			return nil, types.ErrInvalidState
		}

		if _, err := engine.Executor().Release(tx, order); err != nil {
			return nil, err
		}

		order.Status = types.StatusCancelled
		if err := tx.SaveOrder(order); err != nil {
			return nil, err
		}

		event := models.NewRiskEvent(userID, types.RiskTrade, types.SeverityLow, fmt.Sprintf("User cancelled order %d", order.ID))
		if err := tx.CreateRiskEvent(event); err != nil {
			return nil, err
		}

		return &matching.Result{
			Taker:   order,
			Trades:  make([]*models.Trade, 0),
			Touched: []*models.Order{order},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return result.Taker, nil
}

func (m *Manager) findOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order *models.Order
	err := m.store.View(ctx, func(tx store.Tx) (err error) {
		order, err = tx.FindOrder(orderID)
		return notFound(err)
	})

	return order, err
}

// GetOrder returns an order of the user. Orders of other users are
// reported as missing.
func (m *Manager) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := m.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, types.ErrNotFound
	}

	return order, nil
}

// GetOrderHistory returns the user's latest orders, newest first.
func (m *Manager) GetOrderHistory(ctx context.Context, userID int64) ([]*models.Order, error) {
	var orders []*models.Order
	err := m.store.View(ctx, func(tx store.Tx) (err error) {
		orders, err = tx.OrdersByUser(userID, m.opts.HistoryLimit)
		return err
	})

	return orders, err
}

func (m *Manager) GetOrderBook(ctx context.Context, symbol string) (*matching.OrderBook, error) {
	return m.engines.FetchOrderBook(ctx, symbol, matching.DefaultDepthLimit)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}

	return limit
}

// GetTrades returns the latest trades of a symbol, newest first.
func (m *Manager) GetTrades(ctx context.Context, symbol string, limit int) ([]*models.Trade, error) {
	if _, _, err := models.ParseSymbol(symbol); err != nil {
		return nil, err
	}

	var trades []*models.Trade
	err := m.store.View(ctx, func(tx store.Tx) (err error) {
		trades, err = tx.RecentTrades(symbol, listLimit(limit))
		return err
	})

	return trades, err
}

// GetBalance returns the user's balance of an asset, zero if never used.
func (m *Manager) GetBalance(ctx context.Context, userID int64, asset string) (*models.Balance, error) {
	var balance *models.Balance
	err := m.store.View(ctx, func(tx store.Tx) error {
		b, found, err := ledger.Get(tx, userID, asset)
		if err != nil {
			return err
		}
		if !found {
			b = models.NewBalance(userID, asset)
		}

		balance = b
		return nil
	})

	return balance, err
}

// Deposit credits funds received from outside the core.
func (m *Manager) Deposit(ctx context.Context, userID int64, asset string, amount decimal.Decimal) (*models.Balance, error) {
	errs := make([]string, 0)
	if len(asset) == 0 {
		errs = append(errs, "account.deposit.missing_asset")
	}
	if !amount.IsPositive() {
		errs = append(errs, "account.deposit.non_positive_amount")
	} else if !models.FitsPrecision(amount, models.AmountScale) {
		errs = append(errs, "account.deposit.amount_too_precise")
	}
	if len(errs) > 0 {
		return nil, types.NewValidationError(errs...)
	}

	var balance *models.Balance
	err := m.store.Transaction(ctx, func(tx store.Tx) (err error) {
		balance, err = ledger.Deposit(tx, userID, asset, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	config.Logger.Infof("Deposited %s %s to user %d", amount, asset, userID)

	return balance, nil
}

// GetRiskEvents lists the unresolved risk events, newest first.
func (m *Manager) GetRiskEvents(ctx context.Context, limit int) ([]*models.RiskEvent, error) {
	var events []*models.RiskEvent
	err := m.store.View(ctx, func(tx store.Tx) (err error) {
		events, err = tx.UnresolvedRiskEvents(listLimit(limit))
		return err
	})

	return events, err
}

// ResolveRiskEvent marks an event as handled by an operator. Resolving it
// again changes nothing.
func (m *Manager) ResolveRiskEvent(ctx context.Context, id int64) (*models.RiskEvent, error) {
	var event *models.RiskEvent
	err := m.store.Transaction(ctx, func(tx store.Tx) (err error) {
		event, err = tx.FindRiskEvent(id)
		if err != nil {
			return notFound(err)
		}

		if event.Resolved {
			return nil
		}

		event.Resolve(m.Now().UTC())
		return tx.SaveRiskEvent(event)
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}
