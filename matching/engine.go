package matching

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/settlement"
	"github.com/zsmartex/tradecore/store"
	"github.com/zsmartex/tradecore/types"
)

// Result is what one committed cascade changed: the trades in execution
// order and every order whose state moved, the taker last.
type Result struct {
	Taker   *models.Order
	Trades  []*models.Trade
	Touched []*models.Order
}

func (r *Result) touch(order *models.Order) {
	for i, o := range r.Touched {
		if o.ID == order.ID {
			r.Touched[i] = order
			return
		}
	}

	r.Touched = append(r.Touched, order)
}

// Engine owns everything that must be serialized for one symbol. Every
// cascade that reads or writes the resting orders of the symbol runs while
// holding MatchingMutex and inside a single store transaction.
type Engine struct {
	MatchingMutex sync.Mutex
	Symbol        string
	Depth         *Depth
	Notification  *Notification

	initialized atomic.Bool

	store    store.Store
	executor *settlement.Executor
}

func NewEngine(symbol string, db store.Store, executor *settlement.Executor, sink Sink) *Engine {
	return &Engine{
		Symbol:       symbol,
		Depth:        NewDepth(symbol),
		Notification: NewNotification(symbol, sink),
		store:        db,
		executor:     executor,
	}
}

func (e *Engine) Executor() *settlement.Executor {
	return e.executor
}

// Execute runs fn as one cascade of the symbol. Nothing fn wrote is visible
// unless it returns without error; the depth and the notification sink only
// see committed results.
func (e *Engine) Execute(ctx context.Context, fn func(tx store.Tx) (*Result, error)) (*Result, error) {
	e.MatchingMutex.Lock()
	defer e.MatchingMutex.Unlock()

	var result *Result
	err := e.store.Transaction(ctx, func(tx store.Tx) (err error) {
		result, err = fn(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.Publish(result)

	return result, nil
}

// Match runs the matching cascade of an order already persisted.
func (e *Engine) Match(ctx context.Context, orderID int64) (*Result, error) {
	return e.Execute(ctx, func(tx store.Tx) (*Result, error) {
		taker, err := tx.LockOrder(orderID)
		if err != nil {
			return nil, err
		}

		return e.MatchTx(tx, taker)
	})
}

// MatchTx matches the taker against the opposite side of the book inside a
// transaction the caller holds together with MatchingMutex. An order that is
// not PENDING is left untouched.
func (e *Engine) MatchTx(tx store.Tx, taker *models.Order) (*Result, error) {
	result := &Result{Taker: taker, Trades: make([]*models.Trade, 0)}

	if taker.Symbol != e.Symbol {
		return nil, fmt.Errorf("order %d of %s submitted to the %s engine", taker.ID, taker.Symbol, e.Symbol)
	}

	if taker.Status != types.StatusPending {
		return result, nil
	}

	makers, err := tx.OpenOrders(e.Symbol, taker.Side.Opposite())
	if err != nil {
		return nil, err
	}

	for _, maker := range makers {
		if !taker.Remaining().IsPositive() {
			break
		}

		if maker.ID == taker.ID || !maker.Remaining().IsPositive() {
			continue
		}

		// makers come best price first, the rest is further away
		if !taker.Marketable(maker.Price.Decimal) {
			break
		}

		trade, err := e.executor.Execute(tx, settlement.Fill{
			Taker:    taker,
			Maker:    maker,
			Quantity: decimal.Min(taker.Remaining(), maker.Remaining()),
			Price:    maker.Price.Decimal,
		})
		if err != nil {
			return nil, err
		}

		result.Trades = append(result.Trades, trade)
		result.touch(maker)
	}

	// market orders never rest
	if taker.Type == types.TypeMarket && taker.IsOpen() {
		if _, err := e.executor.Release(tx, taker); err != nil {
			return nil, err
		}

		taker.Status = types.StatusCancelled
		if err := tx.SaveOrder(taker); err != nil {
			return nil, err
		}
	}

	result.touch(taker)

	return result, nil
}

// Publish refreshes the depth with a committed result and queues its
// notifications: one event per trade, one order book update per cascade.
// The sink is called outside of MatchingMutex.
func (e *Engine) Publish(result *Result) {
	if result == nil || len(result.Touched) == 0 {
		return
	}

	e.Depth.Apply(result.Touched...)

	e.Notification.Publish(result.Trades, e.Depth.FetchOrderBook(DefaultDepthLimit))
}

// Reload rebuilds the depth from the persisted resting orders.
func (e *Engine) Reload(ctx context.Context) error {
	e.MatchingMutex.Lock()
	defer e.MatchingMutex.Unlock()

	var orders []*models.Order
	err := e.store.View(ctx, func(tx store.Tx) error {
		for _, side := range []types.OrderSide{types.SideSell, types.SideBuy} {
			sideOrders, err := tx.OpenOrders(e.Symbol, side)
			if err != nil {
				return err
			}

			orders = append(orders, sideOrders...)
		}

		return nil
	})
	if err != nil {
		return err
	}

	e.Depth.Reset(orders)
	e.initialized.Store(true)

	config.Logger.Debugf("%s depth reloaded with %d orders.", e.Symbol, len(orders))

	return nil
}

// Initialized reports whether the depth was loaded from persistence.
func (e *Engine) Initialized() bool {
	return e.initialized.Load()
}

// Close waits for the running cascade and delivers the queued notifications.
func (e *Engine) Close() {
	e.MatchingMutex.Lock()
	defer e.MatchingMutex.Unlock()

	e.Notification.Close()
}

// FetchOrderBook is the display snapshot of the symbol.
func (e *Engine) FetchOrderBook(limit int) *OrderBook {
	return e.Depth.FetchOrderBook(limit)
}
