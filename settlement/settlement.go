// Package settlement turns one fill into a trade record, the balance moves of
// both parties and the fill-state of both orders. It never commits: the
// caller's transaction decides whether all of it lands or none of it does.
package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/fees"
	"github.com/zsmartex/tradecore/ledger"
	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/store"
	"github.com/zsmartex/tradecore/types"
)

// Fill is one execution between the incoming order and a resting one, at
// the resting order's price.
type Fill struct {
	Taker    *models.Order
	Maker    *models.Order
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

func (f Fill) Total() decimal.Decimal {
	return f.Quantity.Mul(f.Price)
}

// Buy and Sell return the buy order and the sell order of the fill.
func (f Fill) Buy() *models.Order {
	if f.Taker.Side == types.SideBuy {
		return f.Taker
	}

	return f.Maker
}

func (f Fill) Sell() *models.Order {
	if f.Taker.Side == types.SideSell {
		return f.Taker
	}

	return f.Maker
}

type Executor struct {
	Calculator *fees.Calculator
	Now        func() time.Time
}

func NewExecutor(calculator *fees.Calculator) *Executor {
	return &Executor{
		Calculator: calculator,
		Now:        time.Now,
	}
}

func (e *Executor) validate(fill Fill) error {
	switch {
	case fill.Taker == nil || fill.Maker == nil:
		return types.NewSettlementFailure("fill without both orders")
	case fill.Taker.Symbol != fill.Maker.Symbol:
		return types.NewSettlementFailure("orders %d and %d belong to different symbols", fill.Taker.ID, fill.Maker.ID)
	case fill.Taker.Side == fill.Maker.Side:
		return types.NewSettlementFailure("orders %d and %d are on the same side", fill.Taker.ID, fill.Maker.ID)
	case !fill.Taker.IsOpen() || !fill.Maker.IsOpen():
		return types.NewSettlementFailure("orders %d and %d must both be open", fill.Taker.ID, fill.Maker.ID)
	case !fill.Quantity.IsPositive() || !fill.Price.IsPositive():
		return types.NewSettlementFailure("fill quantity %s and price %s must be positive", fill.Quantity, fill.Price)
	case fill.Quantity.GreaterThan(decimal.Min(fill.Taker.Remaining(), fill.Maker.Remaining())):
		return types.NewSettlementFailure("fill quantity %s exceeds the remaining volume", fill.Quantity)
	}

	return nil
}

// Execute settles the fill. Any returned error leaves the transaction in a
// state that must be rolled back.
func (e *Executor) Execute(tx store.Tx, fill Fill) (*models.Trade, error) {
	if err := e.validate(fill); err != nil {
		return nil, err
	}

	fee, err := e.Calculator.CalculateFees(tx, fill.Maker.UserID, fill.Taker.UserID, fill.Quantity, fill.Price)
	if err != nil {
		return nil, err
	}

	buy, sell := fill.Buy(), fill.Sell()

	// each party pays the rate of its own role
	buyerFee, sellerFee := models.RoundAmount(fee.MakerFee), models.RoundAmount(fee.TakerFee)
	if buy == fill.Taker {
		buyerFee, sellerFee = sellerFee, buyerFee
	}

	trade := &models.Trade{
		Symbol:       fill.Taker.Symbol,
		Price:        fill.Price,
		Quantity:     fill.Quantity,
		Total:        fill.Total(),
		BuyOrderID:   buy.ID,
		SellOrderID:  sell.ID,
		BuyerID:      buy.UserID,
		SellerID:     sell.UserID,
		BuyerFee:     buyerFee,
		SellerFee:    sellerFee,
		MakerOrderID: fill.Maker.ID,
		TakerOrderID: fill.Taker.ID,
		TakerSide:    fill.Taker.Side,
		ExecutedAt:   e.Now().UTC(),
	}

	if err := tx.CreateTrade(trade); err != nil {
		return nil, err
	}

	if err := e.strike(tx, trade, buy, buyerFee); err != nil {
		return nil, err
	}

	if err := e.strike(tx, trade, sell, sellerFee); err != nil {
		return nil, err
	}

	return trade, nil
}

// strike applies one side of the trade to its order and owner. The buyer
// pays the fee on top of the notional out of its reservation, the seller
// receives the notional minus its fee.
func (e *Executor) strike(tx store.Tx, trade *models.Trade, order *models.Order, fee decimal.Decimal) error {
	var outcome, income decimal.Decimal
	if order.Side == types.SideSell {
		outcome = trade.Quantity
		income = trade.Total.Sub(fee)
	} else {
		outcome = trade.Total.Add(fee)
		income = trade.Quantity
	}

	if err := order.SubLocked(outcome); err != nil {
		return types.NewSettlementFailure("%w", err)
	}

	if err := ledger.Settle(tx, order.UserID, order.LockedAsset(), decimal.Zero, outcome.Neg()); err != nil {
		return err
	}

	if err := ledger.Settle(tx, order.UserID, order.IncomeAsset(), income, decimal.Zero); err != nil {
		return err
	}

	if err := order.Fill(trade.Quantity); err != nil {
		return types.NewSettlementFailure("%w", err)
	}

	// unlock what the filled order did not spend
	if order.Status == types.StatusFilled {
		if _, err := e.Release(tx, order); err != nil {
			return err
		}
	}

	return tx.SaveOrder(order)
}

// Release hands the order's outstanding reservation back to its owner and
// returns the amount released. The order itself is not saved.
func (e *Executor) Release(tx store.Tx, order *models.Order) (decimal.Decimal, error) {
	released := order.Locked
	if !released.IsPositive() {
		return decimal.Zero, nil
	}

	if err := ledger.Unlock(tx, order.UserID, order.LockedAsset(), released); err != nil {
		return decimal.Zero, err
	}

	order.Locked = decimal.Zero

	return released, nil
}
