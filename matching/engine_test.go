package matching

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	yaml "gopkg.in/yaml.v2"

	"github.com/zsmartex/tradecore/fees"
	"github.com/zsmartex/tradecore/ledger"
	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/settlement"
	"github.com/zsmartex/tradecore/store"
	"github.com/zsmartex/tradecore/store/pebblestore"
	"github.com/zsmartex/tradecore/types"
)

const symbol = "BTC/USDT"

type recordingSink struct {
	sync.Mutex
	trades []*models.Trade
	books  []*OrderBook
}

func (r *recordingSink) PublishTrade(trade *models.Trade) error {
	r.Lock()
	defer r.Unlock()
	r.trades = append(r.trades, trade)
	return nil
}

func (r *recordingSink) PublishOrderBookUpdate(book *OrderBook) error {
	r.Lock()
	defer r.Unlock()
	r.books = append(r.books, book)
	return nil
}

type MatchingEntry struct {
	Name     string   `yaml:"name"`
	Orders   []string `yaml:"orders"`
	Trades   []string `yaml:"trades"`
	Statuses []string `yaml:"statuses"`
}

type suiteEngineTester struct {
	suite.Suite
	store    *pebblestore.Store
	engine   *Engine
	sink     *recordingSink
	table    fees.Table
	deposits map[string]decimal.Decimal
}

func (s *suiteEngineTester) SetupTest() {
	db, err := pebblestore.OpenInMemory()
	s.Require().NoError(err)

	table, err := fees.NewTable(fees.DefaultTable())
	s.Require().NoError(err)

	s.store = db
	s.table = table
	s.sink = &recordingSink{}
	s.deposits = map[string]decimal.Decimal{}
	s.engine = NewEngine(symbol, db, settlement.NewExecutor(fees.NewCalculator(table, 0)), s.sink)
}

func (s *suiteEngineTester) TearDownTest() {
	s.engine.Close()
	s.NoError(s.store.Close())
}

func fields(line string) []string {
	var result []string
	for _, r := range strings.Split(line, ",") {
		result = append(result, strings.TrimSpace(r))
	}

	return result
}

// submit funds the reservation of a new order, stores it and matches it in
// one cascade, the way an order enters the engine.
func (s *suiteEngineTester) submit(userID int64, side types.OrderSide, ordType types.OrderType, quantity, price decimal.Decimal) *Result {
	order := &models.Order{
		UserID:         userID,
		Symbol:         symbol,
		Side:           side,
		Type:           ordType,
		Quantity:       quantity,
		FilledQuantity: decimal.Zero,
		Status:         types.StatusPending,
	}
	if ordType == types.TypeLimit {
		order.Price = decimal.NewNullDecimal(price)
	}

	reserve := quantity
	if side == types.SideBuy {
		reserve = quantity.Mul(price).Mul(decimal.NewFromInt(1).Add(s.table.MaxRate()))
	}
	order.Locked = reserve
	order.OriginLocked = reserve

	result, err := s.engine.Execute(context.Background(), func(tx store.Tx) (*Result, error) {
		if reserve.IsPositive() {
			if _, err := ledger.Deposit(tx, userID, order.LockedAsset(), reserve); err != nil {
				return nil, err
			}
			if err := ledger.Lock(tx, userID, order.LockedAsset(), reserve); err != nil {
				return nil, err
			}
		}

		if err := tx.CreateOrder(order); err != nil {
			return nil, err
		}

		return s.engine.MatchTx(tx, order)
	})
	s.Require().NoError(err)

	if reserve.IsPositive() {
		s.deposits[order.LockedAsset()] = s.deposits[order.LockedAsset()].Add(reserve)
	}

	return result
}

func (s *suiteEngineTester) submitLine(line string) *Result {
	result := fields(line)

	userID, err := strconv.ParseInt(result[0], 10, 64)
	s.Require().NoError(err)

	return s.submit(
		userID,
		types.OrderSide(result[1]),
		types.OrderType(result[2]),
		decimal.RequireFromString(result[3]),
		decimal.RequireFromString(result[4]),
	)
}

func (s *suiteEngineTester) view(fn func(tx store.Tx) error) {
	s.Require().NoError(s.store.View(context.Background(), fn))
}

func (s *suiteEngineTester) order(id int64) *models.Order {
	var order *models.Order
	s.view(func(tx store.Tx) (err error) {
		order, err = tx.FindOrder(id)
		return err
	})

	return order
}

func (s *suiteEngineTester) trades() []*models.Trade {
	var trades []*models.Trade
	s.view(func(tx store.Tx) (err error) {
		trades, err = tx.RecentTrades(symbol, 0)
		return err
	})

	// oldest first
	for i, j := 0, len(trades)-1; i < j; i, j = i+1, j-1 {
		trades[i], trades[j] = trades[j], trades[i]
	}

	return trades
}

// assertConservation checks that every unit deposited is still held by a
// user or was paid as a fee.
func (s *suiteEngineTester) assertConservation(users []int64) {
	paid := decimal.Zero
	for _, trade := range s.trades() {
		paid = paid.Add(trade.Fees())
	}

	for _, asset := range []string{"BTC", "USDT"} {
		held := decimal.Zero
		s.view(func(tx store.Tx) error {
			for _, userID := range users {
				balance, found, err := ledger.Get(tx, userID, asset)
				if err != nil {
					return err
				}
				if found {
					s.False(balance.Available.IsNegative())
					s.False(balance.Locked.IsNegative())
					held = held.Add(balance.Amount())
				}
			}
			return nil
		})

		expected := s.deposits[asset]
		if asset == "USDT" {
			expected = expected.Sub(paid)
		}
		s.True(expected.Equal(held), "%s: deposited %s, fees %s, held %s", asset, s.deposits[asset], paid, held)
	}
}

func (ode *MatchingEntry) Test(s *suiteEngineTester) {
	s.Run(ode.Name, func() {
		s.TearDownTest()
		s.SetupTest()

		users := make([]int64, 0)
		for _, line := range ode.Orders {
			s.submitLine(line)
			userID, _ := strconv.ParseInt(fields(line)[0], 10, 64)
			users = append(users, userID)
		}

		trades := s.trades()
		s.Require().Len(trades, len(ode.Trades))
		for i, line := range ode.Trades {
			result := fields(line)
			makerID, _ := strconv.ParseInt(result[2], 10, 64)
			takerID, _ := strconv.ParseInt(result[3], 10, 64)

			s.True(decimal.RequireFromString(result[0]).Equal(trades[i].Price), "trade %d price %s", i, trades[i].Price)
			s.True(decimal.RequireFromString(result[1]).Equal(trades[i].Quantity), "trade %d quantity %s", i, trades[i].Quantity)
			s.Equal(makerID, trades[i].MakerOrderID)
			s.Equal(takerID, trades[i].TakerOrderID)
		}

		for i, status := range ode.Statuses {
			order := s.order(int64(i + 1))
			s.Equal(types.OrderStatus(status), order.Status, "order %d", i+1)
			s.False(order.FilledQuantity.GreaterThan(order.Quantity))
			s.Equal(order.Status == types.StatusFilled, order.FilledQuantity.Equal(order.Quantity))
			if order.IsTerminal() {
				s.True(order.Locked.IsZero(), "order %d keeps %s locked", i+1, order.Locked)
			}
		}

		s.assertConservation(users)
	})
}

func (s *suiteEngineTester) TestFixtures() {
	fixtures, err := os.ReadFile("./fixtures/matching.yaml")
	s.Require().NoError(err)

	var entries []MatchingEntry
	s.Require().NoError(yaml.Unmarshal(fixtures, &entries))
	s.NotEmpty(entries)

	for _, entry := range entries {
		entry.Test(s)
	}
}

func (s *suiteEngineTester) TestMatchIsIdempotentOnClosedOrders() {
	s.submit(1, types.SideSell, types.TypeLimit, decimal.NewFromInt(1), decimal.NewFromInt(49000))
	s.submit(2, types.SideBuy, types.TypeLimit, decimal.NewFromInt(2), decimal.NewFromInt(50000))

	before := s.trades()
	s.Require().Len(before, 1)

	var buyerQuote *models.Balance
	s.view(func(tx store.Tx) (err error) {
		buyerQuote, err = tx.GetBalance(2, "USDT")
		return err
	})

	// the maker is FILLED, the taker PARTIAL: neither is PENDING any more
	for _, id := range []int64{1, 2} {
		result, err := s.engine.Match(context.Background(), id)
		s.Require().NoError(err)
		s.Empty(result.Trades)
	}

	s.Len(s.trades(), 1)
	s.view(func(tx store.Tx) error {
		after, err := tx.GetBalance(2, "USDT")
		s.True(after.Available.Equal(buyerQuote.Available))
		s.True(after.Locked.Equal(buyerQuote.Locked))
		return err
	})
}

func (s *suiteEngineTester) TestMatchPersistedOrder() {
	s.submit(1, types.SideSell, types.TypeLimit, decimal.NewFromInt(1), decimal.NewFromInt(100))

	var orderID int64
	_, err := s.engine.Execute(context.Background(), func(tx store.Tx) (*Result, error) {
		order := &models.Order{
			UserID:   2,
			Symbol:   symbol,
			Side:     types.SideBuy,
			Type:     types.TypeLimit,
			Quantity: decimal.NewFromInt(1),
			Price:    decimal.NewNullDecimal(decimal.NewFromInt(100)),
			Status:   types.StatusPending,
			Locked:   decimal.NewFromInt(101),
		}
		if _, err := ledger.Deposit(tx, 2, "USDT", order.Locked); err != nil {
			return nil, err
		}
		if err := ledger.Lock(tx, 2, "USDT", order.Locked); err != nil {
			return nil, err
		}
		if err := tx.CreateOrder(order); err != nil {
			return nil, err
		}
		orderID = order.ID
		return &Result{}, nil
	})
	s.Require().NoError(err)

	result, err := s.engine.Match(context.Background(), orderID)
	s.Require().NoError(err)
	s.Len(result.Trades, 1)
	s.Equal(types.StatusFilled, result.Taker.Status)
}

func (s *suiteEngineTester) TestMatchRejectsOtherSymbols() {
	_, err := s.engine.MatchTx(nil, &models.Order{ID: 1, Symbol: "ETH/USDT"})
	s.Error(err)
}

func (s *suiteEngineTester) TestDepthFollowsCommittedState() {
	s.submit(1, types.SideSell, types.TypeLimit, decimal.NewFromInt(1), decimal.NewFromInt(49000))
	s.submit(2, types.SideSell, types.TypeLimit, decimal.NewFromInt(1), decimal.NewFromInt(49000))
	s.submit(3, types.SideSell, types.TypeLimit, decimal.NewFromInt(1), decimal.NewFromInt(49500))
	s.submit(4, types.SideBuy, types.TypeLimit, decimal.NewFromInt(1), decimal.NewFromInt(48000))
	s.submit(5, types.SideBuy, types.TypeLimit, decimal.NewFromInt(2), decimal.NewFromInt(48500))
	s.submit(6, types.SideBuy, types.TypeLimit, decimal.RequireFromString("1.5"), decimal.NewFromInt(49000))

	book := s.engine.FetchOrderBook(DefaultDepthLimit)
	s.Equal(symbol, book.Symbol)
	s.Require().Len(book.Asks, 2)
	s.True(book.Asks[0].Price.Equal(decimal.NewFromInt(49000)))
	s.True(book.Asks[0].TotalQuantity.Equal(decimal.RequireFromString("0.5")))
	s.Equal(1, book.Asks[0].OrderCount)
	s.True(book.Asks[1].Price.Equal(decimal.NewFromInt(49500)))

	s.Require().Len(book.Bids, 2)
	s.True(book.Bids[0].Price.Equal(decimal.NewFromInt(48500)))
	s.True(book.Bids[0].TotalQuantity.Equal(decimal.NewFromInt(2)))
	s.True(book.Bids[1].Price.Equal(decimal.NewFromInt(48000)))

	limited := s.engine.FetchOrderBook(1)
	s.Len(limited.Asks, 1)
	s.Len(limited.Bids, 1)

	// a rebuilt depth agrees with the incremental one
	sequence := book.Sequence
	s.Require().NoError(s.engine.Reload(context.Background()))
	reloaded := s.engine.FetchOrderBook(DefaultDepthLimit)
	s.equalLevels(book.Asks, reloaded.Asks)
	s.equalLevels(book.Bids, reloaded.Bids)
	s.Greater(reloaded.Sequence, sequence)
	s.True(s.engine.Initialized())
}

func (s *suiteEngineTester) equalLevels(expected, actual []Level) {
	s.Require().Len(actual, len(expected))
	for i := range expected {
		s.True(expected[i].Price.Equal(actual[i].Price))
		s.True(expected[i].TotalQuantity.Equal(actual[i].TotalQuantity))
		s.Equal(expected[i].OrderCount, actual[i].OrderCount)
	}
}

func (s *suiteEngineTester) TestSinkReceivesCommittedEvents() {
	s.submit(1, types.SideSell, types.TypeLimit, decimal.NewFromInt(1), decimal.NewFromInt(100))
	s.submit(2, types.SideSell, types.TypeLimit, decimal.NewFromInt(1), decimal.NewFromInt(101))
	s.submit(3, types.SideBuy, types.TypeLimit, decimal.NewFromInt(2), decimal.NewFromInt(101))

	s.engine.Notification.Flush()
	s.Len(s.sink.trades, 2)
	s.Len(s.sink.books, 3)
	s.Empty(s.sink.books[2].Asks)

	_, err := s.engine.Execute(context.Background(), func(tx store.Tx) (*Result, error) {
		return nil, types.ErrInvalidState
	})
	s.ErrorIs(err, types.ErrInvalidState)

	s.engine.Notification.Flush()
	s.Len(s.sink.books, 3)
}

type blockingSink struct {
	release chan struct{}
	books   chan *OrderBook
}

func (b *blockingSink) PublishTrade(*models.Trade) error {
	<-b.release
	return nil
}

func (b *blockingSink) PublishOrderBookUpdate(book *OrderBook) error {
	<-b.release
	b.books <- book
	return nil
}

func (s *suiteEngineTester) TestSlowSinkDoesNotHoldTheSymbol() {
	sink := &blockingSink{release: make(chan struct{}), books: make(chan *OrderBook, 16)}
	s.engine.Close()
	s.engine = NewEngine(symbol, s.store, settlement.NewExecutor(fees.NewCalculator(s.table, 0)), sink)

	s.submit(1, types.SideSell, types.TypeLimit, decimal.NewFromInt(1), decimal.NewFromInt(100))

	done := make(chan *Result, 1)
	go func() {
		done <- s.submit(2, types.SideBuy, types.TypeLimit, decimal.NewFromInt(1), decimal.NewFromInt(100))
	}()

	select {
	case result := <-done:
		s.Len(result.Trades, 1)
	case <-time.After(5 * time.Second):
		s.Fail("second cascade waited for the sink")
	}

	close(sink.release)
	s.engine.Notification.Flush()

	s.Require().Len(sink.books, 2)
	first, second := <-sink.books, <-sink.books
	s.Less(first.Sequence, second.Sequence)
}

func (s *suiteEngineTester) TestConcurrentSubmissions() {
	var wg sync.WaitGroup
	var mu sync.Mutex

	users := make([]int64, 0)
	for i := 0; i < 20; i++ {
		userID := int64(i + 1)
		users = append(users, userID)

		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			side := types.SideSell
			if i%2 == 0 {
				side = types.SideBuy
			}
			price := decimal.NewFromInt(int64(100 + i%3))

			order := &models.Order{
				UserID:   userID,
				Symbol:   symbol,
				Side:     side,
				Type:     types.TypeLimit,
				Quantity: decimal.NewFromInt(1),
				Price:    decimal.NewNullDecimal(price),
				Status:   types.StatusPending,
			}
			reserve := order.Quantity
			if side == types.SideBuy {
				reserve = price.Mul(decimal.NewFromInt(1).Add(s.table.MaxRate()))
			}
			order.Locked = reserve

			_, err := s.engine.Execute(context.Background(), func(tx store.Tx) (*Result, error) {
				if _, err := ledger.Deposit(tx, userID, order.LockedAsset(), reserve); err != nil {
					return nil, err
				}
				if err := ledger.Lock(tx, userID, order.LockedAsset(), reserve); err != nil {
					return nil, err
				}
				if err := tx.CreateOrder(order); err != nil {
					return nil, err
				}
				return s.engine.MatchTx(tx, order)
			})
			s.NoError(err)

			mu.Lock()
			s.deposits[order.LockedAsset()] = s.deposits[order.LockedAsset()].Add(reserve)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	for id := int64(1); id <= 20; id++ {
		order := s.order(id)
		s.False(order.FilledQuantity.GreaterThan(order.Quantity))
	}

	// the book is never crossed after a cascade
	book := s.engine.FetchOrderBook(DefaultDepthLimit)
	if len(book.Asks) > 0 && len(book.Bids) > 0 {
		s.True(book.Bids[0].Price.LessThan(book.Asks[0].Price))
	}

	s.assertConservation(users)
}

func (s *suiteEngineTester) TestContextCancelledAbortsCascade() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := s.engine.Match(ctx, 1)
	s.ErrorIs(err, context.DeadlineExceeded)
}

func TestEngine(t *testing.T) {
	suite.Run(t, new(suiteEngineTester))
}
