// Package pebblestore is an embedded implementation of store.Store on top of
// Pebble. Write transactions are indexed batches committed atomically and
// serialized by a store-wide mutex, which gives every cascade serializable
// isolation over all balance, order and trade keys.
package pebblestore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/store"
	"github.com/zsmartex/tradecore/types"
)

type Store struct {
	mu sync.Mutex
	db *pebble.DB
}

// Open opens a Pebble database at the given path
func Open(path string) (*Store, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(64 << 20),
		MemTableSize: 32 << 20,
		MaxOpenFiles: 1000,
		BytesPerSync: 512 << 10,
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// OpenInMemory opens a store backed by an in-memory filesystem.
func OpenInMemory() (*Store, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory pebble db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Transaction(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewIndexedBatch()
	defer batch.Close()

	if err := fn(&Tx{batch: batch}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return batch.Commit(pebble.Sync)
}

func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := s.db.NewIndexedBatch()
	defer batch.Close()

	return fn(&Tx{batch: batch})
}

type Tx struct {
	batch *pebble.Batch
}

func now() time.Time {
	return time.Now().UTC()
}

func (t *Tx) get(key []byte, v interface{}) error {
	data, closer, err := t.batch.Get(key)
	if err == pebble.ErrNotFound {
		return store.ErrRecordNotFound
	}
	if err != nil {
		return err
	}
	defer closer.Close()

	return json.Unmarshal(data, v)
}

func (t *Tx) set(key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return t.batch.Set(key, data, nil)
}

// ids returns the ids of the index keys under prefix in key order, or in
// reverse key order. limit <= 0 means no limit.
func (t *Tx) ids(prefix []byte, reverse bool, limit int) ([]int64, error) {
	iter, err := t.batch.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	ids := make([]int64, 0)

	valid := iter.First()
	if reverse {
		valid = iter.Last()
	}

	for ; valid; valid = step(iter, reverse) {
		id, err := idFromKey(iter.Key())
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}

	return ids, iter.Error()
}

func step(iter *pebble.Iterator, reverse bool) bool {
	if reverse {
		return iter.Prev()
	}

	return iter.Next()
}

func (t *Tx) nextID(name string) (int64, error) {
	key := sequenceKey(name)

	var id uint64
	data, closer, err := t.batch.Get(key)
	switch {
	case err == pebble.ErrNotFound:
	case err != nil:
		return 0, err
	default:
		id = binary.BigEndian.Uint64(data)
		closer.Close()
	}

	id++

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	if err := t.batch.Set(key, buf, nil); err != nil {
		return 0, err
	}

	return int64(id), nil
}

func (t *Tx) GetBalance(userID int64, asset string) (*models.Balance, error) {
	var balance models.Balance
	if err := t.get(balanceKey(userID, asset), &balance); err != nil {
		return nil, err
	}

	return &balance, nil
}

func (t *Tx) LockBalance(userID int64, asset string) (*models.Balance, error) {
	balance, err := t.GetBalance(userID, asset)
	if err == nil {
		return balance, nil
	}
	if err != store.ErrRecordNotFound {
		return nil, err
	}

	balance = models.NewBalance(userID, asset)
	if err := t.SaveBalance(balance); err != nil {
		return nil, err
	}

	return balance, nil
}

func (t *Tx) SaveBalance(balance *models.Balance) error {
	if balance.ID == 0 {
		id, err := t.nextID("balance")
		if err != nil {
			return err
		}

		balance.ID = id
		balance.CreatedAt = now()
	}

	balance.UpdatedAt = now()

	return t.set(balanceKey(balance.UserID, balance.Asset), balance)
}

func (t *Tx) CreateOrder(order *models.Order) error {
	id, err := t.nextID("order")
	if err != nil {
		return err
	}

	order.ID = id
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now()
	}
	order.UpdatedAt = order.CreatedAt

	if err := t.batch.Set(userOrderKey(order.UserID, order.ID), nil, nil); err != nil {
		return err
	}

	return t.writeOrder(order)
}

func (t *Tx) SaveOrder(order *models.Order) error {
	if order.ID == 0 {
		return t.CreateOrder(order)
	}

	order.UpdatedAt = now()

	return t.writeOrder(order)
}

// writeOrder stores the order and keeps the open-order index in step with
// its status.
func (t *Tx) writeOrder(order *models.Order) error {
	if err := t.set(orderKey(order.ID), order); err != nil {
		return err
	}

	openKey := openOrderKey(order.Symbol, order.Side, order.ID)
	if order.Resting() {
		return t.batch.Set(openKey, nil, nil)
	}

	return t.batch.Delete(openKey, nil)
}

func (t *Tx) FindOrder(id int64) (*models.Order, error) {
	var order models.Order
	if err := t.get(orderKey(id), &order); err != nil {
		return nil, err
	}

	return &order, nil
}

// LockOrder is FindOrder: write transactions are already serialized.
func (t *Tx) LockOrder(id int64) (*models.Order, error) {
	return t.FindOrder(id)
}

func (t *Tx) loadOrders(ids []int64) ([]*models.Order, error) {
	orders := make([]*models.Order, 0, len(ids))
	for _, id := range ids {
		order, err := t.FindOrder(id)
		if err != nil {
			return nil, err
		}

		orders = append(orders, order)
	}

	return orders, nil
}

func (t *Tx) OpenOrders(symbol string, side types.OrderSide) ([]*models.Order, error) {
	ids, err := t.ids(openOrderPrefix(symbol, side), false, 0)
	if err != nil {
		return nil, err
	}

	orders, err := t.loadOrders(ids)
	if err != nil {
		return nil, err
	}

	store.SortOpenOrders(side, orders)

	return orders, nil
}

func (t *Tx) OrdersByUser(userID int64, limit int) ([]*models.Order, error) {
	ids, err := t.ids(userOrderPrefix(userID), true, limit)
	if err != nil {
		return nil, err
	}

	return t.loadOrders(ids)
}

func (t *Tx) CountOrdersSince(userID int64, since time.Time) (int64, error) {
	ids, err := t.ids(userOrderPrefix(userID), true, 0)
	if err != nil {
		return 0, err
	}

	orders, err := t.loadOrders(ids)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, order := range orders {
		if !order.CreatedAt.Before(since) {
			count++
		}
	}

	return count, nil
}

func (t *Tx) CreateTrade(trade *models.Trade) error {
	id, err := t.nextID("trade")
	if err != nil {
		return err
	}

	trade.ID = id
	if trade.ExecutedAt.IsZero() {
		trade.ExecutedAt = now()
	}

	if err := t.set(tradeKey(trade.ID), trade); err != nil {
		return err
	}

	if err := t.batch.Set(symbolTradeKey(trade.Symbol, trade.ID), nil, nil); err != nil {
		return err
	}

	if err := t.batch.Set(userTradeKey(trade.BuyerID, trade.ID), nil, nil); err != nil {
		return err
	}

	if trade.SellerID != trade.BuyerID {
		return t.batch.Set(userTradeKey(trade.SellerID, trade.ID), nil, nil)
	}

	return nil
}

func (t *Tx) loadTrades(ids []int64) ([]*models.Trade, error) {
	trades := make([]*models.Trade, 0, len(ids))
	for _, id := range ids {
		var trade models.Trade
		if err := t.get(tradeKey(id), &trade); err != nil {
			return nil, err
		}

		trades = append(trades, &trade)
	}

	return trades, nil
}

func (t *Tx) RecentTrades(symbol string, limit int) ([]*models.Trade, error) {
	ids, err := t.ids(symbolTradePrefix(symbol), true, limit)
	if err != nil {
		return nil, err
	}

	return t.loadTrades(ids)
}

func (t *Tx) TradesSince(symbol string, since time.Time) ([]*models.Trade, error) {
	ids, err := t.ids(symbolTradePrefix(symbol), true, 0)
	if err != nil {
		return nil, err
	}

	trades, err := t.loadTrades(ids)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Trade, 0, len(trades))
	for _, trade := range trades {
		if !trade.ExecutedAt.Before(since) {
			result = append(result, trade)
		}
	}

	return result, nil
}

func (t *Tx) UserVolumeSince(userID int64, since time.Time) (decimal.Decimal, error) {
	ids, err := t.ids(userTradePrefix(userID), false, 0)
	if err != nil {
		return decimal.Zero, err
	}

	trades, err := t.loadTrades(ids)
	if err != nil {
		return decimal.Zero, err
	}

	volume := decimal.Zero
	for _, trade := range trades {
		if !trade.ExecutedAt.Before(since) {
			volume = volume.Add(trade.Total)
		}
	}

	return volume, nil
}

func (t *Tx) CreateRiskEvent(event *models.RiskEvent) error {
	id, err := t.nextID("risk")
	if err != nil {
		return err
	}

	event.ID = id
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now()
	}

	return t.set(riskKey(event.ID), event)
}

func (t *Tx) FindRiskEvent(id int64) (*models.RiskEvent, error) {
	var event models.RiskEvent
	if err := t.get(riskKey(id), &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func (t *Tx) SaveRiskEvent(event *models.RiskEvent) error {
	if event.ID == 0 {
		return t.CreateRiskEvent(event)
	}

	return t.set(riskKey(event.ID), event)
}

func (t *Tx) UnresolvedRiskEvents(limit int) ([]*models.RiskEvent, error) {
	ids, err := t.ids([]byte(prefixRisk), true, 0)
	if err != nil {
		return nil, err
	}

	events := make([]*models.RiskEvent, 0)
	for _, id := range ids {
		event, err := t.FindRiskEvent(id)
		if err != nil {
			return nil, err
		}

		if event.Resolved {
			continue
		}

		events = append(events, event)
		if limit > 0 && len(events) >= limit {
			break
		}
	}

	return events, nil
}
