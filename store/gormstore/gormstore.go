// Package gormstore persists the trading core in PostgreSQL through gorm.
// Balance and order rows touched by a cascade are taken with
// SELECT ... FOR UPDATE so concurrent cascades on the same keys serialize.
package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/store"
	"github.com/zsmartex/tradecore/types"
)

var errViewRollback = errors.New("view rollback")

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&models.Balance{},
		&models.Order{},
		&models.Trade{},
		&models.RiskEvent{},
	)
}

func (s *Store) Transaction(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{db: tx})
	})
}

func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(&Tx{db: tx}); err != nil {
			return err
		}

		return errViewRollback
	})

	if errors.Is(err, errViewRollback) {
		return nil
	}

	return err
}

func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}

	return db.Close()
}

type Tx struct {
	db *gorm.DB
}

func (t *Tx) locking() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrRecordNotFound
	}

	return err
}

func (t *Tx) GetBalance(userID int64, asset string) (*models.Balance, error) {
	var balance models.Balance
	if err := t.db.Where("user_id = ? AND asset = ?", userID, asset).First(&balance).Error; err != nil {
		return nil, notFound(err)
	}

	return &balance, nil
}

func (t *Tx) LockBalance(userID int64, asset string) (*models.Balance, error) {
	empty := models.NewBalance(userID, asset)
	if err := t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(empty).Error; err != nil {
		return nil, err
	}

	var balance models.Balance
	if err := t.locking().Where("user_id = ? AND asset = ?", userID, asset).First(&balance).Error; err != nil {
		return nil, notFound(err)
	}

	return &balance, nil
}

func (t *Tx) SaveBalance(balance *models.Balance) error {
	return t.db.Save(balance).Error
}

func (t *Tx) CreateOrder(order *models.Order) error {
	return t.db.Create(order).Error
}

func (t *Tx) SaveOrder(order *models.Order) error {
	return t.db.Save(order).Error
}

func (t *Tx) FindOrder(id int64) (*models.Order, error) {
	var order models.Order
	if err := t.db.First(&order, id).Error; err != nil {
		return nil, notFound(err)
	}

	return &order, nil
}

func (t *Tx) LockOrder(id int64) (*models.Order, error) {
	var order models.Order
	if err := t.locking().First(&order, id).Error; err != nil {
		return nil, notFound(err)
	}

	return &order, nil
}

func (t *Tx) OpenOrders(symbol string, side types.OrderSide) ([]*models.Order, error) {
	direction := "price ASC"
	if side == types.SideBuy {
		direction = "price DESC"
	}

	var orders []*models.Order
	err := t.locking().
		Where("symbol = ? AND side = ? AND type = ? AND status IN ?", symbol, side, types.TypeLimit, types.OpenStatuses).
		Order(direction).
		Order("created_at ASC").
		Order("id ASC").
		Find(&orders).Error

	return orders, err
}

func (t *Tx) OrdersByUser(userID int64, limit int) ([]*models.Order, error) {
	tx := t.db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var orders []*models.Order
	return orders, tx.Find(&orders).Error
}

func (t *Tx) CountOrdersSince(userID int64, since time.Time) (int64, error) {
	var count int64
	err := t.db.Model(&models.Order{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error

	return count, err
}

func (t *Tx) CreateTrade(trade *models.Trade) error {
	return t.db.Create(trade).Error
}

func (t *Tx) RecentTrades(symbol string, limit int) ([]*models.Trade, error) {
	tx := t.db.Where("symbol = ?", symbol).Order("executed_at DESC").Order("id DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var trades []*models.Trade
	return trades, tx.Find(&trades).Error
}

func (t *Tx) TradesSince(symbol string, since time.Time) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := t.db.
		Where("symbol = ? AND executed_at >= ?", symbol, since).
		Order("executed_at DESC").
		Order("id DESC").
		Find(&trades).Error

	return trades, err
}

func (t *Tx) UserVolumeSince(userID int64, since time.Time) (decimal.Decimal, error) {
	var volume decimal.NullDecimal

	row := t.db.Model(&models.Trade{}).
		Select("SUM(total)").
		Where("(buyer_id = ? OR seller_id = ?) AND executed_at >= ?", userID, userID, since).
		Row()

	if err := row.Scan(&volume); err != nil {
		return decimal.Zero, err
	}

	if !volume.Valid {
		return decimal.Zero, nil
	}

	return volume.Decimal, nil
}

func (t *Tx) CreateRiskEvent(event *models.RiskEvent) error {
	return t.db.Create(event).Error
}

func (t *Tx) FindRiskEvent(id int64) (*models.RiskEvent, error) {
	var event models.RiskEvent
	if err := t.db.First(&event, id).Error; err != nil {
		return nil, notFound(err)
	}

	return &event, nil
}

func (t *Tx) SaveRiskEvent(event *models.RiskEvent) error {
	return t.db.Save(event).Error
}

func (t *Tx) UnresolvedRiskEvents(limit int) ([]*models.RiskEvent, error) {
	tx := t.db.Where("resolved = ?", false).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var events []*models.RiskEvent
	return events, tx.Find(&events).Error
}
