package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/types"
)

type OrderEntity struct {
	ID              int64               `json:"id"`
	UUID            uuid.UUID           `json:"uuid"`
	Market          string              `json:"market"`
	Side            types.OrderSide     `json:"side"`
	OrdType         types.OrderType     `json:"ord_type"`
	Price           decimal.NullDecimal `json:"price"`
	State           types.OrderStatus   `json:"state"`
	OriginVolume    decimal.Decimal     `json:"origin_volume"`
	RemainingVolume decimal.Decimal     `json:"remaining_volume"`
	ExecutedVolume  decimal.Decimal     `json:"executed_volume"`
	Locked          decimal.Decimal     `json:"locked"`
	TradesCount     int64               `json:"trades_count"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func OrderToEntity(order *models.Order) OrderEntity {
	return OrderEntity{
		ID:              order.ID,
		UUID:            order.UUID,
		Market:          order.Symbol,
		Side:            order.Side,
		OrdType:         order.Type,
		Price:           order.Price,
		State:           order.Status,
		OriginVolume:    order.Quantity,
		RemainingVolume: order.Remaining(),
		ExecutedVolume:  order.FilledQuantity,
		Locked:          order.Locked,
		TradesCount:     order.TradesCount,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func OrdersToEntities(orders []*models.Order) []OrderEntity {
	orders_json := make([]OrderEntity, 0, len(orders))
	for _, order := range orders {
		orders_json = append(orders_json, OrderToEntity(order))
	}

	return orders_json
}
