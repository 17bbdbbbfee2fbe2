package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/types"
)

type PriceLevel struct {
	Side   types.OrderSide
	Price  decimal.Decimal
	Orders []*models.Order
}

type PriceLevelKey struct {
	Side  types.OrderSide
	Price decimal.Decimal
}

func NewPriceLevel(side types.OrderSide, price decimal.Decimal) *PriceLevel {
	return &PriceLevel{
		Side:   side,
		Price:  price,
		Orders: make([]*models.Order, 0),
	}
}

func (p *PriceLevel) Key() *PriceLevelKey {
	return &PriceLevelKey{
		Side:  p.Side,
		Price: p.Price,
	}
}

// Add inserts the order or replaces the copy the level already holds.
func (p *PriceLevel) Add(order *models.Order) {
	for i, o := range p.Orders {
		if o.ID == order.ID {
			p.Orders[i] = order
			return
		}
	}

	p.Orders = append(p.Orders, order)
	sort.Slice(p.Orders, func(i, j int) bool {
		return p.Orders[i].ID < p.Orders[j].ID
	})
}

func (p *PriceLevel) Remove(id int64) {
	for index, o := range p.Orders {
		if o.ID == id {
			p.Orders = append(p.Orders[:index], p.Orders[index+1:]...)
			return
		}
	}
}

func (p *PriceLevel) Empty() bool {
	return len(p.Orders) == 0
}

func (p *PriceLevel) Size() int {
	return len(p.Orders)
}

func (p *PriceLevel) Total() decimal.Decimal {
	total := decimal.Zero

	for _, order := range p.Orders {
		total = total.Add(order.Remaining())
	}

	return total
}
