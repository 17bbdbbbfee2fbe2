package matching

import (
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/shopspring/decimal"

	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/types"
)

const DefaultDepthLimit = 20

type Level struct {
	Price         decimal.Decimal `json:"price"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	OrderCount    int             `json:"order_count"`
}

type OrderBook struct {
	Symbol   string  `json:"symbol"`
	Bids     []Level `json:"bids"`
	Asks     []Level `json:"asks"`
	Sequence uint64  `json:"sequence"`
}

// Depth is the display copy of the resting orders of a symbol. It is
// refreshed after every committed cascade and is never read by matching.
type Depth struct {
	depthMutex sync.RWMutex

	Symbol   string
	Asks     *redblacktree.Tree
	Bids     *redblacktree.Tree
	Sequence uint64
}

func NewDepth(symbol string) *Depth {
	return &Depth{
		Symbol: symbol,
		Asks:   redblacktree.NewWith(makeComparator),
		Bids:   redblacktree.NewWith(makeComparator),
	}
}

func (d *Depth) priceLevels(side types.OrderSide) *redblacktree.Tree {
	if side == types.SideSell {
		return d.Asks
	}

	return d.Bids
}

func (d *Depth) remove(o *models.Order) {
	price_levels := d.priceLevels(o.Side)
	pl := NewPriceLevel(o.Side, o.Price.Decimal)

	value, found := price_levels.Get(pl.Key())
	if !found {
		return
	}

	price_level := value.(*PriceLevel)
	price_level.Remove(o.ID)

	if price_level.Empty() || price_level.Total().IsZero() {
		price_levels.Remove(pl.Key())
	}
}

func (d *Depth) add(o *models.Order) {
	price_levels := d.priceLevels(o.Side)
	pl := NewPriceLevel(o.Side, o.Price.Decimal)

	value, found := price_levels.Get(pl.Key())
	if !found {
		pl.Add(o)
		price_levels.Put(pl.Key(), pl)
		return
	}

	value.(*PriceLevel).Add(o)
}

// Apply brings the depth in line with the committed state of the orders:
// resting orders are upserted, everything else is dropped.
func (d *Depth) Apply(orders ...*models.Order) {
	d.depthMutex.Lock()
	defer d.depthMutex.Unlock()

	for _, o := range orders {
		if !o.Price.Valid {
			continue
		}

		if o.Resting() {
			snapshot := *o
			d.add(&snapshot)
		} else {
			d.remove(o)
		}
	}

	d.Sequence++
}

// Reset rebuilds the depth from a full set of resting orders.
func (d *Depth) Reset(orders []*models.Order) {
	d.depthMutex.Lock()
	defer d.depthMutex.Unlock()

	d.Asks = redblacktree.NewWith(makeComparator)
	d.Bids = redblacktree.NewWith(makeComparator)

	for _, o := range orders {
		if o.Resting() {
			d.add(o)
		}
	}

	d.Sequence++
}

func fetchLevels(price_levels *redblacktree.Tree, limit int) []Level {
	levels := make([]Level, 0)

	it := price_levels.Iterator()
	it.End()
	for i := 0; it.Prev() && i < limit; i++ {
		price_level := it.Value().(*PriceLevel)

		levels = append(levels, Level{
			Price:         price_level.Price,
			TotalQuantity: price_level.Total(),
			OrderCount:    price_level.Size(),
		})
	}

	return levels
}

// FetchOrderBook aggregates the best limit levels of each side, best price
// first.
func (d *Depth) FetchOrderBook(limit int) *OrderBook {
	d.depthMutex.RLock()
	defer d.depthMutex.RUnlock()

	if limit <= 0 {
		limit = DefaultDepthLimit
	}

	return &OrderBook{
		Symbol:   d.Symbol,
		Asks:     fetchLevels(d.Asks, limit),
		Bids:     fetchLevels(d.Bids, limit),
		Sequence: d.Sequence,
	}
}

// makeComparator sorts the best price last on both sides so that a reverse
// walk from End() yields price priority.
func makeComparator(a, b interface{}) int {
	aPriceLevel := a.(*PriceLevelKey)
	bPriceLevel := b.(*PriceLevelKey)

	switch {
	case aPriceLevel.Side == types.SideSell && aPriceLevel.Price.LessThan(bPriceLevel.Price):
		return 1

	case aPriceLevel.Side == types.SideSell && aPriceLevel.Price.GreaterThan(bPriceLevel.Price):
		return -1

	case aPriceLevel.Side == types.SideBuy && aPriceLevel.Price.LessThan(bPriceLevel.Price):
		return -1

	case aPriceLevel.Side == types.SideBuy && aPriceLevel.Price.GreaterThan(bPriceLevel.Price):
		return 1

	default:
		return 0
	}
}
