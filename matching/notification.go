package matching

import (
	"sync"

	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/models"
)

// NotificationBuffer is how many committed cascades may wait for the sink
// before Publish blocks.
const NotificationBuffer = 4096

// Sink receives the events of committed cascades. Delivery is best effort:
// an error is logged and never undoes the cascade.
type Sink interface {
	PublishTrade(trade *models.Trade) error
	PublishOrderBookUpdate(book *OrderBook) error
}

type NopSink struct{}

func (NopSink) PublishTrade(*models.Trade) error        { return nil }
func (NopSink) PublishOrderBookUpdate(*OrderBook) error { return nil }

type event struct {
	trades  []*models.Trade
	book    *OrderBook
	flushed chan struct{}
}

// Notification delivers the events of one symbol on its own goroutine, in
// the order the cascades committed.
type Notification struct {
	Symbol string
	sink   Sink

	mu     sync.RWMutex
	closed bool
	events chan event
	done   chan struct{}
}

func NewNotification(symbol string, sink Sink) *Notification {
	if sink == nil {
		sink = NopSink{}
	}

	n := &Notification{
		Symbol: symbol,
		sink:   sink,
		events: make(chan event, NotificationBuffer),
		done:   make(chan struct{}),
	}

	go n.run()

	return n
}

func (n *Notification) run() {
	defer close(n.done)

	for ev := range n.events {
		if ev.flushed != nil {
			close(ev.flushed)
			continue
		}

		n.publishTrades(ev.trades)
		if ev.book != nil {
			n.publishOrderBook(ev.book)
		}
	}
}

func (n *Notification) enqueue(ev event) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return false
	}

	n.events <- ev
	return true
}

// Publish queues the trades and the book snapshot of a committed cascade.
// It returns before the sink is called.
func (n *Notification) Publish(trades []*models.Trade, book *OrderBook) {
	if !n.enqueue(event{trades: trades, book: book}) {
		config.Logger.Warnf("Dropped %d trades of %s: notification closed", len(trades), n.Symbol)
	}
}

// Flush waits until every event queued before it reached the sink.
func (n *Notification) Flush() {
	flushed := make(chan struct{})
	if n.enqueue(event{flushed: flushed}) {
		<-flushed
	}
}

// Close delivers what is queued and stops the delivery goroutine.
func (n *Notification) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.events)
	}
	n.mu.Unlock()

	<-n.done
}

func (n *Notification) publishTrades(trades []*models.Trade) {
	for _, trade := range trades {
		if err := n.sink.PublishTrade(trade); err != nil {
			config.Logger.Errorf("Failed to publish trade %d of %s: %v", trade.ID, n.Symbol, err)
		}
	}
}

func (n *Notification) publishOrderBook(book *OrderBook) {
	if err := n.sink.PublishOrderBookUpdate(book); err != nil {
		config.Logger.Errorf("Failed to publish order book of %s: %v", n.Symbol, err)
	}
}
