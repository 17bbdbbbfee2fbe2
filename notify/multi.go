package notify

import (
	"errors"

	"github.com/zsmartex/tradecore/matching"
	"github.com/zsmartex/tradecore/models"
)

// Multi fans every event out to all sinks. A failing sink does not stop
// the others.
type Multi []matching.Sink

func (m Multi) PublishTrade(trade *models.Trade) error {
	errs := make([]error, 0)
	for _, sink := range m {
		if err := sink.PublishTrade(trade); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m Multi) PublishOrderBookUpdate(book *matching.OrderBook) error {
	errs := make([]error, 0)
	for _, sink := range m {
		if err := sink.PublishOrderBookUpdate(book); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
