// Package notify holds the sinks committed cascades are published to.
package notify

import (
	"github.com/zsmartex/tradecore/matching"
	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/mq_client"
)

type KafkaSink struct {
	producer *mq_client.Producer
}

func NewKafkaSink(producer *mq_client.Producer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) PublishTrade(trade *models.Trade) error {
	return s.producer.Enqueue("trade", trade.Symbol, trade)
}

func (s *KafkaSink) PublishOrderBookUpdate(book *matching.OrderBook) error {
	return s.producer.Enqueue("orderbook", book.Symbol, book)
}
