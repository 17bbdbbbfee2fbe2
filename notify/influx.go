package notify

import (
	"time"

	"github.com/zsmartex/tradecore/matching"
	"github.com/zsmartex/tradecore/models"
)

// PointWriter is implemented by config.InfluxClient.
type PointWriter interface {
	NewPoint(name string, tags map[string]string, fields map[string]interface{}, at time.Time) error
}

type InfluxSink struct {
	writer PointWriter
}

func NewInfluxSink(writer PointWriter) *InfluxSink {
	return &InfluxSink{writer: writer}
}

func (s *InfluxSink) PublishTrade(trade *models.Trade) error {
	price, _ := trade.Price.Float64()
	quantity, _ := trade.Quantity.Float64()
	total, _ := trade.Total.Float64()

	tags := map[string]string{"market": trade.Symbol}
	fields := map[string]interface{}{
		"id":         trade.ID,
		"price":      price,
		"amount":     quantity,
		"total":      total,
		"taker_type": string(trade.TakerSide),
	}

	return s.writer.NewPoint("trades", tags, fields, trade.ExecutedAt)
}

func (s *InfluxSink) PublishOrderBookUpdate(book *matching.OrderBook) error {
	tags := map[string]string{"market": book.Symbol}
	fields := map[string]interface{}{
		"sequence": int64(book.Sequence),
		"bids":     len(book.Bids),
		"asks":     len(book.Asks),
	}

	return s.writer.NewPoint("depth", tags, fields, time.Now())
}
