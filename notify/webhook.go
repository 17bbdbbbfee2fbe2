package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/zsmartex/tradecore/matching"
	"github.com/zsmartex/tradecore/models"
)

// WebhookSink posts order book updates to URL and trades to URL/trade.
type WebhookSink struct {
	URL     string
	Timeout time.Duration
}

type orderBookHook struct {
	Symbol   string `json:"symbol"`
	Sequence uint64 `json:"sequence"`
}

func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	return &WebhookSink{
		URL:     strings.TrimRight(url, "/"),
		Timeout: timeout,
	}
}

func (s *WebhookSink) post(url string, payload interface{}) error {
	agent := fiber.Post(url).JSON(payload)
	if s.Timeout > 0 {
		agent.Timeout(s.Timeout)
	}

	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("webhook %s answered %d", url, code)
	}

	return nil
}

func (s *WebhookSink) PublishTrade(trade *models.Trade) error {
	return s.post(s.URL+"/trade", trade)
}

func (s *WebhookSink) PublishOrderBookUpdate(book *matching.OrderBook) error {
	return s.post(s.URL, orderBookHook{Symbol: book.Symbol, Sequence: book.Sequence})
}
