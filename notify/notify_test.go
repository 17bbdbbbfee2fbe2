package notify

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/matching"
	"github.com/zsmartex/tradecore/models"
	"github.com/zsmartex/tradecore/mq_client"
	"github.com/zsmartex/tradecore/types"
)

type point struct {
	name   string
	tags   map[string]string
	fields map[string]interface{}
	at     time.Time
}

type recordingWriter struct {
	points []point
}

func (w *recordingWriter) NewPoint(name string, tags map[string]string, fields map[string]interface{}, at time.Time) error {
	w.points = append(w.points, point{name, tags, fields, at})
	return nil
}

type countingSink struct {
	trades int
	books  int
	err    error
}

func (c *countingSink) PublishTrade(*models.Trade) error {
	c.trades++
	return c.err
}

func (c *countingSink) PublishOrderBookUpdate(*matching.OrderBook) error {
	c.books++
	return c.err
}

type suiteNotifyTester struct {
	suite.Suite
	trade *models.Trade
	book  *matching.OrderBook
}

func (s *suiteNotifyTester) SetupSuite() {
	config.NewLoggerService()
}

func (s *suiteNotifyTester) SetupTest() {
	s.trade = &models.Trade{
		ID:         7,
		Symbol:     "BTC/USDT",
		Price:      decimal.NewFromInt(49000),
		Quantity:   decimal.NewFromInt(1),
		Total:      decimal.NewFromInt(49000),
		TakerSide:  types.SideBuy,
		ExecutedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	s.book = &matching.OrderBook{Symbol: "BTC/USDT", Sequence: 3}
}

func (s *suiteNotifyTester) TestKafkaSink() {
	cfg, err := mq_client.LoadConfig("../config/mq.yml")
	s.Require().NoError(err)

	sp := mocks.NewSyncProducer(s.T(), nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var trade models.Trade
		if err := json.Unmarshal(val, &trade); err != nil {
			return err
		}
		if trade.ID != 7 || !trade.Price.Equal(decimal.NewFromInt(49000)) {
			return errors.New("unexpected trade payload")
		}
		return nil
	})
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var book matching.OrderBook
		if err := json.Unmarshal(val, &book); err != nil {
			return err
		}
		if book.Sequence != 3 {
			return errors.New("unexpected order book payload")
		}
		return nil
	})

	producer := mq_client.NewProducer(sp, cfg)
	sink := NewKafkaSink(producer)
	s.NoError(sink.PublishTrade(s.trade))
	s.NoError(sink.PublishOrderBookUpdate(s.book))
	s.NoError(producer.Close())
}

func (s *suiteNotifyTester) TestInfluxSink() {
	writer := &recordingWriter{}
	sink := NewInfluxSink(writer)

	s.NoError(sink.PublishTrade(s.trade))
	s.NoError(sink.PublishOrderBookUpdate(s.book))

	s.Require().Len(writer.points, 2)
	s.Equal("trades", writer.points[0].name)
	s.Equal("BTC/USDT", writer.points[0].tags["market"])
	s.Equal(49000.0, writer.points[0].fields["price"])
	s.Equal("BUY", writer.points[0].fields["taker_type"])
	s.Equal(s.trade.ExecutedAt, writer.points[0].at)
	s.Equal("depth", writer.points[1].name)
	s.Equal(int64(3), writer.points[1].fields["sequence"])
}

func (s *suiteNotifyTester) TestWebhookSink() {
	var mu sync.Mutex
	bodies := map[string][]byte{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		bodies[r.URL.Path] = body
		mu.Unlock()

		if r.URL.Path == "/down/trade" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL+"/webhook/order-book/", time.Second)
	s.NoError(sink.PublishOrderBookUpdate(s.book))
	s.NoError(sink.PublishTrade(s.trade))

	var hook orderBookHook
	s.Require().NoError(json.Unmarshal(bodies["/webhook/order-book"], &hook))
	s.Equal("BTC/USDT", hook.Symbol)
	s.Equal(uint64(3), hook.Sequence)

	var trade models.Trade
	s.Require().NoError(json.Unmarshal(bodies["/webhook/order-book/trade"], &trade))
	s.Equal(int64(7), trade.ID)

	s.Error(NewWebhookSink(srv.URL+"/down", time.Second).PublishTrade(s.trade))
}

func (s *suiteNotifyTester) TestMultiContinuesAfterFailure() {
	failing := &countingSink{err: errors.New("boom")}
	healthy := &countingSink{}

	sink := Multi{failing, healthy}
	s.Error(sink.PublishTrade(s.trade))
	s.Error(sink.PublishOrderBookUpdate(s.book))

	s.Equal(1, healthy.trades)
	s.Equal(1, healthy.books)
}

func (s *suiteNotifyTester) TestFromConfigWithoutNotifiers() {
	sink, closeAll, err := FromConfig(config.NotifyConfig{})
	s.Require().NoError(err)
	s.IsType(matching.NopSink{}, sink)
	closeAll()
}

func TestNotify(t *testing.T) {
	suite.Run(t, new(suiteNotifyTester))
}
