package mq_client

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/suite"
)

const topics = `
topic:
  trade:
    name: trades
    key: symbol
  orderbook:
    name: books
producer:
  retry: 3
`

type suiteProducerTester struct {
	suite.Suite
	cfg *MQClientConfig
}

func (s *suiteProducerTester) SetupTest() {
	cfg, err := ParseConfig([]byte(topics))
	s.Require().NoError(err)
	s.cfg = cfg
}

func (s *suiteProducerTester) TestParseConfig() {
	s.Equal("trades", s.cfg.Topic.Trade.Name)
	s.Equal("books", s.cfg.Topic.Orderbook.Name)
	s.Equal(3, NewSaramaConfig(s.cfg).Producer.Retry.Max)

	_, err := ParseConfig([]byte("topic:\n  trade:\n    name: trades\n"))
	s.Error(err)

	_, err = s.cfg.GetTopic("withdraw")
	s.Error(err)
}

func (s *suiteProducerTester) TestLoadConfigFile() {
	cfg, err := LoadConfig("../config/mq.yml")
	s.Require().NoError(err)
	s.Equal("tradecore.trades", cfg.Topic.Trade.Name)
}

func (s *suiteProducerTester) TestEnqueue() {
	sp := mocks.NewSyncProducer(s.T(), nil)
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "trades" {
			return errors.New("unexpected topic " + msg.Topic)
		}

		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "BTC/USDT" {
			return errors.New("unexpected key " + string(key))
		}

		return nil
	})
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Key != nil {
			return errors.New("orderbook messages are not keyed")
		}

		body, err := msg.Value.Encode()
		if err != nil {
			return err
		}

		var payload map[string]int
		return json.Unmarshal(body, &payload)
	})

	producer := NewProducer(sp, s.cfg)
	s.NoError(producer.Enqueue("trade", "BTC/USDT", map[string]int{"id": 1}))
	s.NoError(producer.Enqueue("orderbook", "BTC/USDT", map[string]int{"sequence": 2}))
	s.Error(producer.Enqueue("unknown", "", nil))
	s.NoError(producer.Close())
}

func (s *suiteProducerTester) TestEnqueueFailure() {
	sp := mocks.NewSyncProducer(s.T(), nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := NewProducer(sp, s.cfg)
	s.ErrorIs(producer.Enqueue("trade", "BTC/USDT", 1), sarama.ErrOutOfBrokers)
	s.NoError(producer.Close())
}

func TestProducer(t *testing.T) {
	suite.Run(t, new(suiteProducerTester))
}
