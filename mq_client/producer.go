package mq_client

import (
	"encoding/json"

	"github.com/IBM/sarama"
)

type Producer struct {
	producer sarama.SyncProducer
	cfg      *MQClientConfig
}

func NewSaramaConfig(cfg *MQClientConfig) *sarama.Config {
	c := sarama.NewConfig()
	c.Producer.Return.Successes = true
	c.Producer.RequiredAcks = sarama.WaitForAll
	c.Producer.Retry.Max = 5
	if cfg.Producer.Retry > 0 {
		c.Producer.Retry.Max = cfg.Producer.Retry
	}
	if cfg.Producer.ClientID != "" {
		c.ClientID = cfg.Producer.ClientID
	}

	return c
}

func Connect(brokers []string, cfg *MQClientConfig) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewSaramaConfig(cfg))
	if err != nil {
		return nil, err
	}

	return NewProducer(producer, cfg), nil
}

func NewProducer(producer sarama.SyncProducer, cfg *MQClientConfig) *Producer {
	return &Producer{
		producer: producer,
		cfg:      cfg,
	}
}

// Enqueue publishes payload as JSON to the topic registered under id.
func (p *Producer) Enqueue(id string, key string, payload interface{}) error {
	topic, err := p.cfg.GetTopic(id)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic.Name,
		Value: sarama.ByteEncoder(body),
	}
	if topic.Key == "symbol" && key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	_, _, err = p.producer.SendMessage(msg)

	return err
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
