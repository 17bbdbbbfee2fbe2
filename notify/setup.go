package notify

import (
	"github.com/zsmartex/tradecore/config"
	"github.com/zsmartex/tradecore/matching"
	"github.com/zsmartex/tradecore/mq_client"
)

// FromConfig builds the sink of every enabled notifier. The returned close
// function releases their connections.
func FromConfig(cfg config.NotifyConfig) (matching.Sink, func(), error) {
	sinks := make(Multi, 0)
	closers := make([]func() error, 0)

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				config.Logger.Errorf("Failed to close notifier: %v", err)
			}
		}
	}

	if cfg.Kafka.Enabled {
		mqConfig, err := mq_client.LoadConfig(cfg.Kafka.Topics)
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		producer, err := mq_client.Connect(cfg.Kafka.Brokers, mqConfig)
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		sinks = append(sinks, NewKafkaSink(producer))
		closers = append(closers, producer.Close)
		config.Logger.Infof("Publishing to kafka brokers %v", cfg.Kafka.Brokers)
	}

	if cfg.Influx.Enabled {
		influx, err := config.NewInfluxDB(cfg.Influx)
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		sinks = append(sinks, NewInfluxSink(influx))
		closers = append(closers, influx.Close)
		config.Logger.Infof("Writing trades to influxdb %s", cfg.Influx.URL)
	}

	if cfg.Webhook.Enabled {
		sinks = append(sinks, NewWebhookSink(cfg.Webhook.URL, cfg.Webhook.Timeout))
		config.Logger.Infof("Posting order book updates to %s", cfg.Webhook.URL)
	}

	if len(sinks) == 0 {
		return matching.NopSink{}, closeAll, nil
	}

	return sinks, closeAll, nil
}
