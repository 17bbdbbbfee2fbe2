package mq_client

type Topic struct {
	Name string `yaml:"name"`
	// Key selects the message key: "symbol" or empty for none.
	Key string `yaml:"key"`
}

type MQClientConfig struct {
	Topic struct {
		Trade     Topic `yaml:"trade"`
		Orderbook Topic `yaml:"orderbook"`
	} `yaml:"topic"`
	Producer struct {
		Retry    int    `yaml:"retry"`
		ClientID string `yaml:"client_id"`
	} `yaml:"producer"`
}
