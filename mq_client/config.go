package mq_client

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v2"
)

func LoadConfig(path string) (*MQClientConfig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseConfig(buf)
}

func ParseConfig(buf []byte) (*MQClientConfig, error) {
	c := &MQClientConfig{}

	if err := yaml.Unmarshal(buf, c); err != nil {
		return nil, err
	}

	if c.Topic.Trade.Name == "" || c.Topic.Orderbook.Name == "" {
		return nil, fmt.Errorf("mq config: trade and orderbook topics are required")
	}

	return c, nil
}

func (c *MQClientConfig) GetTopic(id string) (Topic, error) {
	topic := FindElementStruct(&c.Topic, "yaml", id)
	if topic == nil {
		return Topic{}, fmt.Errorf("mq config: unknown topic %q", id)
	}

	return topic.(Topic), nil
}

func FindElementStruct(i interface{}, tag_name string, tag_value string) interface{} {
	e := reflect.ValueOf(i).Elem()

	for i := 0; i < e.NumField(); i++ {
		valueField := e.Field(i)
		typeField := e.Type().Field(i)
		Tag := typeField.Tag

		if tag_value == Tag.Get(tag_name) {
			return valueField.Interface()
		}
	}

	return nil
}
