// Package kafka publishes lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/IBM/sarama"
	"github.com/labstack/gommon/log"
	"nutricare/cmd/internal/events"
)

type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "nutricare"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	return cfg
}

func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, fmt.Errorf("connect to kafka brokers %v: %w", brokers, err)
	}
	return WithProducer(producer, topic), nil
}

func WithProducer(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

// Publish sends evt keyed by its client/consultant pair, so events of one
// pair keep their order within a partition.
func (p *Publisher) Publish(_ context.Context, evt events.Event) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Type, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(evt.Key()),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(evt.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s event: %w", evt.Type, err)
	}

	log.Debugf("event %s sent to partition %d at offset %d", evt.ID, partition, offset)
	return nil
}

func (p *Publisher) Close() error {
	return p.producer.Close()
}
