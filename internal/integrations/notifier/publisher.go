package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

// DefaultTopic топик событий бронирования
const DefaultTopic = "shuttle-booking-events"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Publisher публикует события бронирования в Kafka
// В режиме logOnly сообщения только пишутся в лог
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
	logOnly  bool
	logger   Logger
}

// NewKafkaPublisher подключается к брокерам и создает синхронного продюсера
func NewKafkaPublisher(brokers []string, topic string, logger Logger) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}

	logger.Info("Notifier: connected to Kafka brokers %v, topic=%s", brokers, topic)
	return NewPublisher(producer, topic, logger), nil
}

// NewPublisher создает публикатор поверх готового продюсера (используется в тестах с sarama/mocks)
func NewPublisher(producer sarama.SyncProducer, topic string, logger Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: producer, topic: topic, logger: logger}
}

// NewLogPublisher создает публикатор, который только логирует события
func NewLogPublisher(logger Logger) *Publisher {
	logger.Info("Notifier: running in log-only mode, Kafka is disabled")
	return &Publisher{topic: DefaultTopic, logOnly: true, logger: logger}
}

// Publish отправляет событие; ctx не прерывает отправку, таймауты задаются конфигурацией sarama
func (p *Publisher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarshal, err)
	}

	if p.logOnly {
		p.logger.Info("Notifier: %s %s", event.Type, string(data))
		return nil
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.key()),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublish, event.Type, err)
	}

	p.logger.Info("Notifier: %s for employee=%s sent to partition %d at offset %d", event.Type, event.EmployeeID, partition, offset)
	return nil
}

// Close закрывает продюсера
func (p *Publisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
