package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

const defaultProducerRetries = 5

// ProducerConfig — настройки подключения продюсера событий.
type ProducerConfig struct {
	Brokers []string
	// MaxRetries <= 0 означает значение по умолчанию.
	MaxRetries int
}

// Producer публикует доменные события CreditService в Kafka.
// События покупок и леджера уходят в разные топики; ключ партиции
// выбирается так, чтобы события одной сущности сохраняли порядок.
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewProducer создает синхронный идемпотентный producer.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultProducerRetries
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = retries
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // требование идемпотентности

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		logger:   log.WithField("component", "kafka-producer"),
	}, nil
}

// PublishPurchaseEvent публикует событие жизненного цикла покупки.
// Ключ — ID покупки: все события одной покупки попадают в одну партицию.
func (p *Producer) PublishPurchaseEvent(event *PurchaseEvent) error {
	return p.publish(TopicPurchaseEvents, event.PurchaseID, event.EventType, event)
}

// PublishCreditEvent публикует событие кредитного леджера.
// Ключ — ID клиента: события леджера клиента упорядочены между собой.
func (p *Producer) PublishCreditEvent(event *CreditEvent) error {
	return p.publish(TopicCreditEvents, event.CustomerID, event.EventType, event)
}

func (p *Producer) publish(topic, key string, eventType EventType, event interface{}) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(eventData),
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"topic":      topic,
			"key":        key,
			"event_type": eventType,
		}).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"topic":      topic,
		"key":        key,
		"event_type": eventType,
		"partition":  partition,
		"offset":     offset,
	}).Debug("message sent to kafka")

	return nil
}

// Close закрывает producer
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}
