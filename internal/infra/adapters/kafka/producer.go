package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"digital-storefront/internal/config"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/infra/metrics"
)

// Producer publishes storefront events to a Kafka topic keyed by order or session,
// so all events of one order land on the same partition.
type Producer struct {
	producer sarama.AsyncProducer
	topic    string
	log      *zerolog.Logger
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

var ErrProducerClosed = errors.New("kafka producer closed")

func NewProducer(cfg config.KafkaConfig, logger *zerolog.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: brokers and topic are required")
	}
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Compression = sarama.CompressionSnappy
	sc.Producer.Flush.Frequency = 500 * time.Millisecond
	sc.Producer.Retry.Max = 5

	ap, err := sarama.NewAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("start kafka producer: %w", err)
	}
	return newProducer(ap, cfg.Topic, logger), nil
}

func newProducer(ap sarama.AsyncProducer, topic string, logger *zerolog.Logger) *Producer {
	p := &Producer{producer: ap, topic: topic, log: logger, done: make(chan struct{})}
	go p.drainErrors()
	return p
}

func (p *Producer) drainErrors() {
	defer close(p.done)
	for err := range p.producer.Errors() {
		metrics.IncEventPublished("kafka_delivery", "error")
		p.log.Error().Err(err.Err).Str("topic", err.Msg.Topic).Msg("kafka delivery failed")
	}
}

func (p *Producer) Name() string { return "kafka" }

// Handle enqueues the event. Delivery is asynchronous; broker failures are
// logged from the error channel.
func (p *Producer) Handle(ctx context.Context, e model.Event) error {
	bytes, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(e.Key()),
		Value: sarama.ByteEncoder(bytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(e.Type)},
		},
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes buffered messages and waits for the error drain to finish.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.producer.Close()
	<-p.done
	return err
}
