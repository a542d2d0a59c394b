package kafka_client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/reviewflow/internal/clients/kafka_client/utils"
)

// transactionalProducer is the part of *kafka.Producer that Publish drives.
type transactionalProducer interface {
	BeginTransaction() error
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	CommitTransaction(ctx context.Context) error
	AbortTransaction(ctx context.Context) error
	Flush(timeoutMs int) int
	Close()
}

type Producer struct {
	producer transactionalProducer
	topic    string
}

func NewProducer(cfg KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...", slog.String("broker", cfg.Broker))

	txnID := cfg.TransactionID
	if txnID == "" {
		txnID = "reviewflow-producer-1"
	}
	topic := cfg.topic()

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      txnID,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), TXN_TIMEOUT)
	defer cancel()
	if err := p.InitTransactions(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully", slog.String("topic", topic))
	return &Producer{producer: p, topic: topic}, nil
}

// Publish writes one keyed JSON message inside its own transaction. Once a
// transaction is open it is always committed or aborted on a context of its
// own, so a cancelled request cannot leave it dangling.
func (p *Producer) Publish(ctx context.Context, key string, value any) error {
	data, err := utils.SerializeToJSON(value)
	if err != nil {
		return err
	}

	if err := p.producer.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaClient] failed to begin transaction: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          data,
	}

	txnCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), TXN_TIMEOUT)
	defer cancel()

	// a failed notification is dropped, never retried
	if err := p.producer.Produce(msg, nil); err != nil {
		return p.abort(fmt.Errorf("[KafkaClient] failed to produce message: %w", err))
	}

	if err := p.producer.CommitTransaction(txnCtx); err != nil {
		return p.abort(fmt.Errorf("[KafkaClient] failed to commit transaction: %w", err))
	}

	slog.Info("[KafkaClient] Published event transactionally",
		slog.String("topic", p.topic),
		slog.String("key", key))
	return nil
}

// abort rolls back the open transaction so the next Publish can begin one.
func (p *Producer) abort(cause error) error {
	abortCtx, cancel := context.WithTimeout(context.Background(), TXN_TIMEOUT)
	defer cancel()

	if err := p.producer.AbortTransaction(abortCtx); err != nil {
		slog.Error("[KafkaClient] Failed to abort transaction",
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()))
		return errors.Join(cause, fmt.Errorf("[KafkaClient] failed to abort transaction: %w", err))
	}
	return cause
}

func (p *Producer) Close() {
	slog.Info("[KafkaClient] Shutting down Kafka producer...")
	if remaining := p.producer.Flush(FLUSH_TIMEOUT_MS); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}
