package kafka_client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/reviewflow/internal/clients/kafka_client/utils"
	"github.com/spacesedan/reviewflow/internal/models"
)

// EventConsumer reads pipeline events committed by Producer. Offsets are
// committed by the caller once an event has been handled.
type EventConsumer struct {
	consumer *kafka.Consumer
	topic    string
}

func NewEventConsumer(cfg KafkaConfig, fromBeginning bool) (*EventConsumer, error) {
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = KAFKA_DEFAULT_GROUP_ID
	}
	offsetReset := "latest"
	if fromBeginning {
		offsetReset = "earliest"
	}

	slog.Info("[KafkaClient] Initializing Kafka Consumer...",
		slog.String("broker", cfg.Broker),
		slog.String("group_id", groupID),
		slog.String("topic", cfg.topic()))

	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  cfg.Broker,
		"group.id":           groupID,
		"auto.offset.reset":  offsetReset,
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create consumer: %w", err)
	}

	if err := c.SubscribeTopics([]string{cfg.topic()}, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to subscribe to %s: %w", cfg.topic(), err)
	}

	slog.Info("[KafkaClient] Kafka Consumer initialized successfully")
	return &EventConsumer{consumer: c, topic: cfg.topic()}, nil
}

// Next blocks until an event arrives or ctx is done. Messages that are not
// pipeline events are committed and skipped.
func (ec *EventConsumer) Next(ctx context.Context) (*models.PipelineEvent, *kafka.Message, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		msg, err := ec.consumer.ReadMessage(POLL_TIMEOUT)
		if err != nil {
			var kafkaErr kafka.Error
			if errors.As(err, &kafkaErr) {
				switch kafkaErr.Code() {
				case kafka.ErrTimedOut:
					continue
				case kafka.ErrAllBrokersDown:
					slog.Error("[KafkaConsumer] All Kafka brokers are down. Aborting")
					return nil, nil, err
				}
			}
			return nil, nil, fmt.Errorf("[KafkaConsumer] read: %w", err)
		}

		event, err := utils.DeserializeFromJSON[models.PipelineEvent](msg.Value)
		if err != nil || event.Type == "" {
			slog.Warn("[KafkaConsumer] Skipping message that is not a pipeline event",
				slog.String("key", string(msg.Key)),
				slog.Any("offset", msg.TopicPartition.Offset))
			if err := ec.Commit(msg); err != nil {
				return nil, nil, err
			}
			continue
		}
		return event, msg, nil
	}
}

func (ec *EventConsumer) Commit(msg *kafka.Message) error {
	if _, err := ec.consumer.CommitMessage(msg); err != nil {
		slog.Warn("[KafkaConsumer] Failed to commit offset",
			slog.String("error", err.Error()),
			slog.Int("partition", int(msg.TopicPartition.Partition)),
			slog.Any("offset", msg.TopicPartition.Offset))
		return fmt.Errorf("[KafkaConsumer] commit: %w", err)
	}
	return nil
}

func (ec *EventConsumer) Close() error {
	slog.Info("[KafkaConsumer] Closing consumer", slog.String("topic", ec.topic))
	return ec.consumer.Close()
}
