package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/reviewflow/internal/clients/kafka_client"
	"github.com/spacesedan/reviewflow/internal/models"
)

// eventSource is what EventsCommand needs from kafka_client.EventConsumer.
type eventSource interface {
	Next(ctx context.Context) (*models.PipelineEvent, *kafka.Message, error)
	Commit(msg *kafka.Message) error
	Close() error
}

// Execute implements the go-flags Commander interface for EventsCommand.
func (c *EventsCommand) Execute(_ []string) error {
	kcfg := kafkaConfig(&c.globals.Config)
	if !kcfg.Enabled() {
		return fmt.Errorf("--kafka-broker is required for the events command")
	}

	consumer, err := kafka_client.NewEventConsumer(kcfg, c.FromBeginning)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.run(ctx, consumer)
}

func (c *EventsCommand) run(ctx context.Context, src eventSource) error {
	w := writerOr(c.out)
	for seen := 0; c.Max == 0 || seen < c.Max; seen++ {
		event, msg, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if c.globals.JSON {
			if err := encodeJSON(w, event); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(w, "%s  %-16s %q items=%d\n",
				event.OccurredAt.Format(time.RFC3339), event.Type, event.QueryKey, event.ItemCount)
		}

		if err := src.Commit(msg); err != nil {
			return err
		}
	}
	return nil
}
