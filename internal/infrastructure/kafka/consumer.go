package kafka

import (
	"context"
	"fmt"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/kafka/consumer"
	"github.com/segmentio/kafka-go"
)

type IntentConsumer struct {
	*consumer.Consumer
}

func NewIntentConsumer(consumer *consumer.Consumer) *IntentConsumer {
	return &IntentConsumer{consumer}
}

func (ic *IntentConsumer) ReadIntent(ctx context.Context) (kafka.Message, error) {
	msg, err := ic.Reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("IntentConsumer - ReadIntent - ic.Reader.FetchMessage: %w", err)
	}

	return msg, nil
}

func (ic *IntentConsumer) CommitIntent(ctx context.Context, msg kafka.Message) error {
	err := ic.Reader.CommitMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("IntentConsumer - CommitIntent - ic.Reader.CommitMessages: %w", err)
	}

	return nil
}

func (ic *IntentConsumer) Close() error {
	err := ic.Consumer.Close()
	if err != nil {
		return fmt.Errorf("IntentConsumer - Close: %w", err)
	}

	return nil
}
