package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

const HeaderIntentID = "intent_id"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type IntentProducer struct {
	*producer.Producer
	writer messageWriter
	topic  string
}

func NewIntentProducer(producer *producer.Producer, topic string) *IntentProducer {
	return &IntentProducer{
		Producer: producer,
		writer:   producer.Writer,
		topic:    topic,
	}
}

// SendIntents publishes one message per intent keyed by the intent id, so
// redeliveries of the same intent land on the same partition.
func (ip *IntentProducer) SendIntents(ctx context.Context, intents []*entity.CleanupIntent) error {
	msgs, err := ip.messages(intents)
	if err != nil {
		return fmt.Errorf("IntentProducer - SendIntents: %w", err)
	}

	if len(msgs) == 0 {
		return nil
	}

	err = ip.writer.WriteMessages(ctx, msgs...)
	if err != nil {
		return fmt.Errorf("IntentProducer - SendIntents - ip.writer.WriteMessages: %w", err)
	}

	return nil
}

func (ip *IntentProducer) messages(intents []*entity.CleanupIntent) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(intents))

	for _, intent := range intents {
		value, err := json.Marshal(dto.NewIntentMessage(intent))
		if err != nil {
			return nil, fmt.Errorf("json.Marshal intent %s: %w", intent.ID, err)
		}

		id := []byte(intent.ID.String())
		msgs = append(msgs, kafka.Message{
			Topic: ip.topic,
			Key:   id,
			Value: value,
			Headers: []kafka.Header{
				{Key: HeaderIntentID, Value: id},
			},
		})
	}

	return msgs, nil
}

func (ip *IntentProducer) Close() error {
	if ip.Producer == nil {
		return nil
	}

	err := ip.Producer.Close()
	if err != nil {
		return fmt.Errorf("IntentProducer - Close: %w", err)
	}

	return nil
}
