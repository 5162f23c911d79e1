package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/dto"
	kafkapc "github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/infrastructure/kafka"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// intentID reads the intent id from the message header, falling back to the
// body for records written without headers.
func intentID(msg kafka.Message) (uuid.UUID, error) {
	for _, h := range msg.Headers {
		if h.Key != kafkapc.HeaderIntentID {
			continue
		}

		id, err := uuid.ParseBytes(h.Value)
		if err != nil {
			return uuid.Nil, fmt.Errorf("uuid.ParseBytes header: %w", err)
		}

		return id, nil
	}

	var payload dto.IntentMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return uuid.Nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	if payload.IntentID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("message carries no intent id")
	}

	return payload.IntentID, nil
}
