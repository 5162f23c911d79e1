package dto

import (
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/entity"
	"github.com/google/uuid"
)

// IntentMessage is the queue record for a claimed cleanup intent. Consumers
// only need IntentID; the rest is carried for inspection and replay.
type IntentMessage struct {
	IntentID    uuid.UUID        `json:"intent_id"`
	Aggregate   entity.Aggregate `json:"aggregate"`
	AggregateID int64            `json:"aggregate_id"`
	Keys        []string         `json:"keys"`
}

func NewIntentMessage(intent *entity.CleanupIntent) IntentMessage {
	return IntentMessage{
		IntentID:    intent.ID,
		Aggregate:   intent.Aggregate,
		AggregateID: intent.AggregateID,
		Keys:        intent.Keys,
	}
}
