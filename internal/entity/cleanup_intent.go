package entity

import (
	"time"

	"github.com/google/uuid"
)

type Aggregate string

const (
	// AggregateMedia intents finish a media-record deletion: blobs first,
	// then the row.
	AggregateMedia Aggregate = "media"
	// AggregateBlob intents only delete keys. The row that referenced them is
	// already gone or points elsewhere.
	AggregateBlob Aggregate = "blob"
)

// CleanupIntent is written before destructive blob deletes and completed once
// every step of the sequence has succeeded.
type CleanupIntent struct {
	ID          uuid.UUID    `json:"id"`
	Aggregate   Aggregate    `json:"aggregate"`
	AggregateID int64        `json:"aggregate_id"`
	Keys        []string     `json:"keys"`
	Status      IntentStatus `json:"status"`
	RetryCount  int          `json:"retry_count"`
	LastError   string       `json:"last_error,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}
