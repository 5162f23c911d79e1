package entity

type IntentStatus string

const (
	IntentPending    IntentStatus = "pending"
	IntentProcessing IntentStatus = "processing" // dispatched to the queue
	IntentCompleted  IntentStatus = "completed"
	IntentFailed     IntentStatus = "failed"
)
