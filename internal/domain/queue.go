package domain

import "time"

// QueueStatus enumerates the lifecycle states of a queue item.
type QueueStatus string

const (
	StatusQueued     QueueStatus = "queued"
	StatusProcessing QueueStatus = "processing"
	StatusComplete   QueueStatus = "complete"
	StatusError      QueueStatus = "error"
	StatusCancelled  QueueStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions. An
// error item is terminal for the dispatch loop; an explicit user retry may
// still re-queue it.
func (s QueueStatus) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// Priority orders queued items ahead of FIFO ordering.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Weight maps a priority to its dispatch rank. Higher dispatches first.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityLow:
		return 0
	default:
		return 1
	}
}

// QueueItem tracks one generation through the queue. Items are owned by the
// queue store; callers only ever see snapshot copies.
type QueueItem struct {
	ID                  string            `json:"id"`
	Type                MediaType         `json:"type"`
	Status              QueueStatus       `json:"status"`
	Progress            int               `json:"progress"`
	EstimatedCompletion time.Time         `json:"estimated_completion"`
	Request             GenerationRequest `json:"request"`
	RetryCount          int               `json:"retry_count"`
	MaxRetries          int               `json:"max_retries"`
	Priority            Priority          `json:"priority"`
	Result              *GeneratedAsset   `json:"result,omitempty"`
	Error               string            `json:"error,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}
