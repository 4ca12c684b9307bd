package domain

import "time"

// Estimate is the outcome of one prediction request. It is never persisted.
type Estimate struct {
	RequestID string
	Price     float64
	Duration  time.Duration
	// UnseenCategories lists categorical inputs whose value the model never saw
	// during training, keyed by feature name.
	UnseenCategories map[string]string
}
