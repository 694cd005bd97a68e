package kafka

import "time"

// Message is the producer-facing envelope. Key selects the partition so all
// records for one calendar stay ordered.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}
