// Package bus carries one-way notifications from extractors to whoever is
// listening. Nothing is acknowledged.
package bus

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// TypeSemanticContent tags a page summary message
const TypeSemanticContent = "SEMANTIC_CONTENT"

// Message is the envelope posted on the bus
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Publisher accepts messages without replying
type Publisher interface {
	Publish(msg Message)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(msg Message)

// Publish calls f(msg)
func (f PublisherFunc) Publish(msg Message) { f(msg) }

// WriterPublisher writes each message as one JSON line
type WriterPublisher struct {
	mu     sync.Mutex
	enc    *json.Encoder
	logger *slog.Logger
}

// NewWriterPublisher creates a publisher writing to w
func NewWriterPublisher(w io.Writer, logger *slog.Logger) *WriterPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriterPublisher{enc: json.NewEncoder(w), logger: logger}
}

// Publish writes msg; failures are logged and dropped
func (p *WriterPublisher) Publish(msg Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enc.Encode(msg); err != nil {
		p.logger.Error("failed to publish message", "type", msg.Type, "err", err)
	}
}
