// Package events publishes rerank lifecycle events to NATS so downstream
// consumers (audit, analytics, cache warmers) can observe request outcomes
// without sitting in the request path.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects follow rerank.<collection>.<request_id>.<event>.
const (
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// RerankEvent is the payload published for each finished rerank request.
type RerankEvent struct {
	RequestID     string    `json:"request_id"`
	Collection    string    `json:"collection,omitempty"`
	Provider      string    `json:"provider"`
	DocumentCount int       `json:"document_count"`
	ResultCount   int       `json:"result_count"`
	DurationMs    int64     `json:"duration_ms"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher publishes rerank events to NATS. A nil Publisher is valid and
// drops all events, so callers need no guards when eventing is disabled.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewPublisher connects to the NATS server at url. An empty url disables
// publishing and returns a nil Publisher.
func NewPublisher(url string, logger *zap.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	logger.Info("event publisher connected", zap.String("url", url))

	return &Publisher{nc: nc, logger: logger}, nil
}

// Completed publishes a completed event for a request.
func (p *Publisher) Completed(event RerankEvent) error {
	return p.publish(EventCompleted, event)
}

// Failed publishes a failed event for a request.
func (p *Publisher) Failed(event RerankEvent) error {
	return p.publish(EventFailed, event)
}

func (p *Publisher) publish(kind string, event RerankEvent) error {
	if p == nil || p.nc == nil {
		return nil
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	collection := event.Collection
	if collection == "" {
		collection = "default"
	}
	subject := fmt.Sprintf("rerank.%s.%s.%s", collection, event.RequestID, kind)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("publish %s event: %w", kind, err)
	}

	return nil
}

// Close flushes pending events and closes the connection.
func (p *Publisher) Close() error {
	if p == nil || p.nc == nil {
		return nil
	}
	if err := p.nc.Flush(); err != nil {
		p.nc.Close()
		return fmt.Errorf("flushing NATS connection: %w", err)
	}
	p.nc.Close()
	return nil
}
