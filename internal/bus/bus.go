// Package bus is the message-bus boundary between the gateway's dispatch side
// and the processor's intake side. Two logical topics exist: the application
// topic carrying dispatched work items, and the result topic carrying
// per-item success/error envelopes.
//
// Delivery is at-least-once: messages are acknowledged only after they have
// been handed off downstream, so a crash between hand-off and ack causes a
// redelivery, never a loss. Downstream persistence tolerates the resulting
// duplicates via the application id.
package bus

import (
	"context"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

// Publisher is the producing side of both topics.
type Publisher interface {
	// PublishApplication puts a dispatched application on the work topic.
	PublishApplication(ctx context.Context, app domain.Application) error
	// PublishResult puts a processing outcome on the result topic.
	PublishResult(ctx context.Context, res domain.Result) error
}

// Message is one delivery from the application topic. ID is the bus-assigned
// delivery id used for acknowledgement, not the application id.
type Message struct {
	ID          string
	Application domain.Application
}

// Consumer is the consuming side of the application topic. Fetch blocks up to
// the implementation's poll window and may return zero messages; Ack commits
// a single delivery and must only be called after downstream hand-off.
type Consumer interface {
	Fetch(ctx context.Context, max int) ([]Message, error)
	Ack(ctx context.Context, deliveryID string) error
	Close() error
}
