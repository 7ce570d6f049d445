package queue

import (
	"context"
	"fmt"
)

// Publisher publishes dispatch messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg DispatchMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg DispatchMessage) error

// Consumer consumes dispatch messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// DispatchQueueName is the work queue carrying campaign send jobs.
const DispatchQueueName = "dispatch"

// DLQName returns the dead-letter queue name, e.g. dlq.dispatch.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}
