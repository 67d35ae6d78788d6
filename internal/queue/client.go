// Package queue hands grade alerts to an asynchronous mail delivery worker.
package queue

import "context"

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
