package domain

import "context"

// Channel is the interface for a chat platform delivering messages.
type Channel interface {
	Name() string
	Start(ctx context.Context, bus MessageBus) error
	Stop() error
}
