// internal/bridge/bridge.go

// Package bridge fans room events out across server instances. A single
// instance uses the no-op bridge; multi-instance deployments use the Redis
// implementation so every instance's clients see every room event.
package bridge

import (
	"context"

	"github.com/skatch-gg/skatch/internal/game"
)

// Bridge publishes local room events to peers and subscribes to theirs.
type Bridge interface {
	// Publish sends a room event to every other instance. The publishing
	// instance never receives its own events back.
	Publish(ctx context.Context, roomID string, ev game.Event) error

	// Subscribe invokes fn for every event any other instance publishes for
	// the room. The returned func cancels the subscription.
	Subscribe(ctx context.Context, roomID string, fn func(game.Event)) (func(), error)

	// Close releases the bridge's resources.
	Close() error
}

// Noop is the single-instance bridge: publishing goes nowhere and
// subscriptions never fire.
type Noop struct{}

func (Noop) Publish(context.Context, string, game.Event) error { return nil }

func (Noop) Subscribe(context.Context, string, func(game.Event)) (func(), error) {
	return func() {}, nil
}

func (Noop) Close() error { return nil }
