// internal/bridge/redis.go
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/skatch-gg/skatch/internal/game"
)

// DefaultTopicPrefix namespaces bridge channels inside a shared Redis.
const DefaultTopicPrefix = "skatch"

// envelope wraps an event with its publisher's instance id so subscribers
// can drop their own publications instead of delivering them twice.
type envelope struct {
	Origin string     `json:"origin"`
	Event  game.Event `json:"event"`
}

// topicFor builds the channel name "<prefix>.<roomID>.<eventType>".
func topicFor(prefix, roomID string, t game.EventType) string {
	return prefix + "." + roomID + "." + string(t)
}

// roomPattern matches every event channel of one room.
func roomPattern(prefix, roomID string) string {
	return prefix + "." + roomID + ".*"
}

// Redis is the cross-instance bridge backed by Redis pub/sub.
type Redis struct {
	client     *redis.Client
	prefix     string
	instanceID string
}

// NewRedis connects a bridge using REDIS_ADDR (default "localhost:6379"),
// REDIS_DB (default 0), and SKATCH_BRIDGE_PREFIX (default "skatch").
func NewRedis() (*Redis, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Redis{
		client:     client,
		prefix:     getEnv("SKATCH_BRIDGE_PREFIX", DefaultTopicPrefix),
		instanceID: uuid.NewString(),
	}, nil
}

func (b *Redis) Publish(ctx context.Context, roomID string, ev game.Event) error {
	data, err := json.Marshal(envelope{Origin: b.instanceID, Event: ev})
	if err != nil {
		return fmt.Errorf("failed to marshal bridge envelope: %w", err)
	}
	topic := topicFor(b.prefix, roomID, ev.Type)
	if err := b.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (b *Redis) Subscribe(ctx context.Context, roomID string, fn func(game.Event)) (func(), error) {
	sub := b.client.PSubscribe(ctx, roomPattern(b.prefix, roomID))

	// Force the subscription onto the wire before returning so callers
	// don't miss events published right after Subscribe.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to room %s: %w", roomID, err)
	}

	go func() {
		for msg := range sub.Channel() {
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				logrus.WithError(err).WithField("channel", msg.Channel).
					Warn("dropping malformed bridge message")
				continue
			}
			if env.Origin == b.instanceID {
				continue
			}
			fn(env.Event)
		}
	}()

	return func() { _ = sub.Close() }, nil
}

func (b *Redis) Close() error {
	return b.client.Close()
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
