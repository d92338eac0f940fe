package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// Channel carries change signals between instances sharing the substrate.
	Channel   = "light_party_events:changed"
	publishTO = 5 * time.Second
)

// changeMessage is the message published to Redis. Subscribers ignore everything but origin.
type changeMessage struct {
	Origin string `json:"origin"`
	At     int64  `json:"at"`
}

// RedisBridge implements Publisher with Redis pub/sub and feeds sibling signals back into a Notifier.
type RedisBridge struct {
	client *redis.Client
	origin string
	logger *zap.Logger
}

// NewRedisBridge creates a Redis pub/sub bridge with a fresh origin id for this instance.
func NewRedisBridge(client *redis.Client, logger *zap.Logger) *RedisBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBridge{client: client, origin: uuid.New().String(), logger: logger}
}

// Origin returns this instance's origin id.
func (b *RedisBridge) Origin() string { return b.origin }

// PublishChange publishes a no-payload change signal tagged with this instance's origin.
func (b *RedisBridge) PublishChange() error {
	body, err := json.Marshal(changeMessage{Origin: b.origin, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTO)
	defer cancel()
	return b.client.Publish(ctx, Channel, body).Err()
}

// Listen subscribes to the change channel and calls n.Remote for every signal
// from another instance. Returns a cancel function to stop the subscription.
func (b *RedisBridge) Listen(ctx context.Context, n *Notifier) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(ctx)
	pubsub := b.client.Subscribe(ctx, Channel)
	if _, err = pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if !b.fromSibling(msg.Payload) {
					continue
				}
				n.Remote()
			}
		}
	}()
	b.logger.Info("listening for sibling change signals", zap.String("channel", Channel), zap.String("origin", b.origin))
	return cancelCtx, nil
}

// fromSibling reports whether a raw message is a well-formed signal from another instance.
func (b *RedisBridge) fromSibling(payload string) bool {
	var m changeMessage
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		b.logger.Debug("ignoring malformed change signal", zap.Error(err))
		return false
	}
	return m.Origin != "" && m.Origin != b.origin
}
