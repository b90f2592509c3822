package events

import (
	"context"
	"encoding/json"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DefaultChannel = "formtalk:response-events"

// ResponseEventMessage is the wire shape published by the response lifecycle
// collaborator.
type ResponseEventMessage struct {
	ResponseID string `json:"response_id"`
	Event      string `json:"event"`
}

type EventHandler interface {
	OnResponseEvent(ctx context.Context, responseID string, event domain.ResponseEventType) error
}

type RedisConsumerDependencies struct {
	Client  *redis.Client
	Channel string
	Handler EventHandler
}

// RedisConsumer subscribes to the response event channel and hands each
// event to the dispatch coordinator in the background. Handling is
// fire-and-forget: a failed dispatch is logged, the consumer keeps reading.
type RedisConsumer struct {
	client  *redis.Client
	channel string
	handler EventHandler
}

func NewRedisConsumer(deps RedisConsumerDependencies) *RedisConsumer {
	channel := deps.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	return &RedisConsumer{
		client:  deps.Client,
		channel: channel,
		handler: deps.Handler,
	}
}

// Run blocks until the context is cancelled.
func (c *RedisConsumer) Run(ctx context.Context) error {
	pubsub := c.client.Subscribe(ctx, c.channel)
	defer pubsub.Close()

	log.Info().Str("channel", c.channel).Msg("Listening for response events")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case message, ok := <-pubsub.Channel():
			if !ok {
				return nil
			}

			c.handleMessage(message.Payload)
		}
	}
}

func (c *RedisConsumer) handleMessage(payload string) {
	var message ResponseEventMessage

	if err := json.Unmarshal([]byte(payload), &message); err != nil {
		log.Warn().Err(err).Str("payload", payload).Msg("Dropping malformed response event")
		return
	}

	event, err := domain.ParseResponseEventType(message.Event)
	if err != nil {
		log.Warn().Err(err).Str("response_id", message.ResponseID).Msg("Dropping response event with unknown type")
		return
	}

	// Deliberately detached from the consumer context: a dispatched send runs
	// to completion even while the consumer is shutting down.
	go func() {
		if err := c.handler.OnResponseEvent(context.Background(), message.ResponseID, event); err != nil {
			log.Error().
				Err(err).
				Str("response_id", message.ResponseID).
				Str("event", string(event)).
				Msg("Failed to handle response event")
		}
	}()
}
