// Package event publishes and consumes ETL completion events on Redis Streams.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/jnst/layered-crud-template/internal/model"
)

// Stream field names shared by publisher and consumer.
const (
	FieldEventType   = "event_type"
	FieldAggregateID = "aggregate_id"
	FieldPayload     = "payload"
)

// Publisher defines methods for publishing ETL events.
type Publisher interface {
	PublishETLCompleted(ctx context.Context, event *model.ETLCompletedEvent) error
}

// RedisStreamPublisher implements Publisher with XADD on a Redis stream.
type RedisStreamPublisher struct {
	client rueidis.Client
	stream string
}

// NewRedisStreamPublisher creates a publisher writing to stream.
func NewRedisStreamPublisher(client rueidis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream}
}

// PublishETLCompleted appends the event to the stream.
func (p *RedisStreamPublisher) PublishETLCompleted(ctx context.Context, event *model.ETLCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	cmd := p.client.B().Xadd().Key(p.stream).Id("*").
		FieldValue().FieldValue(FieldEventType, string(event.Action)).
		FieldValue(FieldAggregateID, "post_"+strconv.FormatInt(event.PostID, 10)).
		FieldValue(FieldPayload, string(payload)).
		Build()

	if err := p.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", p.stream, err)
	}

	return nil
}

// NopPublisher discards events. It is used when no Redis address is configured.
type NopPublisher struct{}

// PublishETLCompleted does nothing.
func (NopPublisher) PublishETLCompleted(context.Context, *model.ETLCompletedEvent) error {
	return nil
}
