package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/jnst/layered-crud-template/internal/model"
)

const (
	redisBlockTimeout = 1000 // milliseconds
	errorRetryDelay   = 1 * time.Second
	reclaimBatchSize  = 10

	// DefaultReclaimAfter is how long a delivered message may stay unacked
	// before the consumer claims it again.
	DefaultReclaimAfter = 30 * time.Second
)

var (
	errMissingEventType = errors.New("missing event_type in message")
	errMissingPayload   = errors.New("missing payload in message")
)

// ETLHandler processes one decoded ETL completion event.
type ETLHandler func(ctx context.Context, event *model.ETLCompletedEvent) error

// Consumer reads ETL events from a Redis stream through a consumer group.
type Consumer struct {
	client   rueidis.Client
	stream   string
	group    string
	consumer string
	handle   ETLHandler

	reclaimAfter time.Duration
}

// NewConsumer creates a consumer for stream as member consumer of group.
func NewConsumer(client rueidis.Client, stream, group, consumer string, handle ETLHandler) *Consumer {
	return &Consumer{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		handle:   handle,

		reclaimAfter: DefaultReclaimAfter,
	}
}

// SetReclaimAfter changes the idle time after which unacked messages are retried.
func (c *Consumer) SetReclaimAfter(d time.Duration) {
	c.reclaimAfter = d
}

// CreateGroup creates the consumer group and the stream if missing.
func (c *Consumer) CreateGroup(ctx context.Context) {
	cmd := c.client.B().XgroupCreate().Key(c.stream).Group(c.group).Id("0").Mkstream().Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		slog.Info("consumer group creation result (may already exist)", slog.String("error", err.Error()))
	}
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("consumer stopped")
			return
		default:
			if _, err := c.ConsumeOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Error("error consuming messages", slog.String("error", err.Error()))
				time.Sleep(errorRetryDelay)
			}
		}
	}
}

// ConsumeOnce first retries messages left unacked for longer than the
// reclaim interval, then reads at most one new message. Every message is
// acknowledged only after its handler succeeds. It returns the number of
// acknowledged messages.
func (c *Consumer) ConsumeOnce(ctx context.Context) (int, error) {
	reclaimed, err := c.reclaim(ctx)
	if err != nil {
		return 0, err
	}

	acked := c.handleAll(ctx, reclaimed)

	cmd := c.client.B().Xreadgroup().Group(c.group, c.consumer).
		Count(1).
		Block(redisBlockTimeout).
		Streams().
		Key(c.stream).
		Id(">").
		Build()

	streams, err := c.client.Do(ctx, cmd).AsXRead()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return acked, nil
		}

		return acked, err
	}

	for _, messages := range streams {
		acked += c.handleAll(ctx, messages)
	}

	return acked, nil
}

// reclaim takes over pending messages idle for at least reclaimAfter,
// including ones this consumer failed to handle earlier.
func (c *Consumer) reclaim(ctx context.Context) ([]rueidis.XRangeEntry, error) {
	cmd := c.client.B().Xautoclaim().Key(c.stream).Group(c.group).Consumer(c.consumer).
		MinIdleTime(strconv.FormatInt(c.reclaimAfter.Milliseconds(), 10)).
		Start("0-0").
		Count(reclaimBatchSize).
		Build()

	resp, err := c.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("failed to reclaim pending messages: %w", err)
	}

	if len(resp) < 2 {
		return nil, nil
	}

	entries, err := resp[1].AsXRange()
	if err != nil {
		return nil, fmt.Errorf("failed to parse reclaimed messages: %w", err)
	}

	if len(entries) > 0 {
		slog.Info("reclaimed pending messages", slog.Int("count", len(entries)))
	}

	return entries, nil
}

func (c *Consumer) handleAll(ctx context.Context, messages []rueidis.XRangeEntry) int {
	acked := 0

	for _, message := range messages {
		if err := c.process(ctx, message); err != nil {
			slog.Error("failed to process message",
				slog.String("message_id", message.ID),
				slog.String("error", err.Error()),
			)

			continue
		}

		if c.ack(ctx, message.ID) {
			acked++
		}
	}

	return acked
}

func (c *Consumer) ack(ctx context.Context, messageID string) bool {
	cmd := c.client.B().Xack().Key(c.stream).Group(c.group).Id(messageID).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		slog.Error("failed to ACK message",
			slog.String("message_id", messageID),
			slog.String("error", err.Error()),
		)

		return false
	}

	slog.Debug("ACKed message", slog.String("message_id", messageID))

	return true
}

func (c *Consumer) process(ctx context.Context, message rueidis.XRangeEntry) error {
	eventType, ok := message.FieldValues[FieldEventType]
	if !ok {
		return errMissingEventType
	}

	payload, ok := message.FieldValues[FieldPayload]
	if !ok {
		return errMissingPayload
	}

	switch model.EventAction(eventType) {
	case model.EventActionETLCompleted:
		var event model.ETLCompletedEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return fmt.Errorf("failed to parse %s payload: %w", eventType, err)
		}

		return c.handle(ctx, &event)
	default:
		// unknown events are acknowledged and dropped
		slog.Warn("unknown event type", slog.String("event_type", eventType))
		return nil
	}
}
