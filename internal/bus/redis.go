package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

// payloadField is the single stream field carrying the JSON-encoded message.
const payloadField = "payload"

// Connect builds a redis client and verifies connectivity, mirroring how the
// database layer pings postgres at startup: an unreachable bus is fatal for
// the component that needs it, not something to limp along without.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// RedisPublisher produces onto two Redis Streams via XADD.
type RedisPublisher struct {
	client       *redis.Client
	appStream    string
	resultStream string
	logger       *zap.Logger
}

func NewRedisPublisher(client *redis.Client, appStream, resultStream string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:       client,
		appStream:    appStream,
		resultStream: resultStream,
		logger:       logger,
	}
}

func (p *RedisPublisher) PublishApplication(ctx context.Context, app domain.Application) error {
	body, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application %s: %w", app.ID, err)
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.appStream,
		Values: map[string]any{payloadField: body},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish application %s: %w", app.ID, err)
	}

	p.logger.Info("application published",
		zap.String("application_id", app.ID),
		zap.String("stream", p.appStream),
		zap.String("delivery_id", id),
	)
	return nil
}

func (p *RedisPublisher) PublishResult(ctx context.Context, res domain.Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result for %s: %w", res.ApplicationID, err)
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.resultStream,
		Values: map[string]any{payloadField: body},
	}).Err(); err != nil {
		return fmt.Errorf("publish result for %s: %w", res.ApplicationID, err)
	}
	return nil
}

// RedisConsumer reads the application stream through a consumer group.
// XACK after downstream hand-off is what gives the at-least-once contract:
// unacked deliveries stay in the group's pending list and are redelivered.
type RedisConsumer struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	block    time.Duration
}

// NewRedisConsumer creates the consumer group if it does not exist yet and
// returns a consumer reading fresh entries for that group.
func NewRedisConsumer(ctx context.Context, client *redis.Client, stream, group, consumer string, block time.Duration) (*RedisConsumer, error) {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group %s on %s: %w", group, stream, err)
	}
	return &RedisConsumer{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
		block:    block,
	}, nil
}

func (c *RedisConsumer) Fetch(ctx context.Context, max int) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    int64(max),
		Block:    c.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // poll window elapsed with nothing to read
	}
	if err != nil {
		return nil, fmt.Errorf("read group %s: %w", c.group, err)
	}

	var out []Message
	for _, s := range streams {
		for _, entry := range s.Messages {
			raw, ok := entry.Values[payloadField].(string)
			if !ok {
				return nil, fmt.Errorf("delivery %s: missing %s field", entry.ID, payloadField)
			}
			var app domain.Application
			if err := json.Unmarshal([]byte(raw), &app); err != nil {
				// Hand the malformed delivery up with its id so the intake
				// loop can ack it away instead of looping on a poison pill.
				out = append(out, Message{ID: entry.ID})
				continue
			}
			out = append(out, Message{ID: entry.ID, Application: app})
		}
	}
	return out, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, deliveryID string) error {
	return c.client.XAck(ctx, c.stream, c.group, deliveryID).Err()
}

func (c *RedisConsumer) Close() error {
	return c.client.Close()
}

// compile-time interface checks
var (
	_ Publisher = (*RedisPublisher)(nil)
	_ Consumer  = (*RedisConsumer)(nil)
)
