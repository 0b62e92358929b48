// Package redis implements internal/persist.Backend on Redis Streams: the
// hot-path record/replay store. Grounded on the teacher's
// internal/store/redis.Writer/Reader — one XADD-trimmed stream per key,
// XRANGE to replay — generalised from "one stream per (exchange, token,
// TF)" to "one stream per fully-qualified recordable id".
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/persist"

	goredis "github.com/go-redis/redis/v8"
)

// streamMaxLen bounds each recordable id's stream to a rolling window,
// matching the teacher's stream1sMaxLen trimming policy.
const streamMaxLen = 20000

// Config configures the Redis backend.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Backend implements persist.Backend over Redis Streams.
type Backend struct {
	client *goredis.Client
}

// New connects to Redis and pings it, matching the teacher's
// connect-then-verify construction style.
func New(cfg Config) (*Backend, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("persist/redis: ping: %w", err)
	}
	return &Backend{client: client}, nil
}

func streamKey(recordableID string) string { return "hgraph:record:" + recordableID }

func (b *Backend) Record(ctx context.Context, e persist.Entry) error {
	return b.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: streamKey(e.RecordableID),
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"at":      int64(e.At),
			"payload": e.Payload,
		},
	}).Err()
}

func (b *Backend) Replay(ctx context.Context, recordableID string, from, to clock.EngineTime) ([]persist.Entry, error) {
	msgs, err := b.client.XRange(ctx, streamKey(recordableID), "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("persist/redis: xrange %s: %w", recordableID, err)
	}
	out := make([]persist.Entry, 0, len(msgs))
	for _, m := range msgs {
		at, payload, err := decodeMessage(m)
		if err != nil {
			return nil, err
		}
		if at < from || at > to {
			continue
		}
		out = append(out, persist.Entry{RecordableID: recordableID, At: at, Payload: payload})
	}
	return out, nil
}

func (b *Backend) LastRecorded(ctx context.Context, recordableID string) (clock.EngineTime, error) {
	msgs, err := b.client.XRevRangeN(ctx, streamKey(recordableID), "+", "-", 1).Result()
	if err != nil {
		return clock.MinDT, fmt.Errorf("persist/redis: xrevrange %s: %w", recordableID, err)
	}
	if len(msgs) == 0 {
		return clock.MinDT, nil
	}
	at, _, err := decodeMessage(msgs[0])
	if err != nil {
		return clock.MinDT, err
	}
	return at, nil
}

func decodeMessage(m goredis.XMessage) (clock.EngineTime, []byte, error) {
	rawAt, ok := m.Values["at"]
	if !ok {
		return clock.MinDT, nil, fmt.Errorf("persist/redis: entry %s missing 'at' field", m.ID)
	}
	at, err := parseEngineTime(rawAt)
	if err != nil {
		return clock.MinDT, nil, fmt.Errorf("persist/redis: entry %s: %w", m.ID, err)
	}
	payload, _ := m.Values["payload"].(string)
	return at, []byte(payload), nil
}

func parseEngineTime(raw interface{}) (clock.EngineTime, error) {
	switch v := raw.(type) {
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return clock.MinDT, err
		}
		return clock.EngineTime(n), nil
	case int64:
		return clock.EngineTime(v), nil
	default:
		return clock.MinDT, fmt.Errorf("unexpected 'at' type %T", raw)
	}
}

func (b *Backend) Close() error { return b.client.Close() }
