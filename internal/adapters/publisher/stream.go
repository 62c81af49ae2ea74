package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/okian/meerkat/internal/domain/model"
)

// DefaultStreamPrefix prefixes every competition stream key.
const DefaultStreamPrefix = "meerkat.changes"

// StreamAdder is the subset of the redis client the stream publisher needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher appends changes to one Redis stream per competition.
type StreamPublisher struct {
	client StreamAdder
	prefix string
	maxLen int64
}

// StreamOption configures a StreamPublisher.
type StreamOption func(*StreamPublisher)

// WithStreamPrefix sets the stream key prefix.
func WithStreamPrefix(prefix string) StreamOption {
	return func(p *StreamPublisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithMaxLen caps each stream approximately at n entries.
func WithMaxLen(n int64) StreamOption {
	return func(p *StreamPublisher) {
		if n > 0 {
			p.maxLen = n
		}
	}
}

// NewStreamPublisher creates a new stream publisher.
func NewStreamPublisher(client StreamAdder, opts ...StreamOption) *StreamPublisher {
	p := &StreamPublisher{client: client, prefix: DefaultStreamPrefix}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish appends the change to the competition's stream.
func (p *StreamPublisher) Publish(ctx context.Context, c model.Change) error {
	values, err := encodeChange(c)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: StreamKey(p.prefix, c.CompetitionID),
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublish, args.Stream, err)
	}
	return nil
}

// StreamKey returns the stream a competition's changes are appended to.
func StreamKey(prefix string, competitionID uint64) string {
	return prefix + "." + strconv.FormatUint(competitionID, 10)
}

func encodeChange(c model.Change) (map[string]interface{}, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling change: %w", err)
	}
	return map[string]interface{}{
		"data": string(data),
		"kind": string(c.Kind),
	}, nil
}

// Connect parses a redis URL, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrPublish, err)
	}
	return client, nil
}
