package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/podgate/podgate/internal/logging"
)

// RedisConfig holds connection settings for the Redis audit stream.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	// MaxLen caps the stream length (approximate trim). Zero keeps
	// everything.
	MaxLen int64
}

// RedisRecorder appends entries to a Redis stream so operators can tail
// decisions live without touching the durable audit file.
type RedisRecorder struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *logging.Logger
}

// NewRedisRecorder connects to Redis and verifies the connection.
func NewRedisRecorder(cfg RedisConfig, logger *logging.Logger) (*RedisRecorder, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	stream := cfg.Stream
	if stream == "" {
		stream = "podgate:audit"
	}

	return &RedisRecorder{client: client, stream: stream, maxLen: cfg.MaxLen, logger: logger}, nil
}

// Record appends one entry to the stream. Failures are logged and swallowed.
func (r *RedisRecorder) Record(ctx context.Context, entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		r.logger.Error("Failed to serialize audit entry", logging.WithField("error", err.Error()))
		return
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{"entry": string(data)},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		r.logger.Error("Failed to append audit entry to stream", logging.WithField("error", err.Error()))
	}
}

// Close closes the Redis connection.
func (r *RedisRecorder) Close() error {
	return r.client.Close()
}
