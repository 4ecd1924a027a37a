package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisPostsKey    = "blogcache:posts"
	redisMetadataKey = "blogcache:metadata"

	redisConnectTimeout = 2 * time.Second
)

// RedisPersister stores cache snapshots as two JSON values in Redis,
// mirroring the file layout. Used when the deployment has no stable
// local disk but does have a Redis instance.
type RedisPersister struct {
	client *redis.Client
}

// NewRedisPersister connects to Redis and verifies the connection.
func NewRedisPersister(addr, password string, db int) (*RedisPersister, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisPersister{client: client}, nil
}

// NewRedisPersisterFromClient wraps an existing client. Used by tests.
func NewRedisPersisterFromClient(client *redis.Client) *RedisPersister {
	return &RedisPersister{client: client}
}

// Mode names the backing mode.
func (p *RedisPersister) Mode() string { return ModeRedis }

// Load reads the persisted snapshot. Returns nil when no snapshot exists.
func (p *RedisPersister) Load(ctx context.Context) (*Snapshot, error) {
	data, err := p.client.Get(ctx, redisPostsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get posts key: %w", err)
	}

	var file postsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse posts key: %w", err)
	}

	return &Snapshot{Posts: file.Posts, Metadata: file.Metadata}, nil
}

// Save writes both keys, replacing any previous snapshot.
func (p *RedisPersister) Save(ctx context.Context, snap *Snapshot) error {
	postsData, err := json.Marshal(postsFile{Posts: snap.Posts, Metadata: snap.Metadata})
	if err != nil {
		return fmt.Errorf("marshal posts: %w", err)
	}
	metaData, err := json.Marshal(snap.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, redisPostsKey, postsData, 0)
	pipe.Set(ctx, redisMetadataKey, metaData, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Clear removes both keys.
func (p *RedisPersister) Clear(ctx context.Context) error {
	if err := p.client.Del(ctx, redisPostsKey, redisMetadataKey).Err(); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
