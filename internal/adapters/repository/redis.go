package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/househunt/internal/domain/types"
	"github.com/redis/go-redis/v9"
)

const (
	redisConnectTimeout = 5 * time.Second
	redisAppendRetries  = 5
)

// RedisStore keeps each record as a JSON string under project:<id> and an
// owner index set under owner:<ownerID>.
type RedisStore struct {
	client *redis.Client
	opts   options
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL string, opts ...Option) (*RedisStore, error) {
	ro, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(ro)

	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, opts...), nil
}

// NewRedisStoreWithClient creates a store from an existing client.
func NewRedisStoreWithClient(client *redis.Client, opts ...Option) *RedisStore {
	return &RedisStore{client: client, opts: newOptions(opts)}
}

func (s *RedisStore) projectKey(id string) string { return s.opts.keyPrefix + "project:" + id }
func (s *RedisStore) ownerKey(id string) string   { return s.opts.keyPrefix + "owner:" + id }

// ListProjects implements Store.
func (s *RedisStore) ListProjects(ctx context.Context, ownerID string) ([]Record, error) {
	ids, err := s.client.SMembers(ctx, s.ownerKey(ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list project ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.projectKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}

	out := make([]Record, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(str), &r); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
		out = append(out, r)
	}
	sortRecords(out)
	return out, nil
}

// GetProject implements Store.
func (s *RedisStore) GetProject(ctx context.Context, projectID string) (Record, error) {
	return s.get(ctx, s.client, projectID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) get(ctx context.Context, c getter, projectID string) (Record, error) {
	str, err := c.Get(ctx, s.projectKey(projectID)).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, fmt.Errorf("get %s: %w", projectID, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", projectID, err)
	}
	var r Record
	if err := json.Unmarshal([]byte(str), &r); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", projectID, err)
	}
	return r, nil
}

// PutProject implements Store. Overwrites keep the original creation time.
func (s *RedisStore) PutProject(ctx context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return err
	}
	key := s.projectKey(rec.ID)
	now := s.opts.now()

	return s.withRetry(ctx, key, func(tx *redis.Tx) error {
		prev, err := s.get(ctx, tx, rec.ID)
		switch {
		case err == nil:
			rec.CreatedAt = prev.CreatedAt
		case errors.Is(err, ErrNotFound):
			if rec.CreatedAt.IsZero() {
				rec.CreatedAt = now
			}
		default:
			return err
		}
		rec.UpdatedAt = now

		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode project: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, 0)
			p.SAdd(ctx, s.ownerKey(rec.OwnerID), rec.ID)
			return nil
		})
		return err
	})
}

// AppendEntry implements Store using optimistic locking on the project key.
func (s *RedisStore) AppendEntry(ctx context.Context, projectID string, entry types.HouseEntry) error {
	key := s.projectKey(projectID)
	return s.withRetry(ctx, key, func(tx *redis.Tx) error {
		rec, err := s.get(ctx, tx, projectID)
		if err != nil {
			return err
		}
		rec.Project.HouseEntries = append(rec.Project.HouseEntries, entry)
		rec.UpdatedAt = s.opts.now()
		b, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode project: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, 0)
			return nil
		})
		return err
	})
}

func (s *RedisStore) withRetry(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for i := 0; i < redisAppendRetries; i++ {
		err := s.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: %w", key, redis.TxFailedErr)
}

// Ping checks if Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
