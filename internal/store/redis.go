package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leadscout/api/internal/model"
)

const maxUpdateAttempts = 25

// RedisStore keeps job records as JSON documents under job:<id>
type RedisStore struct {
	redis     *redis.Client
	retention time.Duration
	now       func() time.Time
}

// NewRedisStore creates a redis-backed store. A zero retention keeps records forever.
func NewRedisStore(redisClient *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{
		redis:     redisClient,
		retention: retention,
		now:       time.Now,
	}
}

func (s *RedisStore) Create(ctx context.Context, id string, req model.JobRequest) (*model.JobRecord, error) {
	rec := newRecord(id, req, s.now())
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, jobKey(id), data, s.retention).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	if !ok {
		return nil, errDuplicate(id)
	}
	return rec, nil
}

// Update runs an optimistic WATCH/MULTI cycle so concurrent writers never interleave on one record.
func (s *RedisStore) Update(ctx context.Context, id string, upd model.JobUpdate) error {
	key := jobKey(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return errNotFound(id)
		}
		if err != nil {
			return err
		}

		var rec model.JobRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal job: %w", err)
		}
		upd.Apply(&rec, s.now())

		out, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, redis.KeepTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("failed to update job %s: too much contention", id)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.JobRecord, error) {
	data, err := s.redis.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errNotFound(id)
		}
		return nil, err
	}

	var rec model.JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &rec, nil
}

func jobKey(id string) string {
	return fmt.Sprintf("job:%s", id)
}
