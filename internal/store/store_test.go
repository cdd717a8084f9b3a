package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscout/api/internal/apperr"
	"github.com/leadscout/api/internal/model"
)

func testRequest() model.JobRequest {
	return model.JobRequest{
		QueryText:   "Restaurant Berlin",
		Location:    "berlin",
		ResultLimit: 5,
		SubmitterID: "user-1",
	}
}

// runStoreContract exercises the behaviour every driver must share.
func runStoreContract(t *testing.T, s JobStore) {
	ctx := context.Background()

	t.Run("create starts running at zero", func(t *testing.T) {
		id := uuid.New().String()
		rec, err := s.Create(ctx, id, testRequest())
		require.NoError(t, err)
		assert.Equal(t, id, rec.ID)
		assert.Equal(t, model.JobStateRunning, rec.State)
		assert.Equal(t, 0, rec.ProgressPercent)
		assert.Equal(t, testRequest(), rec.Request)
		assert.False(t, rec.CreatedAt.IsZero())

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStateRunning, got.State)
		assert.Equal(t, testRequest(), got.Request)
	})

	t.Run("duplicate create is rejected", func(t *testing.T) {
		id := uuid.New().String()
		_, err := s.Create(ctx, id, testRequest())
		require.NoError(t, err)

		_, err = s.Create(ctx, id, testRequest())
		assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := s.Get(ctx, "missing-"+uuid.New().String())
		assert.True(t, errors.Is(err, apperr.ErrNotFound))

		err = s.Update(ctx, "missing-"+uuid.New().String(), model.JobUpdate{ProgressPercent: model.Ptr(10)})
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("partial update leaves other fields", func(t *testing.T) {
		id := uuid.New().String()
		_, err := s.Create(ctx, id, testRequest())
		require.NoError(t, err)

		require.NoError(t, s.Update(ctx, id, model.JobUpdate{
			ProgressPercent: model.Ptr(30),
			CurrentStep:     model.Ptr("Generating records"),
		}))

		results := []model.BusinessRecord{
			{ID: "b1", Name: "Bistro am Markt", Category: "Bistro", Rating: model.Ptr(4.2)},
			{ID: "b2", Name: "Pizzeria Napoli", Category: "Pizzeria", Coordinates: &model.Coordinates{Lat: 52.5, Lng: 13.4}},
		}
		done := time.Now()
		require.NoError(t, s.Update(ctx, id, model.JobUpdate{
			State:           model.Ptr(model.JobStateCompleted),
			ProgressPercent: model.Ptr(100),
			CompletedAt:     &done,
			ResultCount:     model.Ptr(len(results)),
			Results:         results,
		}))

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.JobStateCompleted, got.State)
		assert.Equal(t, 100, got.ProgressPercent)
		assert.Equal(t, "Generating records", got.CurrentStep)
		require.NotNil(t, got.ResultCount)
		assert.Equal(t, len(got.Results), *got.ResultCount)
		assert.Equal(t, "Bistro am Markt", got.Results[0].Name)
		assert.Equal(t, 4.2, *got.Results[0].Rating)
		assert.Equal(t, 13.4, got.Results[1].Coordinates.Lng)
		assert.NotNil(t, got.CompletedAt)
		assert.Nil(t, got.ErrorDetail)
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		id := uuid.New().String()
		_, err := s.Create(ctx, id, testRequest())
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 1; i <= 10; i++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				assert.NoError(t, s.Update(ctx, id, model.JobUpdate{ProgressPercent: model.Ptr(p)}))
			}(i)
		}
		wg.Wait()

		require.NoError(t, s.Update(ctx, id, model.JobUpdate{ErrorDetail: model.Ptr("boom")}))
		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.ProgressPercent, 1)
		assert.Equal(t, "boom", *got.ErrorDetail)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_GetReturnsSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, "job-1", testRequest())
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, "job-1", model.JobUpdate{
		Results: []model.BusinessRecord{{ID: "b1", Name: "Original"}},
	}))

	got, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	got.Results[0].Name = "Mutated"
	got.State = model.JobStateFailed

	again, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Results[0].Name)
	assert.Equal(t, model.JobStateRunning, again.State)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("skipping: REDIS_ADDR not configured")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("skipping: redis not available: %v", err)
	}

	runStoreContract(t, NewRedisStore(client, time.Hour))
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("skipping: DATABASE_URL not configured")
	}

	ctx := context.Background()
	pool, err := ConnectPostgres(ctx, url, 4)
	if err != nil {
		t.Skipf("skipping: postgres not available: %v", err)
	}
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	runStoreContract(t, NewPostgresStore(pool))
}
