package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T, ctx context.Context) *redis.Client {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisCheckpointStore(t *testing.T) {
	ctx := context.Background()
	store := NewRedisCheckpointStore(setupTestRedis(t, ctx))

	t.Run("Load unknown instance returns ErrNotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Save and Load round-trips", func(t *testing.T) {
		cp := &Checkpoint{
			InstanceKey: "user-1",
			RunID:       uuid.New().String(),
			Node:        "validate",
			State:       []byte(`{"userId":"user-1"}`),
		}
		require.NoError(t, store.Save(ctx, cp))

		loaded, err := store.Load(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, cp.RunID, loaded.RunID)
		assert.Equal(t, "validate", loaded.Node)
		assert.JSONEq(t, string(cp.State), string(loaded.State))
		assert.False(t, loaded.UpdatedAt.IsZero())
	})

	t.Run("Save replaces the previous checkpoint", func(t *testing.T) {
		runID := uuid.New().String()
		require.NoError(t, store.Save(ctx, &Checkpoint{
			InstanceKey: "user-2", RunID: runID, Node: "rerank", State: []byte(`{}`),
		}))
		require.NoError(t, store.Save(ctx, &Checkpoint{
			InstanceKey: "user-2", RunID: runID, Node: "end", State: []byte(`{"response":"Recommendations valid"}`),
		}))

		loaded, err := store.Load(ctx, "user-2")
		require.NoError(t, err)
		assert.Equal(t, "end", loaded.Node)
	})
}
