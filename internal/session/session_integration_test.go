//go:build integration

package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dyluth/corkboard/pkg/board"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container for testing.
func setupRedis(t *testing.T) string {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return fmt.Sprintf("redis://%s:%s", host, port.Port())
}

// TestTwoParticipants_Converge runs two sessions on one board against a real
// Redis and checks that both end up with the same board.
func TestTwoParticipants_Converge(t *testing.T) {
	redisURL := setupRedis(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err)

	client, err := board.NewClient(opts, "integration")
	require.NoError(t, err)
	defer client.Close()

	initial := &board.Board{ID: "b1", Name: "Shared", Width: 100, Height: 80, Items: []board.Item{}}
	require.NoError(t, client.SaveBoard(ctx, initial))

	state, locks, err := client.LoadState(ctx, "b1")
	require.NoError(t, err)

	// alice writes the board back, bob only follows it
	alice := New(state, locks, client, Options{Buffer: 32})
	bob := New(state, locks, nil, Options{Buffer: 32})

	sub, err := client.SubscribeEvents(ctx, "b1")
	require.NoError(t, err)
	defer sub.Close()
	go bob.Run(ctx, sub)

	edits := []board.Event{
		board.AddItem{BoardID: "b1", Items: []board.Item{
			board.Note{ID: "n1", Bounds: board.Bounds{Width: 5, Height: 5}, Text: "hello", Color: "yellow"},
			board.Container{ID: "c1", Bounds: board.Bounds{X: 40, Y: 40, Width: 30, Height: 20}, Text: "Done"},
		}},
		board.LockItem{BoardID: "b1", ItemID: "n1", UserID: "alice"},
		board.MoveItem{BoardID: "b1", Items: []board.ItemPosition{{ID: "n1", X: 45, Y: 45}}},
		board.UpdateItem{BoardID: "b1", Items: []board.ItemPatch{{ID: "n1", ContainerID: strPtr("c1")}}},
		board.UnlockItem{BoardID: "b1", ItemID: "n1", UserID: "alice"},
	}
	for _, e := range edits {
		_, err := alice.Apply(ctx, e)
		require.NoError(t, err)
		require.NoError(t, client.PublishEvent(ctx, e))
	}

	undone, err := alice.Undo(ctx)
	require.NoError(t, err)
	require.NoError(t, client.PublishEvent(ctx, undone))

	aliceState, aliceLocks := alice.Snapshot()
	require.Eventually(t, func() bool {
		bobState, bobLocks := bob.Snapshot()
		return len(bobState.History) == len(aliceState.History) &&
			assert.ObjectsAreEqual(aliceState.Board, bobState.Board) &&
			assert.ObjectsAreEqual(aliceLocks, bobLocks)
	}, 5*time.Second, 50*time.Millisecond)

	bobState, bobLocks := bob.Snapshot()
	assert.Equal(t, aliceState.Board, bobState.Board)
	assert.Equal(t, aliceLocks, bobLocks)
	assert.Empty(t, aliceState.Board.Contained("c1"))

	stored, storedLocks, err := client.LoadState(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, aliceState, stored)
	assert.Equal(t, aliceLocks, storedLocks)
}
