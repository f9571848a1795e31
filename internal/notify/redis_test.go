package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"title-party/internal/config"
	"title-party/internal/game"
)

func TestRedisRelayForwardsToLocalBus(t *testing.T) {
	if testing.Short() {
		t.Skip("redis container test skipped in short mode")
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	cfg := config.Default()
	cfg.RedisAddr = addr
	client, err := DialRedis(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	bus := NewBus()
	got := make(chan game.Change, 16)
	bus.Subscribe(func(change game.Change) { got <- change })

	relay := NewRedisRelay(client, bus, nil)
	go func() { _ = relay.Run(ctx) }()

	want := game.Change{RoomID: "room-1", Record: game.RecordSubmissions, PlayerID: "p1"}
	require.Eventually(t, func() bool {
		if err := relay.Publish(ctx, want); err != nil {
			return false
		}
		select {
		case change := <-got:
			return change == want
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 10*time.Second, 200*time.Millisecond)
}

func TestDialRedisUnavailable(t *testing.T) {
	cfg := config.Default()
	cfg.RedisAddr = "127.0.0.1:1"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := DialRedis(ctx, cfg, nil)
	assert.ErrorIs(t, err, game.ErrUnavailable)
}
