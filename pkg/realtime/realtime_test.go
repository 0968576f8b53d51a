package realtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ldm616/justus-sub000/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestChannel(t *testing.T) {
	id := uuid.MustParse("6f1c1d0e-6a57-4d3f-9b8e-2f1a7d0f0c11")
	assert.Equal(t, "justus:family:6f1c1d0e-6a57-4d3f-9b8e-2f1a7d0f0c11:changes", Channel(id))
}

func TestNop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var bus Nop
	require.NoError(t, bus.Publish(ctx, models.Change{}))

	ch, err := bus.Subscribe(ctx, uuid.New())
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisBus_PublishSubscribe(t *testing.T) {
	client := setupRedis(t)
	bus := NewRedisBus(client, zap.NewNop().Sugar())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	family, other := uuid.New(), uuid.New()
	ch, err := bus.Subscribe(ctx, family)
	require.NoError(t, err)

	rowID := uuid.New()
	require.NoError(t, bus.Publish(ctx, models.Change{Table: "photos", FamilyID: other, Op: models.OpInsert, RowID: uuid.New()}))
	require.NoError(t, bus.Publish(ctx, models.Change{Table: "photos", FamilyID: family, Op: models.OpUpdate, RowID: rowID, At: time.Now().UTC()}))

	select {
	case got := <-ch:
		assert.Equal(t, family, got.FamilyID)
		assert.Equal(t, rowID, got.RowID)
		assert.Equal(t, models.OpUpdate, got.Op)
	case <-ctx.Done():
		t.Fatal("no change received")
	}
}
