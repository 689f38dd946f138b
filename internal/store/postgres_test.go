package store_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saaga0h/lumos-platform/internal/store"
	"github.com/saaga0h/lumos-platform/internal/store/migrations"
	"github.com/saaga0h/lumos-platform/pkg/config"
	"github.com/saaga0h/lumos-platform/pkg/postgres"
)

// setupPostgresStore starts a throwaway Postgres container and migrates it.
// Set LUMOS_INTEGRATION=1 to run; it needs a Docker daemon.
func setupPostgresStore(t *testing.T, loc *time.Location) *store.PostgresStore {
	t.Helper()
	if os.Getenv("LUMOS_INTEGRATION") == "" {
		t.Skip("Integration test - set LUMOS_INTEGRATION=1 to run against PostgreSQL")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("lumos_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := postgres.NewClientWithDSN(dsn, config.NewConfig(), logger)
	require.NoError(t, client.Connect(ctx))
	t.Cleanup(func() { _ = client.Disconnect() })

	require.NoError(t, client.Migrate(ctx, migrations.FS))
	// Second run must be a no-op
	require.NoError(t, client.Migrate(ctx, migrations.FS))
	require.NoError(t, client.Probe(ctx))

	return store.NewPostgresStore(client, loc, logger)
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	s := setupPostgresStore(t, loc)
	ctx := context.Background()

	midnight := time.Date(2024, 3, 10, 0, 0, 0, 0, loc).Unix()
	inserted := []int64{midnight + 3600, midnight + 5, midnight + 130, midnight}
	for _, ts := range inserted {
		event, err := s.Insert(ctx, ts)
		require.NoError(t, err)
		assert.NotZero(t, event.ID)
		assert.Equal(t, "2024-03-10", event.Day)
	}
	_, err := s.Insert(ctx, midnight-1)
	require.NoError(t, err)

	events, err := s.EventsForDay(ctx, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, events, len(inserted))
	for i := 1; i < len(events); i++ {
		assert.Less(t, events[i-1].Timestamp, events[i].Timestamp)
	}
	assert.Equal(t, "EET", events[0].TZ)

	count, err := s.CountForDay(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	total, err := s.TotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	histogram, err := s.HourlyHistogram(ctx, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, map[int]int64{0: 3, 1: 1}, histogram)

	counts, err := s.CountsForRange(ctx, "2024-03-04", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"2024-03-09": 1, "2024-03-10": 4}, counts)

	recent, err := s.RecentEvents(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, midnight+3600, recent[0].Timestamp)
	assert.Equal(t, midnight+130, recent[1].Timestamp)

	all, err := s.RecentEvents(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
