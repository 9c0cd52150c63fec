package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupRedis starts a Redis testcontainer and returns a connected client.
// Skipped under -short.
func SetupRedis(tb testing.TB) *redis.Client {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping redis container in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		tb.Fatalf("starting redis container: %v", err)
	}
	tb.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			tb.Logf("terminating redis container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		tb.Fatalf("getting redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		tb.Fatalf("parsing redis url %q: %v", uri, err)
	}

	client := redis.NewClient(opts)
	tb.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		tb.Fatalf("pinging redis: %v", err)
	}
	return client
}
