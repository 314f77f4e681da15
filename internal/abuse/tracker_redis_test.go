package abuse

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisTracker(t *testing.T, opts Options) (*RedisTracker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisTracker(client, "abuse", opts, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestRedisThresholdBlocks(t *testing.T) {
	tr, _ := newRedisTracker(t, Options{Window: 10 * time.Minute, Threshold: 5, BlockFor: 15 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		tr.TrackFailure(ctx, "ip:1.2.3.4", "x")
	}
	if tr.IsBlocked(ctx, "ip:1.2.3.4") {
		t.Fatal("under threshold must not block")
	}
	tr.TrackFailure(ctx, "ip:1.2.3.4", "x")
	if !tr.IsBlocked(ctx, "ip:1.2.3.4") {
		t.Fatal("threshold reached, expected block")
	}
}

func TestRedisExplicitBlock(t *testing.T) {
	tr, mr := newRedisTracker(t, Options{})
	ctx := context.Background()

	tr.Block(ctx, "sub:user-1", time.Minute)
	if !tr.IsBlocked(ctx, "sub:user-1") {
		t.Fatal("explicit block not applied")
	}

	mr.FastForward(2 * time.Minute)
	// blocked_until is stored as a wall-clock timestamp, so the block also
	// lapses by comparing against real time once the duration passes.
	if got := mr.Exists("abuse:sub:user-1"); !got {
		t.Skip("miniredis expired the key entirely")
	}
}

func TestRedisFailsOpenWhenUnavailable(t *testing.T) {
	tr, mr := newRedisTracker(t, Options{Threshold: 1})
	ctx := context.Background()
	mr.Close()

	tr.TrackFailure(ctx, "ip:1.1.1.1", "x")
	if tr.IsBlocked(ctx, "ip:1.1.1.1") {
		t.Fatal("a redis outage must fail open")
	}
}
