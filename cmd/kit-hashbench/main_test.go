package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/synthonyx/kit"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	if got := percentile(samples, 0); got != 1 {
		t.Fatalf("p0 = %d", got)
	}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50 = %d", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100 = %d", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty p50 = %d", got)
	}
}

func TestComputeStats(t *testing.T) {
	s := computeStats(time.Second, []time.Duration{3, 1, 2}, 1)
	if s.ops != 3 || s.failures != 1 || s.p50 != 2 || s.opsPerS != 3 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestOverlayRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mr.Set(redisKeyPrefix+"time", "4")

	cfg := kit.DefaultConfig().Password
	if err := overlayRedis(context.Background(), client, &cfg); err != nil {
		t.Fatalf("overlayRedis error: %v", err)
	}
	if cfg.Time != 4 {
		t.Fatalf("expected time 4, got %d", cfg.Time)
	}
	if cfg.Memory != kit.DefaultConfig().Password.Memory {
		t.Fatalf("unset key must keep value, got memory=%d", cfg.Memory)
	}

	mr.Set(redisKeyPrefix+"parallelism", "many")
	if err := overlayRedis(context.Background(), client, &cfg); err == nil {
		t.Fatal("expected conversion error")
	}
}
