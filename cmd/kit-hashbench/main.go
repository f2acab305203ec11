package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/synthonyx/kit"
	"github.com/synthonyx/kit/get"
	"github.com/synthonyx/kit/metrics/export/prometheus"
	"github.com/synthonyx/kit/password"
)

const redisKeyPrefix = "kit:password:"

func main() {
	var (
		memory      = flag.Uint("memory", 0, "argon2 memory cost in KiB (0 keeps the configured value)")
		timeCost    = flag.Uint("time", 0, "argon2 time cost (0 keeps the configured value)")
		parallelism = flag.Uint("parallelism", 0, "argon2 lanes (0 keeps the configured value)")
		concurrency = flag.Int("concurrency", 8, "number of concurrent workers")
		ops         = flag.Int("ops", 200, "operations per phase (create + verify + async)")
		envFile     = flag.String("env-file", "", "optional dotenv file with KIT_* settings")
		redisAddr   = flag.String("redis-addr", "", "redis holding kit:password:* overrides; if empty, REDIS_ADDR env or miniredis is used")
		showMetrics = flag.Bool("metrics", false, "print kit metrics in Prometheus text format")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency and ops must be > 0")
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()

	src, err := get.NewEnvSource(get.EnvOptions{File: *envFile, Prefix: "KIT"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := kit.LoadConfig(ctx, src, kit.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	client, cleanup, err := openRedis(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := overlayRedis(ctx, client, &cfg.Password); err != nil {
		fmt.Fprintf(os.Stderr, "redis params: %v\n", err)
		os.Exit(1)
	}

	if *memory > 0 {
		cfg.Password.Memory = uint32(*memory)
	}
	if *timeCost > 0 {
		cfg.Password.Time = uint32(*timeCost)
	}
	if *parallelism > 0 {
		cfg.Password.Parallelism = uint8(*parallelism)
	}
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	k, err := kit.New().WithConfig(cfg).WithLogger(logger).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("argon2id m=%d t=%d p=%d workers=%d\n",
		cfg.Password.Memory, cfg.Password.Time, cfg.Password.Parallelism, cfg.Dispatch.Workers)

	creds := make([]*password.Credential, *ops)
	createStats := runPhase(*ops, *concurrency, func(i int, _ *rand.Rand) error {
		c, err := k.NewCredential(plaintextFor(i))
		if err != nil {
			return err
		}
		creds[i] = c
		return nil
	})

	verifyStats := runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
		idx := r.Intn(len(creds))
		if creds[idx] == nil {
			return errors.New("missing credential")
		}
		ok, err := creds[idx].Verify(plaintextFor(idx))
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("password mismatch")
		}
		return nil
	})

	asyncStats := runPhase(*ops, *concurrency, func(i int, _ *rand.Rand) error {
		f, err := k.HashAsync(ctx, plaintextFor(i))
		if err != nil {
			return err
		}
		_, err = f.Await(ctx)
		return err
	})

	k.Close()

	fmt.Println("---- results ----")
	printStats("create", createStats)
	printStats("verify", verifyStats)
	printStats("async", asyncStats)

	if *showMetrics {
		fmt.Println("---- metrics ----")
		fmt.Print(prometheus.NewExporter(k).Render())
	}
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	fmt.Printf("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }, nil
}

// overlayRedis applies kit:password:{memory,time,parallelism} when present.
func overlayRedis(ctx context.Context, client redis.UniversalClient, cfg *kit.PasswordConfig) error {
	memory, err := get.Or[uint32](get.Redis[uint32](client, redisKeyPrefix+"memory"), cfg.Memory).Load(ctx)
	if err != nil {
		return err
	}
	timeCost, err := get.Or[uint32](get.Redis[uint32](client, redisKeyPrefix+"time"), cfg.Time).Load(ctx)
	if err != nil {
		return err
	}
	parallelism, err := get.Or[uint8](get.Redis[uint8](client, redisKeyPrefix+"parallelism"), cfg.Parallelism).Load(ctx)
	if err != nil {
		return err
	}

	cfg.Memory, cfg.Time, cfg.Parallelism = memory, timeCost, parallelism
	return nil
}

func runPhase(ops, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.1f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func plaintextFor(i int) string {
	return fmt.Sprintf("bench-password-%06d", i)
}
