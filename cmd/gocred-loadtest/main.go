package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/store/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const loadPassword = "L0ad-test!"

type account struct {
	id       string
	username string
	remember string
}

func main() {
	var (
		accounts    = flag.Int("accounts", 1000, "number of verified accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gcload", "credential key prefix")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	// A cheap hasher keeps the run about store contention, not key stretching.
	cfg := goCred.DefaultConfig()
	cfg.Hasher = goCred.HasherConfig{Algorithm: "bcrypt", BcryptCost: bcrypt.MinCost}
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := goCred.New().
		WithConfig(cfg).
		WithStore(redisstore.New(client, *prefix)).
		WithGrantStore(redisstore.NewGrants(client, *prefix)).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d accounts...\n", *accounts)
	startSeed := time.Now()
	seeded := make([]account, *accounts)
	for i := range seeded {
		acc, err := seedAccount(ctx, engine, i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
		seeded[i] = acc
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		acc := seeded[r.IntN(len(seeded))]
		_, err := engine.Login(ctx, goCred.LoginRequest{Identifier: acc.username, Password: loadPassword})
		return err
	})
	rememberStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		acc := seeded[r.IntN(len(seeded))]
		_, err := engine.ValidateRememberToken(ctx, acc.remember)
		return err
	})

	contended, err := engine.Register(ctx, goCred.RegisterRequest{
		Username: "contended",
		Email:    "contended@load.test",
		Password: loadPassword,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "register failed: %v\n", err)
		os.Exit(1)
	}
	var mismatches atomic.Int64
	verifyStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		err := engine.VerifyOTP(ctx, goCred.VerifyOTPRequest{AccountID: contended.AccountID, Code: "000000"})
		if errors.Is(err, goCred.ErrMismatch) {
			mismatches.Add(1)
		}
		if errors.Is(err, goCred.ErrMismatch) || errors.Is(err, goCred.ErrAttemptsExhausted) {
			return nil
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("remember", rememberStats)
	printStats("verify-contended", verifyStats)
	fmt.Printf("verify-contended: mismatches=%d (want %d)\n", mismatches.Load(), cfg.OTP.MaxVerifyAttempts)

	snap := engine.MetricsSnapshot()
	fmt.Printf("counters: login_success=%d login_failure=%d otp_exhausted=%d\n",
		snap.Counters[goCred.MetricLoginSuccess],
		snap.Counters[goCred.MetricLoginFailure],
		snap.Counters[goCred.MetricOTPAttemptsExhausted],
	)
}

func seedAccount(ctx context.Context, engine *goCred.Engine, i int) (account, error) {
	username := fmt.Sprintf("load_%d", i)
	reg, err := engine.Register(ctx, goCred.RegisterRequest{
		Username: username,
		Email:    username + "@load.test",
		Password: loadPassword,
	})
	if err != nil {
		return account{}, err
	}
	if err := engine.VerifyOTP(ctx, goCred.VerifyOTPRequest{AccountID: reg.AccountID, Code: reg.OTP.Code}); err != nil {
		return account{}, err
	}
	token, err := engine.IssueRememberToken(ctx, reg.AccountID)
	if err != nil {
		return account{}, err
	}
	return account{id: reg.AccountID, username: username, remember: token}, nil
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
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
			r := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
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
	total := time.Since(start)
	return computeStats(total, latencies, failures)
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
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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
