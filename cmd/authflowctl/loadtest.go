package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/authflow/identity"
	"github.com/MrEthical07/authflow/identity/engine"
	"github.com/MrEthical07/authflow/identity/engine/sqlitestore"
)

type loadTestOptions struct {
	accounts    int
	concurrency int
	ops         int
	redisAddr   string
	argon2KB    uint32
}

func newLoadTestCmd(g *globalOptions) *cobra.Command {
	o := &loadTestOptions{}
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Measure sign-in and reset-request latency against an in-process engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.accounts <= 0 || o.concurrency <= 0 || o.ops <= 0 {
				return errors.New("accounts, concurrency, and ops must be > 0")
			}
			return runLoadTest(cmd.Context(), cmd.OutOrStdout(), g.logger(cmd), o)
		},
	}
	cmd.Flags().IntVar(&o.accounts, "accounts", 200, "number of accounts to seed")
	cmd.Flags().IntVar(&o.concurrency, "concurrency", 32, "number of concurrent workers")
	cmd.Flags().IntVar(&o.ops, "ops", 2000, "operations per phase")
	cmd.Flags().StringVar(&o.redisAddr, "redis-addr", "", "redis address (default REDIS_ADDR or in-process)")
	cmd.Flags().Uint32Var(&o.argon2KB, "argon2-memory-kb", 8*1024, "argon2 memory cost for seeded accounts")
	return cmd
}

func runLoadTest(ctx context.Context, out io.Writer, logger *slog.Logger, o *loadTestOptions) error {
	rdb, dev, cleanup, err := openRedis(o.redisAddr)
	if err != nil {
		return err
	}
	defer cleanup()
	if dev {
		fmt.Fprintln(out, "using in-process redis")
	}

	users, err := sqlitestore.Open(":memory:")
	if err != nil {
		return err
	}
	defer users.Close()

	key, err := randomKey()
	if err != nil {
		return err
	}
	cfg := engine.DefaultConfig()
	cfg.JWTKey = key
	cfg.RedisPrefix = "aflt"
	cfg.Argon2MemoryKB = o.argon2KB
	cfg.Argon2Time = 1
	cfg.EnableIPThrottle = false
	cfg.MaxSignUps = o.accounts + 1
	cfg.MaxResetRequests = o.ops + 1
	cfg.EnumerationDelayMin = time.Microsecond
	cfg.EnumerationDelayMax = time.Microsecond

	eng, err := engine.New(cfg, rdb, users,
		engine.WithLogger(logger),
		engine.WithMailer(discardMailer{}),
	)
	if err != nil {
		return err
	}
	defer eng.Close()

	emails := make([]string, o.accounts)
	fmt.Fprintf(out, "seeding %d accounts...\n", o.accounts)
	startSeed := time.Now()
	for i := range emails {
		emails[i] = fmt.Sprintf("load-%d@example.com", i)
		_, err := eng.SignUp(ctx, identity.SignUpParams{Name: "load", Email: emails[i], Password: "loadtest-pw"})
		if err != nil {
			return fmt.Errorf("seed %s: %w", emails[i], err)
		}
	}
	fmt.Fprintf(out, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	signIn := runPhase(ctx, o.ops, o.concurrency, func(ctx context.Context, r *rand.Rand) error {
		_, err := eng.SignIn(ctx, emails[r.Intn(len(emails))], "loadtest-pw")
		return err
	})
	reset := runPhase(ctx, o.ops, o.concurrency, func(ctx context.Context, r *rand.Rand) error {
		return eng.SendResetOTP(ctx, emails[r.Intn(len(emails))])
	})

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "sign_in", signIn)
	printStats(out, "reset_request", reset)
	return nil
}

type discardMailer struct{}

func (discardMailer) SendPasswordReset(context.Context, engine.ResetMessage) error { return nil }

func runPhase(ctx context.Context, ops, concurrency int, op func(context.Context, *rand.Rand) error) phaseStats {
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
				if i >= ops || ctx.Err() != nil {
					return
				}
				t0 := time.Now()
				err := op(ctx, r)
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
		return phaseStats{total: total, failures: failures}
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

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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
