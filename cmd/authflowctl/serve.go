package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authflow/identity/engine"
	"github.com/MrEthical07/authflow/identity/engine/sqlitestore"
	"github.com/MrEthical07/authflow/identity/httpapi"
	"github.com/MrEthical07/authflow/internal/audit"
)

type serveOptions struct {
	addr      string
	db        string
	redisAddr string
}

func newServeCmd(g *globalOptions) *cobra.Command {
	o := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the identity backend over HTTP",
		Long: "Serve the identity backend over HTTP. Engine settings come from AUTHFLOW_* variables. " +
			"Without --redis-addr or REDIS_ADDR an in-process Redis is used and a throwaway JWT key is generated.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), g.logger(cmd), o)
		},
	}
	cmd.Flags().StringVar(&o.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&o.db, "db", "authflow.db", "sqlite database path")
	cmd.Flags().StringVar(&o.redisAddr, "redis-addr", "", "redis address (default REDIS_ADDR or in-process)")
	return cmd
}

func runServe(ctx context.Context, logger *slog.Logger, o *serveOptions) error {
	cfg, err := engine.LoadConfigFromEnv()
	if err != nil {
		return err
	}

	rdb, dev, cleanup, err := openRedis(o.redisAddr)
	if err != nil {
		return err
	}
	defer cleanup()
	if dev {
		logger.Warn("using in-process redis; data is lost on exit")
		if cfg.JWTKey == "" {
			if cfg.JWTKey, err = randomKey(); err != nil {
				return err
			}
			logger.Warn("generated a throwaway JWT signing key")
		}
	}

	users, err := sqlitestore.Open(o.db)
	if err != nil {
		return err
	}
	defer users.Close()

	eng, err := engine.New(cfg, rdb, users,
		engine.WithLogger(logger),
		engine.WithMailer(engine.LogMailer{Logger: logger}),
		engine.WithAuditSink(audit.NewSlogSink(logger)),
	)
	if err != nil {
		return err
	}
	defer eng.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount("/", httpapi.NewHandler(eng, httpapi.WithLogger(logger)))

	srv := &http.Server{
		Addr:              o.addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", o.addr), slog.String("db", o.db))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// openRedis connects to addr, REDIS_ADDR, or an in-process miniredis, in that
// order. dev reports the in-process case.
func openRedis(addr string) (client redis.UniversalClient, dev bool, cleanup func(), err error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		return client, false, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, false, nil, err
	}
	client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	return client, true, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func randomKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
