package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/praetorian-inc/sennatag/pkg/engine"
	"github.com/praetorian-inc/sennatag/pkg/serve"
)

var (
	serveEngine      engineFlags
	serveMetricsAddr string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as a streaming tagging server",
		Long: `Run sennatag as a long-lived server that accepts tag requests via stdin
and writes tagged documents to stdout using NDJSON format.

The server answers until stdin closes, a "close" request arrives, or SIGTERM
is received. With --metrics-addr, engine process metrics are exposed for
Prometheus at /metrics.`,
		RunE: runServe,
	}

	serveEngine = engineFlags{}
	serveEngine.bind(cmd)
	cmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Address for the Prometheus metrics endpoint (e.g. :2112)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := serveEngine.apply(cmd, &cfg.Engine); err != nil {
		return err
	}
	logger := newLogger()

	reg := prometheus.NewRegistry()
	eng, err := engine.New(cfg.Engine,
		engine.WithLogger(logger),
		engine.WithStderr(cmd.ErrOrStderr()),
		engine.WithMetrics(engine.NewMetrics(reg)),
	)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveMetricsAddr != "" {
		shutdown, err := startMetricsServer(serveMetricsAddr, reg)
		if err != nil {
			return err
		}
		defer shutdown()
		logger.Info("metrics server listening", "addr", serveMetricsAddr)
	}

	srv := serve.NewServer(eng, cmd.InOrStdin(), cmd.OutOrStdout(),
		serve.WithLogger(logger),
		serve.WithLayers(eng.Config().Layers),
	)
	err = srv.Run(ctx)
	eng.Cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startMetricsServer serves reg at /metrics and returns a function that stops
// the server.
func startMetricsServer(addr string, reg *prometheus.Registry) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go server.Serve(ln)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}, nil
}
