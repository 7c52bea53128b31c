package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpillora/requestlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/sheetbridge/pkg/sheetbridge"
)

func newServeCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept channel connections over websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.load(cmd); err != nil {
				return err
			}
			return c.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&c.cfg.ListenAddr, "listen", c.cfg.ListenAddr, "address to listen on")
	cmd.Flags().IntVar(&c.cfg.CacheSize, "cache-size", c.cfg.CacheSize, "documents kept in memory")
	cmd.Flags().BoolVar(&c.cfg.SingleFlight, "single-flight", c.cfg.SingleFlight, "share one request between concurrent first fetches of a document")
	cmd.Flags().DurationVar(&c.cfg.ShutdownTimeout, "shutdown-timeout", c.cfg.ShutdownTimeout, "time to wait for channels on shutdown")
	cmd.Flags().BoolVar(&c.cfg.Debug, "debug", c.cfg.Debug, "log every HTTP request")
	return cmd
}

func (c *cli) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	b, err := c.bridge(sheetbridge.WithMetricsRegistry(reg))
	if err != nil {
		return err
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}

	var h http.Handler = b.Handler()
	if c.cfg.Debug {
		h = requestlog.Wrap(h)
	}
	srv := &http.Server{
		Addr:              c.cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.ShutdownTimeout)
		defer cancel()
		// Channels are hijacked connections; the bridge closes them.
		stopErr := b.Stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return stopErr
	})

	return g.Wait()
}
