// Command freezeguardd runs the unfrozen-block consensus core as a
// standalone daemon: it loads a config, wires the consensus.Manager to its
// collaborators, and drives the vote/freeze/fetch loop on a tick. It
// serves Prometheus metrics and the admin control surface over HTTP.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/blockberries/freezeguard/consensus"
	"github.com/blockberries/freezeguard/types"
)

func main() {
	var (
		configPath  = flag.String("config", "freezeguard.toml", "path to the TOML config file")
		adminAddr   = flag.String("admin-addr", "127.0.0.1:7071", "admin API listen address")
		metricsAddr = flag.String("metrics-addr", "127.0.0.1:7072", "Prometheus metrics listen address")
		diagPath    = flag.String("diagnostics", "", "path to the diagnostic sink file (disabled if empty)")
		meshSize    = flag.Int("mesh-size", 1, "standalone mesh size used during the genesis cycle")
		tickPeriod  = flag.Duration("tick", time.Second, "how often to run the vote/freeze/sweep loop")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Str("component", "freezeguardd").Logger()

	cfg, err := consensus.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
	}

	registry := prometheus.NewRegistry()
	metrics := consensus.NewMetrics(registry)

	chain := newStandaloneChain(10, *meshSize, uint64(cfg.PerHeightCap))
	balances := standaloneBalances{}
	votes := newStandaloneVoteRegistry()
	mesh := &standaloneMesh{onBroadcast: func(v types.BlockVote) {
		logger.Debug().Uint64("height", v.Height).Str("hash", v.Hash.String()).Msg("vote broadcast")
	}}
	nodes := standaloneNodes{size: *meshSize}

	var localID types.Hash
	localID[0] = 1 // stand-in node identity; a real deployment derives this from its key.

	manager, err := consensus.NewManager(cfg, chain, balances, votes, mesh, nodes, systemClock{}, localID, logger, metrics)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to construct consensus manager")
	}

	if *diagPath != "" {
		sink, err := consensus.NewFileDiagnosticSink(*diagPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *diagPath).Msg("failed to open diagnostic sink")
		}
		defer sink.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := &http.Server{Addr: *metricsAddr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
	adminServer := &http.Server{Addr: *adminAddr, Handler: newAdminAPI(manager, *diagPath, logger).router()}

	go func() {
		logger.Info().Str("addr", *metricsAddr).Msg("serving metrics")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	go func() {
		logger.Info().Str("addr", *adminAddr).Msg("serving admin API")
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server stopped")
		}
	}()

	go runTickLoop(ctx, manager, *tickPeriod, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	_ = adminServer.Shutdown(shutdownCtx)
}

// runTickLoop drives UpdateVote, AttemptToFreeze, and Sweep on every tick
// until ctx is cancelled. The teacher's TimeoutTicker escalates delays
// across consensus rounds; this core has no rounds, so a plain ticker is
// enough to keep voting, freezing, and fetching current.
func runTickLoop(ctx context.Context, m *consensus.Manager, period time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.UpdateVote()
			m.AttemptToFreeze()

			sweepCtx, cancel := context.WithTimeout(ctx, period)
			if err := m.Sweep(sweepCtx); err != nil {
				logger.Debug().Err(err).Msg("sweep for missing blocks failed")
			}
			cancel()
		}
	}
}
