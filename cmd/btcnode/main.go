package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/dmills/btcnode/internal/config"
	"github.com/dmills/btcnode/internal/control"
	"github.com/dmills/btcnode/internal/logger"
	"github.com/dmills/btcnode/internal/metrics"
	"github.com/dmills/btcnode/internal/selftest"
)

// Exit codes per spec §6: 0 success, 1 configuration error, 2 network
// bind failure, 3 unrecoverable protocol error.
const (
	exitOK            = 0
	exitConfigError   = 1
	exitBindFailure   = 2
	exitProtocolError = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: node <listen|mine|test> [flags]")
		return exitConfigError
	}

	switch args[0] {
	case "--listen", "listen":
		return runListen(args[1:])
	case "mine":
		return runMine(args[1:])
	case "test":
		return runTest(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		return exitConfigError
	}
}

func runListen(args []string) int {
	fs := flag.NewFlagSet("listen", flag.ContinueOnError)
	peers := fs.String("peers", "", "comma-separated IP:port seed peers")
	datadir := fs.String("datadir", "", "override data directory")
	configPath := fs.String("config", "config.json", "path to config.json")
	if err := fs.Parse(args); err != nil {
		return exitConfigError
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log.Error().Err(err).Msg("failed to load config")
		return exitConfigError
	}
	if *datadir != "" {
		cfg.DataDir = *datadir
	}
	if err := config.Validate(cfg); err != nil {
		logger.Log.Error().Err(err).Msg("invalid configuration")
		return exitConfigError
	}

	logger.Log.Info().Str("network", cfg.Network).Uint16("port", cfg.Port).Msg("starting btcnode")

	node, err := control.New(cfg)
	if err != nil {
		logger.Log.Error().Err(err).Msg("failed to initialize node")
		return exitConfigError
	}

	if loadErr := node.LoadPeers(cfg.DataDir + "/peers.dat"); loadErr != nil {
		logger.Log.Debug().Err(loadErr).Msg("no existing peers.dat, starting with an empty address book")
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsAddr)
	logger.Log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server started")
	defer metricsSrv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *peers != "" {
		for _, addr := range strings.Split(*peers, ",") {
			addr = strings.TrimSpace(addr)
			if addr != "" {
				node.DialSeed(ctx, addr)
			}
		}
	}

	runDone := make(chan error, 1)
	go func() { runDone <- node.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	case err := <-runDone:
		if err != nil {
			logger.Log.Error().Err(err).Msg("node exited with error")
			return exitBindFailure
		}
		return exitOK
	}

	select {
	case err := <-runDone:
		if err != nil {
			logger.Log.Error().Err(err).Msg("error during shutdown")
			return exitProtocolError
		}
	case <-time.After(10 * time.Second):
		logger.Log.Warn().Msg("shutdown timeout, forcing exit")
	}
	return exitOK
}

func runMine(args []string) int {
	fs := flag.NewFlagSet("mine", flag.ContinueOnError)
	blockPath := fs.String("block", "", "path to a serialized block to mine")
	if err := fs.Parse(args); err != nil {
		return exitConfigError
	}
	if *blockPath == "" {
		fmt.Fprintln(os.Stderr, "mine requires --block=PATH")
		return exitConfigError
	}

	nonce, hash, ok, err := mineFile(*blockPath)
	if err != nil {
		logger.Log.Error().Err(err).Msg("mining failed")
		return exitProtocolError
	}
	if !ok {
		logger.Log.Warn().Msg("nonce space exhausted without a solution")
		return exitProtocolError
	}
	// chainhash.Hash.String() reverses byte order to match Bitcoin's
	// big-endian hex display convention for block hashes.
	fmt.Printf("nonce: %d\nhash: %s\n", nonce, chainhash.Hash(hash).String())
	return exitOK
}

func runTest(args []string) int {
	if selftest.Run(os.Stdout) {
		return exitOK
	}
	return exitProtocolError
}
