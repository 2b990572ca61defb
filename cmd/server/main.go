// Command server starts a single Chord node listening on host:port with
// ring size m: `server <host> <port> <m>`.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chordring/internal/chordring"
	"chordring/internal/config"
	"chordring/internal/logging"
	"chordring/internal/transport"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "server <host> <port> <m>",
	Short: "Start a Chord node",
	Args:  cobra.ExactArgs(3),
	RunE:  runServer,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file")
}

func runServer(cmd *cobra.Command, args []string) error {
	host, portStr, bitsStr := args[0], args[1], args[2]

	bits, err := strconv.Atoi(bitsStr)
	if err != nil {
		return fmt.Errorf("invalid m %q: %w", bitsStr, err)
	}

	cfg, err := config.LoadFile(config.Default(), configPath)
	if err != nil {
		return err
	}
	cfg.HashBits = bits
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	addr := net.JoinHostPort(host, portStr)
	client := transport.NewClient(logger)
	node := chordring.New(addr, cfg, client, logger)
	server := transport.NewServer(addr, node, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting node", zap.String("address", addr), zap.Int("hash_bits", cfg.HashBits))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.ListenAndServe(gctx) })
	g.Go(func() error { return node.RunMaintenance(gctx) })

	if err := g.Wait(); err != nil &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, transport.ErrShutdownRequested) {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
