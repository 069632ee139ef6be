package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bedrockd/bedrockd/internal/config"
	"github.com/bedrockd/bedrockd/internal/gamelayer"
	"github.com/bedrockd/bedrockd/internal/logging"
	"github.com/bedrockd/bedrockd/server"
	"github.com/bedrockd/bedrockd/world/chunk"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "bedrockd.toml", "path to the server's TOML config file")
	flag.Parse()

	logging.Banner("Bedrock Core Server", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal("load config %s: %v", *configPath, err)
	}
	logging.Success("configuration loaded from %s", *configPath)
	logging.Info("server name: %s", cfg.ServerName)
	logging.Info("host: %s:%d  max players: %d", cfg.Host, cfg.Port, cfg.MaxPlayers)
	logging.Info("protocol version: %d  compression: %s (threshold %d)", cfg.ProtocolVersion, cfg.CompressionAlgorithm, cfg.CompressionThreshold)
	logging.Info("world: %s (seed %d)", cfg.WorldName, cfg.WorldSeed)

	srv := server.New(cfg)
	srv.ChunkSource = gamelayer.NewFlatWorld(chunk.GameVersion(1, 21, 50, 1))
	logging.Success("flat world generator ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		logging.Fatal("server error: %v", err)
	case sig := <-sigChan:
		logging.Warn("received signal: %v", sig)
		logging.Info("shutting down gracefully...")

		srv.Stop()
		time.Sleep(1 * time.Second)

		logging.Success("server stopped")
		os.Exit(0)
	}
}
