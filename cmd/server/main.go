package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/config"
	"github.com/yadavnikhil03/scrcpy-gui/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	port := flag.String("port", cfg.Server.Port, "Server port")
	host := flag.String("host", cfg.Server.Host, "Listen address")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development logging (colored, debug level)")
	level := flag.String("log-level", cfg.Logging.Level, "Log level")
	binDir := flag.String("bin-dir", cfg.Collaborator.BinDir, "Folder holding adb and scrcpy")
	state := flag.String("state", cfg.State.Path, "Persisted state file")
	refresh := flag.Duration("refresh", cfg.Discovery.RefreshInterval, "Auto-refresh interval")
	mdns := flag.Bool("mdns", cfg.Discovery.MDNSEnabled, "Browse the local network for wireless-debugging services")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Server.Host = *host
	cfg.Logging.Development = *dev
	cfg.Logging.Level = *level
	if *dev && !flagSet("log-level") {
		cfg.Logging.Level = "debug"
	}
	cfg.Collaborator.BinDir = *binDir
	cfg.State.Path = *state
	cfg.Discovery.RefreshInterval = *refresh
	cfg.Discovery.MDNSEnabled = *mdns

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down gracefully...")
	case err := <-errChan:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
		os.Exit(1)
	}
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
