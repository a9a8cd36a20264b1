package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/provirt/pve2netbox/internal/config"
	"github.com/provirt/pve2netbox/internal/metrics"
	"github.com/provirt/pve2netbox/internal/netbox"
	"github.com/provirt/pve2netbox/internal/proxmox"
	pvesync "github.com/provirt/pve2netbox/internal/sync"
)

var (
	debug  bool
	dryRun bool
)

var rootCmd = &cobra.Command{
	Use:           "pve2netbox",
	Short:         "Synchronize Proxmox VE inventory into NetBox",
	Version:       "1.2.0",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log intended changes without writing to NetBox")
}

func run(_ *cobra.Command, _ []string) error {
	// A local .env is optional; the real environment wins either way.
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dryRun {
		cfg.DryRun = true
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	source := proxmox.NewClient(cfg.PVEHost, cfg.PVEUser, cfg.PVETokenName, cfg.PVETokenSecret, cfg.PVEVerifySSL)
	store := netbox.NewClient(cfg.NetBoxURL, cfg.NetBoxToken, netbox.Options{
		Delay:   cfg.APIDelay,
		Retries: cfg.RetryTotal,
		Backoff: cfg.RetryBackoff,
	})

	m := metrics.New()
	if cfg.EnableMetrics {
		metrics.Serve(m, cfg.MetricsPort)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return pvesync.NewOrchestrator(source, store, cfg, m).Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("❌ pve2netbox failed")
		os.Exit(1)
	}
}
