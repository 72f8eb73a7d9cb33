package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/goran-ethernal/TransferCrawler/internal/block"
	"github.com/goran-ethernal/TransferCrawler/internal/common"
	"github.com/goran-ethernal/TransferCrawler/internal/config"
	"github.com/goran-ethernal/TransferCrawler/internal/control"
	"github.com/goran-ethernal/TransferCrawler/internal/crawler"
	"github.com/goran-ethernal/TransferCrawler/internal/db"
	"github.com/goran-ethernal/TransferCrawler/internal/ledger"
	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/goran-ethernal/TransferCrawler/internal/metrics"
	"github.com/goran-ethernal/TransferCrawler/internal/migrations"
	"github.com/goran-ethernal/TransferCrawler/internal/notifier"
	"github.com/goran-ethernal/TransferCrawler/internal/store"
	"github.com/goran-ethernal/TransferCrawler/internal/watchlist"
	pkgconfig "github.com/goran-ethernal/TransferCrawler/pkg/config"
	pkgcontrol "github.com/goran-ethernal/TransferCrawler/pkg/control"
)

const (
	appName = "TransferCrawler"
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════╗
║         TransferCrawler v%s            ║
║      Token Transfer Crawler for Tron      ║
╚═══════════════════════════════════════════╝
`
)

var (
	configPath  string
	startHeight string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "crawler",
	Short: "TransferCrawler - token transfer crawler for Tron",
	Long: `TransferCrawler follows the head of a Tron node block by block, records every
transfer of the configured token contract and alerts when a watched address
receives tokens.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runCrawler,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema := jsonschema.Reflect(&pkgconfig.Config{})

		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", appName, version)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")
	rootCmd.Flags().StringVar(&startHeight, "start-height", "", "height to start from, decimal or 0x hex (overrides crawler.start_height)")
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}

func runCrawler(cmd *cobra.Command, args []string) error {
	fmt.Printf(banner, version)

	// Load configuration
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if startHeight != "" {
		height, err := common.ParseUint64orHex(&startHeight)
		if err != nil {
			return fmt.Errorf("invalid --start-height %q: %w", startHeight, err)
		}
		cfg.Crawler.StartHeight = height
	}

	var logCfg logger.LoggingConfig
	if cfg.Logging != nil {
		logCfg = cfg.Logging
	}
	componentLogger := func(component string) *logger.Logger {
		return logger.NewComponentLoggerFromConfig(component, logCfg)
	}

	log := componentLogger(common.ComponentCrawler)
	network := cfg.Network()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flags := &control.Flags{}

	// The first signal only asks the loop to stop, so a fetch in progress
	// completes. A second signal cancels everything.
	shutdown := make(chan struct{})
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\nShutting down gracefully...")
		flags.RequestStop()
		close(shutdown)

		<-sigCh
		fmt.Println("Forcing shutdown...")
		cancel()
	}()

	// Initialize metrics server if enabled
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics, componentLogger(common.ComponentControl))
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(context.Background()); err != nil {
				log.Warnw("failed to stop metrics server", "error", err)
			}
		}()
	}

	// Initialize database
	storeLog := componentLogger(common.ComponentStore)
	database, err := db.NewDBFromConfig(ctx, cfg.DB)
	if err != nil {
		metrics.ComponentHealthSet(common.ComponentStore, false)
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()
	metrics.ComponentHealthSet(common.ComponentStore, true)

	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(storeLog, database, cfg.DB.Driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	st, err := store.New(database, cfg.DB.Driver, storeLog)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	registry := watchlist.NewRegistry(componentLogger(common.ComponentWatchlist))
	if err := registry.Reload(ctx, st); err != nil {
		return fmt.Errorf("failed to load watched addresses: %w", err)
	}

	factor, err := network.Factor()
	if err != nil {
		return err
	}

	processor, err := block.NewProcessor(
		network.TokenContract,
		network.AddressVersion,
		factor,
		componentLogger(common.ComponentProcessor),
	)
	if err != nil {
		return fmt.Errorf("failed to create block processor: %w", err)
	}

	ledgerClient := ledger.NewClient(
		network.APIHost,
		network.APIKey,
		cfg.Crawler.RequestTimeout.Duration,
		componentLogger(common.ComponentLedger),
	)

	telegram := notifier.NewTelegram(cfg.Notifier, componentLogger(common.ComponentNotifier))
	defer telegram.Wait()

	cr, err := crawler.New(cfg.Crawler, ledgerClient, processor, st, registry, telegram, flags, log)
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	// The control server outlives the loop so a stopped crawler still answers
	identity := pkgcontrol.IdentityResponse{
		Name:          appName,
		Version:       version,
		Network:       cfg.ActiveNetwork,
		TokenContract: processor.TokenContract(),
	}
	controlLog := componentLogger(common.ComponentControl)
	controlServer := pkgcontrol.NewServer(
		&cfg.Control,
		pkgcontrol.NewHandler(identity, cr, registry, flags, controlLog),
		controlLog,
	)
	controlDone := make(chan error, 1)
	go func() {
		err := controlServer.Start(ctx)
		if err != nil {
			log.Errorw("control server failed, stopping crawler", "error", err)
			flags.RequestStop()
		}
		controlDone <- err
	}()

	log.Infow("Starting TransferCrawler...",
		"network", cfg.ActiveNetwork,
		"token_contract", processor.TokenContract(),
		"watched_addresses", registry.Len(),
	)

	runErr := cr.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Errorw("crawler failed", "error", runErr)
	}

	// After a stop through the control API the server keeps answering until
	// the process is signalled.
	var controlErr error
	controlFinished := false
	if runErr == nil {
		log.Info("crawler loop stopped, control server still serving until shutdown")
		select {
		case <-shutdown:
		case controlErr = <-controlDone:
			controlFinished = true
		}
	}

	cancel()
	if !controlFinished {
		controlErr = <-controlDone
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("crawler failed: %w", runErr)
	}
	if controlErr != nil {
		return controlErr
	}

	log.Info("TransferCrawler stopped successfully")
	return nil
}
