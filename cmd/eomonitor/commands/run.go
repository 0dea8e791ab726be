package commands

import (
	"log/slog"
	"os"

	"eomonitor/lib/bluesky"
	"eomonitor/lib/configutil"
	"eomonitor/lib/documentcloud"
	"eomonitor/lib/scrapers/whitehouse"
	"eomonitor/lib/serviceutil"
	"eomonitor/lib/telemetry"
	"eomonitor/services/monitor"
	"eomonitor/services/monitor/state"

	"github.com/spf13/cobra"
)

var runConfig *string
var runState *string
var runForce *bool
var runDebug *bool

func init() {
	runConfig = runCmd.Flags().String("config", "config.json5", "The monitor configuration file.")
	runState = runCmd.Flags().String("state", "", "Override the history state file from the config.")
	runForce = runCmd.Flags().Bool("force", false, "Run even if the check interval hasn't elapsed.")
	runDebug = runCmd.Flags().Bool("debug", false, "Enable debug logging.")
	rootCmd.AddCommand(runCmd)
}

func readConfig(path string) monitor.Config {
	cfg, err := configutil.ReadConfig[monitor.Config](path)
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func openStore(cfg monitor.Config, override string) state.Store {
	path := cfg.StateFile
	if override != "" {
		path = override
	}
	if path == "" && cfg.StateDb != "" {
		store, err := state.OpenSqliteStore(cfg.StateDb)
		if err != nil {
			serviceutil.Fatal("failed to open state db", err)
		}
		return store
	}
	if path == "" {
		path = "state.json"
	}
	return state.NewFileStore(path)
}

var runCmd = &cobra.Command{
	Use:   "run [--config <path>] [--state <path>] [--force]",
	Short: "Executes one monitor cycle: scrape, diff against history, archive and announce new orders.",
	Run: func(cmd *cobra.Command, args []string) {
		if *runDebug {
			telemetry.InitSlog(true)
		}

		cfg := readConfig(*runConfig)
		store := openStore(cfg, *runState)

		scraper, err := whitehouse.NewClient(whitehouse.ClientOptions{})
		if err != nil {
			serviceutil.Fatal("failed to initialize scraper", err)
		}

		archiver, err := documentcloud.NewClient(documentcloud.ClientOptions{
			BaseUrl: cfg.DocumentCloud.BaseUrl,
			Token:   cfg.DocumentCloud.Token,
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize documentcloud client", err)
		}

		deps := monitor.Dependencies{
			Store:    store,
			Scraper:  scraper,
			Archiver: archiver,
		}
		if cfg.Bluesky.Enabled() {
			deps.Announcer = bluesky.NewClient(bluesky.ClientOptions{
				Handle:   cfg.Bluesky.Handle,
				Password: cfg.Bluesky.Password,
			})
		}
		if cfg.Smtp.Enabled() {
			deps.Notifier = monitor.NewEmailNotifier(cfg.Smtp)
		}

		service := monitor.NewService(cfg, deps)
		report, err := service.Run(cmd.Context(), *runForce)
		if err != nil {
			serviceutil.Fatal("monitor run failed", err)
		}

		slog.Info("monitor run finished",
			"skipped", report.Skipped,
			"candidates", report.Candidates,
			"new", report.Found,
			"processed", report.Processed,
			"posted", report.Posted,
			"errors", len(report.Errors),
		)
		if len(report.Errors) > 0 {
			os.Exit(2)
		}
	},
}
