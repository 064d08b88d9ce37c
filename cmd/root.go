// Package cmd wires the relay's subcommands: the long-lived listeners and
// the one-shot space/subscription management tools.
package cmd

import (
	"context"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/shge/meet-notify/internal"
	"github.com/shge/meet-notify/pkg/auth"
	"github.com/shge/meet-notify/pkg/meet"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "meet-notify",
	Short: "Relay Google Meet events to a chat webhook",
	Long: `meet-notify subscribes to participant, conference, recording and
transcript events for a Google Meet space and forwards human-readable
notifications to a chat webhook.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to config file")
}

// loadConfig loads and validates the configuration; a failure here is a
// fatal startup error for every subcommand.
func loadConfig(logger *log.Logger) internal.Config {
	cfg, err := internal.LoadConfig(cfgFile)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	return cfg
}

// newMeetClient authorizes the user credential and builds the Meet API
// client on top of it.
func newMeetClient(ctx context.Context, cfg internal.Config, logger *log.Logger) *meet.Client {
	httpClient, err := auth.Authorize(ctx, auth.Config{
		ClientSecretFile: cfg.Google.ClientSecretFile,
		TokenFile:        cfg.Google.TokenFile,
		Logger:           logger,
	})
	if err != nil {
		logger.Fatalf("authorize: %v", err)
	}
	httpClient.Timeout = cfg.HTTPTimeout()
	client, err := meet.NewClient(ctx, httpClient)
	if err != nil {
		logger.Fatalf("meet client: %v", err)
	}
	return client
}

// metricsHandler serves the Prometheus registry plus a trivial health check.
func metricsHandler(cfg internal.Config, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.MetricsPath, metrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
