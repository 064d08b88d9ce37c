package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shge/meet-notify/internal"
	"github.com/shge/meet-notify/pkg/auth"
	"github.com/shge/meet-notify/pkg/slack"
	"github.com/shge/meet-notify/pkg/worker"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Listen for space events on the pull subscription",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internal.NewLogger("listen")
		cfg := loadConfig(logger)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if _, err := auth.LoadServiceCredential(ctx, cfg.Google.ServiceAccountFile); err != nil {
			logger.Fatalf("service credential: %v", err)
		}

		api := newMeetClient(ctx, cfg, logger)
		notifier := slack.NewWebhook(cfg.Slack.WebhookURL, cfg.Slack.Username, cfg.HTTPTimeout())
		dispatcher := internal.NewDispatcher(cfg.Meet.SpaceName, cfg.Meet.MeetingURL, api, notifier, internal.NewLogger("dispatcher"))

		sub, err := worker.BuildSubscriber(cfg.Subscriber)
		if err != nil {
			logger.Fatalf("subscriber: %v", err)
		}

		metricsServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           metricsHandler(cfg, promhttp.Handler()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("metrics listen: %v", err)
			}
		}()

		wk := worker.New(
			worker.WithSubscriber(sub),
			worker.WithTopic(cfg.Meet.Topic),
			worker.WithHandler(dispatcher.HandleMessage),
			worker.WithConcurrency(cfg.Concurrency),
			worker.WithLogger(logger),
			worker.WithListener(worker.Listener{
				OnStart: func(ctx context.Context) { logger.Println("listening for events...") },
				OnExit:  func(ctx context.Context) { logger.Println("done") },
			}),
		)
		defer func() {
			if err := wk.Close(); err != nil {
				logger.Printf("subscriber close: %v", err)
			}
		}()

		if err := wk.Run(ctx); err != nil {
			logger.Fatalf("listen: %v", err)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("metrics shutdown: %v", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
}
