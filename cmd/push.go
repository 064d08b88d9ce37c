package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shge/meet-notify/internal"
	"github.com/shge/meet-notify/pkg/slack"
	"github.com/shge/meet-notify/pkg/worker"
	"github.com/shge/meet-notify/push"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Serve an HTTP endpoint for push-delivered events",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internal.NewLogger("push")
		cfg := loadConfig(logger)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		api := newMeetClient(ctx, cfg, logger)
		notifier := slack.NewWebhook(cfg.Slack.WebhookURL, cfg.Slack.Username, cfg.HTTPTimeout())
		dispatcher := internal.NewDispatcher(cfg.Meet.SpaceName, cfg.Meet.MeetingURL, api, notifier, internal.NewLogger("dispatcher"))

		router := chi.NewRouter()
		router.Use(pushRateLimit(cfg))
		router.Handle(cfg.Server.MetricsPath, promhttp.Handler())
		router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		sub, err := push.NewSubscriber(fmt.Sprintf(":%d", cfg.Server.Port), router, watermill.NewStdLogger(false, false))
		if err != nil {
			logger.Fatalf("push subscriber: %v", err)
		}

		wk := worker.New(
			worker.WithSubscriber(sub),
			worker.WithTopic(cfg.Server.PushPath),
			worker.WithHandler(dispatcher.HandleMessage),
			worker.WithConcurrency(cfg.Concurrency),
			worker.WithLogger(logger),
			worker.WithListener(worker.Listener{
				// The route is registered once the worker has subscribed;
				// only then may the server start accepting requests.
				OnStart: func(ctx context.Context) {
					go func() {
						logger.Printf("push endpoint on :%d%s", cfg.Server.Port, cfg.Server.PushPath)
						if err := sub.StartHTTPServer(); err != nil && err != http.ErrServerClosed {
							logger.Fatalf("listen: %v", err)
						}
					}()
				},
				OnExit: func(ctx context.Context) { logger.Println("done") },
			}),
		)
		defer func() {
			if err := wk.Close(); err != nil {
				logger.Printf("subscriber close: %v", err)
			}
		}()

		return wk.Run(ctx)
	},
}

// pushRateLimit limits only the push path; metrics and health stay open.
func pushRateLimit(cfg internal.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := internal.NewRateLimitHandler(next, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, time.Minute)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == cfg.Server.PushPath {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func init() {
	rootCmd.AddCommand(pushCmd)
}
