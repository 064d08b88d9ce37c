package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shge/meet-notify/internal"
	"github.com/shge/meet-notify/pkg/meet"
)

var createSubscriptionCmd = &cobra.Command{
	Use:   "create-subscription",
	Short: "Subscribe to events for the configured space",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internal.NewLogger("create-subscription")
		cfg := loadConfig(logger)
		ctx := context.Background()

		client := newMeetClient(ctx, cfg, logger)
		resp, err := client.SubscribeToSpace(ctx, cfg.Meet.SpaceName, cfg.Meet.Topic, cfg.Meet.EventTypes)
		if err != nil {
			return err
		}
		fmt.Println(string(resp.Body))
		if !resp.OK() {
			return fmt.Errorf("subscription request returned status %d", resp.StatusCode)
		}
		return nil
	},
}

var listSubscriptionsCmd = &cobra.Command{
	Use:   "list-subscriptions",
	Short: "List subscriptions for the participant-joined event type",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internal.NewLogger("list-subscriptions")
		cfg := loadConfig(logger)
		ctx := context.Background()

		client := newMeetClient(ctx, cfg, logger)
		subscriptions, err := client.ListSubscriptions(ctx, meet.EventParticipantJoined)
		if err != nil {
			return err
		}
		if len(subscriptions) == 0 {
			fmt.Println("no subscriptions")
			return nil
		}
		for _, sub := range subscriptions {
			fmt.Printf("%s target=%s topic=%s events=%s\n",
				sub.Name, sub.TargetResource, sub.NotificationEndpoint.PubsubTopic,
				strings.Join(sub.EventTypes, ","))
		}
		return nil
	},
}

var deleteSubscriptionsYes bool

var deleteSubscriptionsCmd = &cobra.Command{
	Use:   "delete-subscriptions",
	Short: "Delete every subscription for the participant-joined event type",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internal.NewLogger("delete-subscriptions")
		cfg := loadConfig(logger)
		ctx := context.Background()

		if !deleteSubscriptionsYes && !confirm("Press Enter to delete ALL subscriptions") {
			return nil
		}

		client := newMeetClient(ctx, cfg, logger)
		subscriptions, err := client.ListSubscriptions(ctx, meet.EventParticipantJoined)
		if err != nil {
			return err
		}
		for _, sub := range subscriptions {
			fmt.Printf("deleting %s ...\n", sub.Name)
			resp, err := client.DeleteSubscription(ctx, sub.Name)
			if err != nil {
				return err
			}
			fmt.Println(string(resp.Body))
		}
		fmt.Println("deleted all subscriptions")
		return nil
	},
}

func init() {
	deleteSubscriptionsCmd.Flags().BoolVar(&deleteSubscriptionsYes, "yes", false, "skip the confirmation prompt")
	rootCmd.AddCommand(createSubscriptionCmd)
	rootCmd.AddCommand(listSubscriptionsCmd)
	rootCmd.AddCommand(deleteSubscriptionsCmd)
}
