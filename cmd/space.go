package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shge/meet-notify/internal"
)

var createSpaceSubscribe bool

var createSpaceCmd = &cobra.Command{
	Use:   "create-space",
	Short: "Create a new meeting space",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internal.NewLogger("create-space")
		cfg := loadConfig(logger)
		ctx := context.Background()

		client := newMeetClient(ctx, cfg, logger)
		space, err := client.CreateSpace(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", space.Name, space.MeetingURI)

		if !createSpaceSubscribe {
			return nil
		}
		if !confirm("Press Enter to also create the subscription") {
			return nil
		}
		resp, err := client.SubscribeToSpace(ctx, space.Name, cfg.Meet.Topic, cfg.Meet.EventTypes)
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

var getSpaceCmd = &cobra.Command{
	Use:   "get-space [name]",
	Short: "Look up a meeting space",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := internal.NewLogger("get-space")
		cfg := loadConfig(logger)
		ctx := context.Background()

		name := cfg.Meet.SpaceName
		if len(args) == 1 {
			name = args[0]
		}

		client := newMeetClient(ctx, cfg, logger)
		space, err := client.GetSpace(ctx, name)
		if err != nil {
			return err
		}
		fmt.Printf("%s meeting_uri=%s meeting_code=%s\n", space.Name, space.MeetingURI, space.MeetingCode)
		return nil
	},
}

// confirm prompts on stdin and reports whether the user pressed Enter
// without typing "n".
func confirm(prompt string) bool {
	fmt.Printf("%s: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "" || answer == "y" || answer == "yes"
}

func init() {
	createSpaceCmd.Flags().BoolVar(&createSpaceSubscribe, "subscribe", false, "also create the event subscription")
	rootCmd.AddCommand(createSpaceCmd)
	rootCmd.AddCommand(getSpaceCmd)
}
