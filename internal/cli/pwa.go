package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
	"github.com/matzehuels/adminpanel/pkg/hooks"
)

// pwaCommand creates the pwa command group.
func (c *CLI) pwaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pwa",
		Short: "Progressive web app statistics and push broadcasts",
	}
	cmd.AddCommand(c.pwaStatsCommand())
	cmd.AddCommand(c.pwaBroadcastCommand())
	return cmd
}

func (c *CLI) pwaStatsCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show install and push subscription counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			q := s.hooks.PWAStats(ctx)
			defer q.Close()
			st, err := loadQuery(ctx, q, flags, "Loading PWA statistics...")
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(st.Data)
			}

			printPWAStats(st.Data)
			printFreshness(q.Key(), st.LastFetchedAt, isStale(st))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printPWAStats(stats hooks.PWAStats) {
	fmt.Println(StyleTitle.Render("PWA"))
	printKeyValue("Subscribers", StyleNumber.Render(strconv.Itoa(stats.Subscribers)))
	printKeyValue("Installs", StyleNumber.Render(strconv.Itoa(stats.Installs)))
	printKeyValue("Broadcasts", StyleNumber.Render(strconv.Itoa(stats.Broadcasts)))
	if stats.LastBroadcastAt != "" {
		printKeyValue("Last sent", StyleValue.Render(stats.LastBroadcastAt))
	}
}

// pwaBroadcastCommand sends a push notification to every subscriber. The
// payload is built from flags or read verbatim from --payload.
func (c *CLI) pwaBroadcastCommand() *cobra.Command {
	var (
		msg         hooks.PushMessage
		payloadPath string
	)
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send a push notification to all subscribers",
		Example: `  adminpanel pwa broadcast --title "New article" --body "Read it now" --url /articles/42
  adminpanel pwa broadcast --payload message.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := broadcastPayload(msg, payloadPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			spinner := newSpinnerWithContext(ctx, "Sending broadcast...")
			spinner.Start()
			res, err := s.hooks.BroadcastPush(ctx, payload)
			if err != nil {
				spinner.StopWithError("Broadcast failed: " + apperrors.UserMessage(err))
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("Broadcast sent to %d subscribers", res.Sent))
			if res.Failed > 0 {
				printWarning("%d deliveries failed", res.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&msg.Title, "title", "", "notification title")
	cmd.Flags().StringVar(&msg.Body, "body", "", "notification body")
	cmd.Flags().StringVar(&msg.URL, "url", "", "URL opened when the notification is clicked")
	cmd.Flags().StringVar(&msg.Icon, "icon", "", "icon URL")
	cmd.Flags().StringVar(&payloadPath, "payload", "", "JSON file sent as the payload instead of the flags")
	return cmd
}

func broadcastPayload(msg hooks.PushMessage, path string) (any, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read payload")
		}
		if !json.Valid(data) {
			return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "%s is not valid JSON", path)
		}
		return json.RawMessage(data), nil
	}
	if msg.Title == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "--title or --payload is required")
	}
	return msg, nil
}
