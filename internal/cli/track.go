package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adminpanel/pkg/track"
)

// trackCommand records one view of an item. Like the beacon on a page, it
// never fails because of the network; failures show up in the log.
func (c *CLI) trackCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "track <category> <id>",
		Short:   "Record a view of an item",
		Example: `  adminpanel track article 42`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			ev := track.Event{Category: args[0], ID: parseID(args[1])}
			s.tracker.Mount(ctx, ev)
			s.tracker.Wait()
			printInfo("Tracked %s %v", ev.Category, ev.ID)
			return nil
		},
	}
}

// parseID keeps numeric ids numeric so the body reads {"id":42}.
func parseID(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
