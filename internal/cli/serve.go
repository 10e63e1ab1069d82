package cli

import (
	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
	"github.com/matzehuels/adminpanel/pkg/panel"
)

// serveCommand runs the HTTP panel until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr, theme string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin panel over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if theme == "" {
				theme = cfg.Server.Theme
			}
			t, ok := panel.ThemeByName(theme)
			if !ok {
				return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown theme %q (light, dark)", theme)
			}

			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			srv := panel.NewServer(panel.Options{
				Hooks:   s.hooks,
				Tracker: s.tracker,
				Theme:   t,
				BaseURL: s.client.BaseURL(),
				Logger:  c.Logger,
			})
			printInfo("Serving panel on %s", StyleLink.Render("http://"+displayAddr(addr)))
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8090)")
	cmd.Flags().StringVar(&theme, "theme", "", "page theme: light or dark")
	return cmd
}

// displayAddr turns ":8090" into "localhost:8090" for printing.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
