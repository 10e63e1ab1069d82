package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adminpanel/internal/config"
	"github.com/matzehuels/adminpanel/pkg/buildinfo"
)

// aboutCommand prints the terminal version of the /about page.
func (c *CLI) aboutCommand() *cobra.Command {
	var showConfig bool
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show version, API endpoint and cache settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()

			fmt.Println(StyleTitle.Render("Admin Panel"))
			fmt.Println(StyleDim.Render("Content, display cards, media and push notifications for the site."))
			printNewline()

			printKeyValue("Version", StyleValue.Render(buildinfo.Version))
			printKeyValue("Commit", StyleDim.Render(buildinfo.Commit))
			printKeyValue("API", StyleLink.Render(cfg.BaseURL))
			printKeyValue("Cache", StyleValue.Render(cfg.Cache.Backend))
			if path := c.configPath; path != "" {
				printKeyValue("Config", StyleValue.Render(path))
			} else if path, err := config.DefaultPath(); err == nil {
				printKeyValue("Config", StyleDim.Render(path))
			}

			if showConfig {
				printNewline()
				fmt.Print(cfg.String())
			}
			printNewline()
			printNextStep("Open the panel", appName+" serve")
			return nil
		},
	}
	cmd.Flags().BoolVar(&showConfig, "config-dump", false, "print the effective configuration (secrets redacted)")
	return cmd
}
