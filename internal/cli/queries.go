package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
	"github.com/matzehuels/adminpanel/pkg/hooks"
	"github.com/matzehuels/adminpanel/pkg/swr"
)

// headerRow is the row index lipgloss tables pass to StyleFunc for headers.
const headerRow = -1

// queryFlags are shared by every read command.
type queryFlags struct {
	json    bool
	refresh bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.json, "json", false, "print the normalised data as JSON")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore the dedupe window and fetch now")
}

// loadQuery waits for q to settle behind a spinner. Stale data with an
// error is returned with a warning; an error without data is returned.
func loadQuery[T any](ctx context.Context, q *swr.Query[T], flags queryFlags, message string) (swr.State[T], error) {
	spinner := newSpinnerWithContext(ctx, message)
	if !flags.json {
		spinner.Start()
	}
	if flags.refresh {
		if err := q.Refetch(ctx); err != nil {
			loggerFromContext(ctx).Debug("refetch failed", "key", q.Key(), "error", err)
		}
	}
	st, err := q.Load(ctx)
	if !flags.json {
		spinner.Stop()
	}

	if err != nil && !st.HasData {
		return st, err
	}
	if err != nil && !flags.json {
		printWarning("Showing cached data: %s", apperrors.UserMessage(err))
	}
	return st, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isStale[T any](st swr.State[T]) bool {
	return st.Err != nil || st.LastFetchedAt.IsZero()
}

// =============================================================================
// stats
// =============================================================================

func (c *CLI) statsCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show content statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			q := s.hooks.ContentStats(ctx)
			defer q.Close()
			st, err := loadQuery(ctx, q, flags, "Loading content statistics...")
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(st.Data)
			}

			printContentStats(st.Data)
			printFreshness(q.Key(), st.LastFetchedAt, isStale(st))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printContentStats(stats hooks.ContentStats) {
	fmt.Println(StyleTitle.Render("Content"))
	printKeyValue("Total", StyleNumber.Render(strconv.Itoa(stats.Total)))
	printKeyValue("Published", StyleNumber.Render(strconv.Itoa(stats.Published)))
	printKeyValue("Drafts", StyleNumber.Render(strconv.Itoa(stats.Drafts)))
	printKeyValue("Views", StyleNumber.Render(strconv.Itoa(stats.Views)))

	if len(stats.ByCategory) == 0 {
		return
	}
	categories := make([]string, 0, len(stats.ByCategory))
	for k := range stats.ByCategory {
		categories = append(categories, k)
	}
	sort.Strings(categories)
	printNewline()
	fmt.Println(StyleTitle.Render("By category"))
	for _, k := range categories {
		printKeyValue(k, StyleNumber.Render(strconv.Itoa(stats.ByCategory[k])))
	}
}

// =============================================================================
// cards
// =============================================================================

func (c *CLI) cardsCommand() *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List available and linked display cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			q := s.hooks.AvailableDisplayCards(ctx)
			defer q.Close()
			st, err := loadQuery(ctx, q, flags, "Loading display cards...")
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(st.Data)
			}

			fmt.Println(renderCardTable(st.Data))
			printFreshness(q.Key(), st.LastFetchedAt, isStale(st))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func renderCardTable(cards hooks.DisplayCards) string {
	rows := make([][]string, 0, len(cards.Available)+len(cards.Linked))
	for _, card := range cards.Linked {
		rows = append(rows, []string{"linked", strconv.Itoa(card.ID), card.Title, card.Type})
	}
	for _, card := range cards.Available {
		rows = append(rows, []string{"available", strconv.Itoa(card.ID), card.Title, card.Type})
	}
	linked := len(cards.Linked)

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Status", "ID", "Title", "Type").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return headerStyle
			case row < linked:
				return lipgloss.NewStyle().Foreground(colorGreen)
			default:
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
		})
	return t.Render()
}

// =============================================================================
// media
// =============================================================================

func (c *CLI) mediaCommand() *cobra.Command {
	var (
		flags queryFlags
		kind  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "media",
		Short: "List the media library",
		Example: `  adminpanel media --type image --limit 20
  adminpanel media --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			q, err := s.hooks.Media(ctx, kind, limit)
			if err != nil {
				return err
			}
			defer q.Close()
			st, err := loadQuery(ctx, q, flags, "Loading media...")
			if err != nil {
				return err
			}
			if flags.json {
				return printJSON(st.Data)
			}

			if len(st.Data) == 0 {
				printInfo("No media found")
			} else {
				fmt.Println(renderMediaTable(st.Data))
			}
			printFreshness(q.Key(), st.LastFetchedAt, isStale(st))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&kind, "type", "t", "", "media type filter (e.g. image, video)")
	cmd.Flags().IntVarP(&limit, "limit", "n", hooks.DefaultMediaLimit, "maximum number of items")
	return cmd
}

func renderMediaTable(items []hooks.MediaItem) string {
	rows := make([][]string, len(items))
	for i, m := range items {
		dims := ""
		if m.Width > 0 && m.Height > 0 {
			dims = fmt.Sprintf("%d×%d", m.Width, m.Height)
		}
		size := ""
		if m.Size > 0 {
			size = formatBytes(int(m.Size))
		}
		rows[i] = []string{strconv.Itoa(m.ID), m.Type, m.URL, dims, size}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Type", "URL", "Size", "Bytes").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return headerStyle
			}
			if col == 2 {
				return lipgloss.NewStyle().Foreground(colorBlue)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
