package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/adminpanel/pkg/errors"
	"github.com/matzehuels/adminpanel/pkg/hooks"
	"github.com/matzehuels/adminpanel/pkg/swr"
)

// Dashboard styles
var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1).
			Width(34)
	panelErrorStyle = lipgloss.NewStyle().Foreground(colorRed)
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// dashboard command
// =============================================================================

func (c *CLI) dashboardCommand() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live dashboard of content, PWA and display-card statistics",
		Long: `Live dashboard of content, PWA and display-card statistics.

Data is shown from cache immediately and refreshed in the background. The
dashboard revalidates when the terminal regains focus, every --interval, and
on demand with "r".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			m := newDashboardModel(ctx, s.hooks, interval)
			defer m.Close()

			p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithReportFocus())
			m.Subscribe(func() { p.Send(entryChangedMsg{}) })

			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "background refresh interval (0 disables)")
	return cmd
}

// =============================================================================
// DashboardModel - Live statistics view
// =============================================================================

// entryChangedMsg tells the model that a store entry changed.
type entryChangedMsg struct{}

// tickMsg triggers a periodic revalidation.
type tickMsg time.Time

// refreshedMsg reports the end of a manual refresh.
type refreshedMsg struct{ err error }

// DashboardModel is the bubbletea model for the live dashboard. It only holds
// queries; every View reads the shared store entries.
type DashboardModel struct {
	ctx      context.Context
	store    *swr.Store
	stats    *swr.Query[hooks.ContentStats]
	pwa      *swr.Query[hooks.PWAStats]
	cards    *swr.Query[hooks.DisplayCards]
	interval time.Duration

	focused     bool
	refreshing  bool
	refreshErr  error
	unsubscribe []func()
}

// newDashboardModel mounts the three dashboard queries.
func newDashboardModel(ctx context.Context, h *hooks.Hooks, interval time.Duration) *DashboardModel {
	return &DashboardModel{
		ctx:      ctx,
		store:    h.Store(),
		stats:    h.ContentStats(ctx),
		pwa:      h.PWAStats(ctx),
		cards:    h.AvailableDisplayCards(ctx),
		interval: interval,
		focused:  true,
	}
}

// Subscribe calls fn whenever any dashboard entry changes.
func (m *DashboardModel) Subscribe(fn func()) {
	m.unsubscribe = append(m.unsubscribe,
		m.stats.Subscribe(func(swr.State[hooks.ContentStats]) { fn() }),
		m.pwa.Subscribe(func(swr.State[hooks.PWAStats]) { fn() }),
		m.cards.Subscribe(func(swr.State[hooks.DisplayCards]) { fn() }),
	)
}

// Close unmounts the queries.
func (m *DashboardModel) Close() {
	for _, u := range m.unsubscribe {
		u()
	}
	m.stats.Close()
	m.pwa.Close()
	m.cards.Close()
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.tick()
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			return m, m.refreshAll()
		}
	case tea.FocusMsg:
		m.focused = true
		return m, m.focus()
	case tea.BlurMsg:
		m.focused = false
	case tickMsg:
		m.revalidateAll()
		return m, m.tick()
	case refreshedMsg:
		m.refreshing = false
		m.refreshErr = msg.err
	case entryChangedMsg:
	}
	return m, nil
}

func (m *DashboardModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Admin Panel"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("r refresh  q quit"))
	b.WriteString("\n\n")

	stats := m.stats.State()
	pwa := m.pwa.State()
	cards := m.cards.State()

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderPanel("Content", stats.IsLoading, stats.HasData, stats.Err, [][2]string{
			{"Total", strconv.Itoa(stats.Data.Total)},
			{"Published", strconv.Itoa(stats.Data.Published)},
			{"Drafts", strconv.Itoa(stats.Data.Drafts)},
			{"Views", strconv.Itoa(stats.Data.Views)},
		}),
		renderPanel("PWA", pwa.IsLoading, pwa.HasData, pwa.Err, [][2]string{
			{"Subscribers", strconv.Itoa(pwa.Data.Subscribers)},
			{"Installs", strconv.Itoa(pwa.Data.Installs)},
			{"Broadcasts", strconv.Itoa(pwa.Data.Broadcasts)},
		}),
		renderPanel("Display cards", cards.IsLoading, cards.HasData, cards.Err, [][2]string{
			{"Linked", strconv.Itoa(len(cards.Data.Linked))},
			{"Available", strconv.Itoa(len(cards.Data.Available))},
		}),
	))
	b.WriteString("\n")

	switch {
	case m.refreshing:
		b.WriteString(StyleDim.Render("  refreshing..."))
	case m.refreshErr != nil:
		b.WriteString(panelErrorStyle.Render("  refresh failed: " + apperrors.UserMessage(m.refreshErr)))
	case !stats.LastFetchedAt.IsZero():
		b.WriteString(StyleDim.Render("  updated " + formatAge(time.Since(stats.LastFetchedAt))))
	}
	if !m.focused {
		b.WriteString(StyleDim.Render("  (paused until focus)"))
	}
	b.WriteString("\n")
	return b.String()
}

func renderPanel(title string, loading, hasData bool, err error, rows [][2]string) string {
	var b strings.Builder
	header := StyleTitle.Render(title)
	if loading {
		header += " " + styleIconSpinner.Render("⠋")
	}
	b.WriteString(header)
	b.WriteString("\n")

	if !hasData {
		if err != nil {
			b.WriteString(panelErrorStyle.Render(apperrors.UserMessage(err)))
		} else {
			b.WriteString(StyleDim.Render("loading..."))
		}
		return panelStyle.Render(b.String())
	}

	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	for _, row := range rows {
		b.WriteString(keyStyle.Render(row[0]) + " " + StyleNumber.Render(row[1]) + "\n")
	}
	if err != nil {
		b.WriteString(styleIconWarning.Render(iconWarning) + " " + StyleDim.Render("stale: "+apperrors.UserMessage(err)))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *DashboardModel) tick() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// focus hands the terminal focus event to the store, which revalidates
// every mounted key outside the dedupe window.
func (m *DashboardModel) focus() tea.Cmd {
	return func() tea.Msg {
		m.store.Focus(m.ctx)
		return nil
	}
}

func (m *DashboardModel) revalidateAll() {
	if !m.focused {
		return
	}
	for _, key := range []string{m.stats.Key(), m.pwa.Key(), m.cards.Key()} {
		_ = m.store.Revalidate(m.ctx, key)
	}
}

func (m *DashboardModel) refreshAll() tea.Cmd {
	return func() tea.Msg {
		var errs []string
		for _, refetch := range []func(context.Context) error{m.stats.Refetch, m.pwa.Refetch, m.cards.Refetch} {
			if err := refetch(m.ctx); err != nil {
				errs = append(errs, apperrors.UserMessage(err))
			}
		}
		if len(errs) > 0 {
			return refreshedMsg{err: fmt.Errorf("%s", strings.Join(errs, "; "))}
		}
		return refreshedMsg{}
	}
}
