package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marshallshelly/gmbctl/pkg/views"
)

type dashboardPage struct {
	ctl *views.Dashboard
	ctx context.Context
}

func newDashboardPage(ctl *views.Dashboard) *dashboardPage {
	return &dashboardPage{ctl: ctl, ctx: context.Background()}
}

func (p *dashboardPage) activate(ctx context.Context) tea.Cmd {
	p.ctx = p.ctl.Activate(ctx)
	return p.refresh()
}

func (p *dashboardPage) deactivate() { p.ctl.Deactivate() }

func (p *dashboardPage) capturing() bool { return false }

func (p *dashboardPage) refresh() tea.Cmd {
	ctl, ctx := p.ctl, p.ctx
	return done(PageDashboard, "Failed to load dashboard", func() error { return ctl.Refresh(ctx) })
}

func (p *dashboardPage) busy() string {
	if p.ctl.Snapshot().Loading {
		return "Loading..."
	}
	return ""
}

func (p *dashboardPage) update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "r" {
		return p.refresh()
	}
	return nil
}

func (p *dashboardPage) view(width, height int) string {
	s := p.ctl.Snapshot()
	if s.Stats == nil {
		if s.Loading {
			return ""
		}
		return mutedStyle.Render("Stats unavailable. Press r to retry.")
	}

	card := func(label, value string) string {
		return statCardStyle.Render(mutedStyle.Render(label) + "\n" + statValueStyle.Render(value))
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Locations", fmt.Sprintf("%d", s.Stats.Locations)),
		card("Total Posts", fmt.Sprintf("%d", s.Stats.Posts)),
		card("Total Reviews", fmt.Sprintf("%d", s.Stats.Reviews)),
		card("Avg Rating", fmt.Sprintf("%.1f", s.Stats.AvgRating)),
	)

	out := titleStyle.Render("Dashboard") + "\n" + cards
	if s.Stats.Locations == 0 {
		out += "\n\n" + mutedStyle.Render("Get started by syncing your Google Business Profile locations.")
	}
	return out
}

func (p *dashboardPage) help() string {
	return helpLine("1-4/tab", "pages", "r", "refresh", "q", "quit")
}
