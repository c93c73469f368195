package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marshallshelly/gmbctl/pkg/views"
)

type locationsPage struct {
	ctl  *views.Locations
	ctx  context.Context
	list list.Model
}

func newLocationsPage(ctl *views.Locations) *locationsPage {
	return &locationsPage{ctl: ctl, ctx: context.Background(), list: newList("Locations")}
}

func (p *locationsPage) activate(ctx context.Context) tea.Cmd {
	p.ctx = p.ctl.Activate(ctx)
	return p.call("Failed to load locations", p.ctl.Refresh)
}

func (p *locationsPage) deactivate() { p.ctl.Deactivate() }

func (p *locationsPage) capturing() bool { return p.list.SettingFilter() }

func (p *locationsPage) call(what string, fn func(context.Context) error) tea.Cmd {
	ctx := p.ctx
	return done(PageLocations, what, func() error { return fn(ctx) })
}

func (p *locationsPage) busy() string {
	s := p.ctl.Snapshot()
	switch {
	case s.Syncing:
		return "Syncing locations..."
	case s.Loading:
		return "Loading..."
	}
	return ""
}

func (p *locationsPage) sync() {
	s := p.ctl.Snapshot()
	items := make([]list.Item, len(s.Locations))
	for i, loc := range s.Locations {
		var details []string
		if loc.Address != "" {
			details = append(details, loc.Address)
		}
		if loc.Category != "" {
			details = append(details, loc.Category)
		}
		details = append(details,
			FormatToggle("auto reply", loc.AutoReplyEnabled),
			FormatToggle("auto post", loc.AutoPostEnabled),
		)
		items[i] = listItem{
			id:    loc.ID,
			title: loc.Name,
			desc:  strings.Join(details, "  "),
		}
	}
	p.list.SetItems(items)
}

func (p *locationsPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.list.SetSize(msg.Width-2, msg.Height-8)
		return nil

	case doneMsg:
		p.sync()
		return nil

	case tea.KeyMsg:
		if p.list.SettingFilter() {
			break
		}
		switch msg.String() {
		case "s":
			return p.call("Failed to sync locations", p.ctl.Sync)
		case "r":
			return p.call("Failed to load locations", p.ctl.Refresh)
		case "a":
			if id, ok := selectedID(p.list); ok {
				return p.call(fmt.Sprintf("Failed to toggle auto reply for %d", id), func(ctx context.Context) error {
					return p.ctl.ToggleAutoReply(ctx, id)
				})
			}
			return nil
		case "p":
			if id, ok := selectedID(p.list); ok {
				return p.call(fmt.Sprintf("Failed to toggle auto post for %d", id), func(ctx context.Context) error {
					return p.ctl.ToggleAutoPost(ctx, id)
				})
			}
			return nil
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return cmd
}

func (p *locationsPage) view(width, height int) string {
	s := p.ctl.Snapshot()
	if len(s.Locations) == 0 && !s.Loading {
		return titleStyle.Render("Locations") + "\n" +
			mutedStyle.Render("No locations yet") + "\n" +
			subtitleStyle.Render("Get started by syncing your Google Business Profile locations.")
	}
	return p.list.View()
}

func (p *locationsPage) help() string {
	return helpLine("s", "sync", "a", "toggle auto reply", "p", "toggle auto post", "/", "filter", "r", "refresh", "q", "quit")
}
