package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/marshallshelly/gmbctl/pkg/views"
)

var replyTones = []string{models.DefaultReplyTone, "friendly", "apologetic"}

const whatGenerate = "Failed to generate reply"

type reviewsPage struct {
	ctl   *views.Reviews
	ctx   context.Context
	list  list.Model
	reply textarea.Model
	tone  int
}

func newReviewsPage(ctl *views.Reviews) *reviewsPage {
	reply := textarea.New()
	reply.Placeholder = "Write your reply..."
	reply.SetHeight(5)

	return &reviewsPage{
		ctl:   ctl,
		ctx:   context.Background(),
		list:  newList("Reviews"),
		reply: reply,
	}
}

func (p *reviewsPage) activate(ctx context.Context) tea.Cmd {
	p.ctx = p.ctl.Activate(ctx)
	return p.call("Failed to load reviews", p.ctl.Refresh)
}

func (p *reviewsPage) deactivate() {
	p.ctl.ClearSelection()
	p.ctl.Deactivate()
}

func (p *reviewsPage) capturing() bool {
	return p.ctl.Snapshot().Selected != nil || p.list.SettingFilter()
}

func (p *reviewsPage) call(what string, fn func(context.Context) error) tea.Cmd {
	ctx := p.ctx
	return done(PageReviews, what, func() error { return fn(ctx) })
}

func (p *reviewsPage) busy() string {
	s := p.ctl.Snapshot()
	switch {
	case s.GeneratingReply:
		return "Generating reply..."
	case s.Submitting:
		return "Posting reply..."
	case s.Syncing:
		return "Syncing reviews..."
	case s.Loading:
		return "Loading..."
	}
	return ""
}

func (p *reviewsPage) sync() {
	s := p.ctl.Snapshot()
	items := make([]list.Item, len(s.Reviews))
	for i, r := range s.Reviews {
		comment := r.Comment
		if comment == "" {
			comment = mutedStyle.Render("(no comment)")
		}
		status := warningStyle.Render("awaiting reply")
		if r.Replied() {
			status = successStyle.Render("replied")
		}
		items[i] = listItem{
			id:    r.ID,
			title: FormatStars(r) + "  " + r.ReviewerName + "  " + mutedStyle.Render(r.ReviewCreatedAt.Display()),
			desc:  status + "  " + strings.ReplaceAll(comment, "\n", " "),
		}
	}
	p.list.SetItems(items)
}

func (p *reviewsPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.list.SetSize(msg.Width-2, msg.Height-8)
		p.reply.SetWidth(min(70, msg.Width-10))
		return nil

	case doneMsg:
		if msg.what == whatGenerate && msg.err == nil {
			p.reply.SetValue(p.ctl.Snapshot().ReplyText)
		}
		if p.ctl.Snapshot().Selected == nil {
			p.reply.Blur()
		}
		p.sync()
		return nil

	case tea.KeyMsg:
		if p.ctl.Snapshot().Selected != nil {
			return p.updateReply(msg)
		}
		if p.list.SettingFilter() {
			break
		}
		switch msg.String() {
		case "enter":
			id, ok := selectedID(p.list)
			if !ok {
				return nil
			}
			if err := p.ctl.Select(id); err != nil {
				return nil
			}
			p.reply.Reset()
			p.tone = 0
			return p.reply.Focus()
		case "s":
			return p.call("Failed to sync reviews", func(ctx context.Context) error {
				return p.ctl.Sync(ctx, nil)
			})
		case "r":
			return p.call("Failed to load reviews", p.ctl.Refresh)
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return cmd
}

func (p *reviewsPage) updateReply(msg tea.KeyMsg) tea.Cmd {
	s := p.ctl.Snapshot()
	if s.GeneratingReply || s.Submitting {
		return nil
	}

	switch msg.String() {
	case "esc":
		p.ctl.ClearSelection()
		p.reply.Blur()
		return nil
	case "ctrl+t":
		p.tone = (p.tone + 1) % len(replyTones)
		return nil
	case "ctrl+g":
		tone := replyTones[p.tone]
		return p.call(whatGenerate, func(ctx context.Context) error {
			_, err := p.ctl.GenerateReply(ctx, tone)
			return err
		})
	case "ctrl+s":
		p.ctl.SetReplyText(p.reply.Value())
		return p.call("Failed to submit reply", p.ctl.SubmitReply)
	}

	var cmd tea.Cmd
	p.reply, cmd = p.reply.Update(msg)
	p.ctl.SetReplyText(p.reply.Value())
	return cmd
}

func (p *reviewsPage) view(width, height int) string {
	s := p.ctl.Snapshot()
	if s.Selected != nil {
		return p.replyView(*s.Selected)
	}
	if len(s.Reviews) == 0 && !s.Loading {
		return titleStyle.Render("Reviews") + "\n" +
			mutedStyle.Render("No reviews yet. Sync your reviews from Google Business Profile.")
	}
	return p.list.View()
}

func (p *reviewsPage) replyView(r models.Review) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Reply to Review"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s\n", FormatStars(r), r.ReviewerName))
	if r.Comment != "" {
		b.WriteString(subtitleStyle.Render(r.Comment))
		b.WriteString("\n")
	}
	if r.Replied() {
		b.WriteString(mutedStyle.Render("Current reply: " + r.ReplyText))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(p.reply.View())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Tone: ") + infoStyle.Render(replyTones[p.tone]))
	return activeBoxStyle.Render(b.String())
}

func (p *reviewsPage) help() string {
	if p.ctl.Snapshot().Selected != nil {
		return helpLine("ctrl+g", "generate with AI", "ctrl+t", "tone", "ctrl+s", "submit", "esc", "cancel")
	}
	return helpLine("enter", "reply", "s", "sync", "/", "filter", "r", "refresh", "q", "quit")
}
