package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/marshallshelly/gmbctl/pkg/views"
)

var postTypes = []models.PostType{models.PostTypeUpdate, models.PostTypeEvent, models.PostTypeOffer}

const (
	postFieldLocation = iota
	postFieldType
	postFieldText
	postFieldCount
)

type postsPage struct {
	ctl  *views.Posts
	ctx  context.Context
	list list.Model

	// create form
	focus    int
	locIndex int
	typeIdx  int
	useAI    bool
	content  textarea.Model
	topic    textinput.Model
	formErr  string
}

func newPostsPage(ctl *views.Posts) *postsPage {
	content := textarea.New()
	content.Placeholder = "What's new at your business?"
	content.SetHeight(5)

	topic := textinput.New()
	topic.Placeholder = "e.g. Summer Sale (optional)"
	topic.Prompt = ""

	return &postsPage{
		ctl:     ctl,
		ctx:     context.Background(),
		list:    newList("Posts"),
		content: content,
		topic:   topic,
	}
}

func (p *postsPage) activate(ctx context.Context) tea.Cmd {
	p.ctx = p.ctl.Activate(ctx)
	return p.call("Failed to load posts", p.ctl.Refresh)
}

func (p *postsPage) deactivate() {
	p.ctl.CloseForm()
	p.ctl.Deactivate()
}

func (p *postsPage) capturing() bool {
	return p.ctl.Snapshot().FormOpen || p.list.SettingFilter()
}

func (p *postsPage) call(what string, fn func(context.Context) error) tea.Cmd {
	ctx := p.ctx
	return done(PagePosts, what, func() error { return fn(ctx) })
}

func (p *postsPage) busy() string {
	s := p.ctl.Snapshot()
	switch {
	case s.Generating:
		return "Generating post..."
	case s.Submitting:
		return "Creating post..."
	case s.Loading:
		return "Loading..."
	}
	return ""
}

func (p *postsPage) sync() {
	s := p.ctl.Snapshot()
	items := make([]list.Item, len(s.Posts))
	for i, post := range s.Posts {
		location := s.LocationName(post.LocationID)
		if location == "" {
			location = fmt.Sprintf("Location #%d", post.LocationID)
		}
		meta := []string{FormatStatus(post.Status), location, post.CreatedAt.Display()}
		if post.AIGenerated {
			meta = append(meta, infoStyle.Render("AI"))
		}
		items[i] = listItem{
			id:    post.ID,
			title: strings.ReplaceAll(post.Preview(), "\n", " "),
			desc:  strings.Join(meta, "  "),
		}
	}
	p.list.SetItems(items)
}

func (p *postsPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.list.SetSize(msg.Width-2, msg.Height-8)
		p.content.SetWidth(min(60, msg.Width-10))
		return nil

	case doneMsg:
		if msg.what == whatCreate && msg.err != nil {
			var verr *models.ValidationError
			if errors.As(msg.err, &verr) {
				p.formErr = verr.Field + " " + verr.Message
			} else {
				p.formErr = msg.err.Error()
			}
		}
		if !p.ctl.Snapshot().FormOpen {
			p.resetForm()
		}
		p.sync()
		return nil

	case tea.KeyMsg:
		if p.ctl.Snapshot().FormOpen {
			return p.updateForm(msg)
		}
		if p.list.SettingFilter() {
			break
		}
		switch msg.String() {
		case "n":
			p.ctl.OpenForm()
			p.resetForm()
			return p.focusField(postFieldText)
		case "r":
			return p.call("Failed to load posts", p.ctl.Refresh)
		case "u":
			if post, ok := p.selected(); ok && post.Publishable() {
				return p.call("Failed to publish post", func(ctx context.Context) error {
					return p.ctl.Publish(ctx, post.ID)
				})
			}
			return nil
		case "d":
			if id, ok := selectedID(p.list); ok {
				dialog := NewConfirmationDialog("Delete post", "Are you sure you want to delete this post?")
				dialog.OnConfirm = func() tea.Cmd {
					return p.call("Failed to delete post", func(ctx context.Context) error {
						return p.ctl.Delete(ctx, id)
					})
				}
				return func() tea.Msg { return confirmMsg{dialog: dialog} }
			}
			return nil
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return cmd
}

const whatCreate = "Failed to create post"

func (p *postsPage) selected() (models.Post, bool) {
	id, ok := selectedID(p.list)
	if !ok {
		return models.Post{}, false
	}
	for _, post := range p.ctl.Snapshot().Posts {
		if post.ID == id {
			return post, true
		}
	}
	return models.Post{}, false
}

func (p *postsPage) resetForm() {
	p.focus = postFieldText
	p.locIndex = 0
	p.typeIdx = 0
	p.useAI = false
	p.content.Reset()
	p.topic.Reset()
	p.formErr = ""
}

func (p *postsPage) focusField(field int) tea.Cmd {
	p.focus = field
	p.content.Blur()
	p.topic.Blur()
	if field != postFieldText {
		return nil
	}
	if p.useAI {
		return p.topic.Focus()
	}
	return p.content.Focus()
}

// form is the draft as the controller sees it.
func (p *postsPage) form() views.PostForm {
	f := views.PostForm{
		UseAI:    p.useAI,
		PostType: postTypes[p.typeIdx],
	}
	if locs := p.ctl.Snapshot().Locations; len(locs) > 0 {
		f.LocationID = locs[p.locIndex%len(locs)].ID
	}
	if p.useAI {
		f.Topic = strings.TrimSpace(p.topic.Value())
	} else {
		f.Content = strings.TrimSpace(p.content.Value())
	}
	return f
}

func (p *postsPage) updateForm(msg tea.KeyMsg) tea.Cmd {
	s := p.ctl.Snapshot()
	if s.Submitting {
		return nil
	}

	switch msg.String() {
	case "esc":
		p.ctl.CloseForm()
		p.resetForm()
		return nil
	case "ctrl+s":
		p.formErr = ""
		p.ctl.SetForm(p.form())
		return p.call(whatCreate, func(ctx context.Context) error {
			_, err := p.ctl.Submit(ctx)
			return err
		})
	case "ctrl+a":
		p.useAI = !p.useAI
		return p.focusField(p.focus)
	case "tab":
		return p.focusField((p.focus + 1) % postFieldCount)
	case "shift+tab":
		return p.focusField((p.focus + postFieldCount - 1) % postFieldCount)
	}

	switch p.focus {
	case postFieldLocation:
		if n := len(s.Locations); n > 0 {
			switch msg.String() {
			case "left", "h":
				p.locIndex = (p.locIndex + n - 1) % n
			case "right", "l":
				p.locIndex = (p.locIndex + 1) % n
			}
		}
		return nil
	case postFieldType:
		switch msg.String() {
		case "left", "h":
			p.typeIdx = (p.typeIdx + len(postTypes) - 1) % len(postTypes)
		case "right", "l":
			p.typeIdx = (p.typeIdx + 1) % len(postTypes)
		}
		return nil
	}

	var cmd tea.Cmd
	if p.useAI {
		p.topic, cmd = p.topic.Update(msg)
	} else {
		p.content, cmd = p.content.Update(msg)
	}
	return cmd
}

func (p *postsPage) view(width, height int) string {
	s := p.ctl.Snapshot()
	if s.FormOpen {
		return p.formView(s)
	}
	if len(s.Posts) == 0 && !s.Loading {
		return titleStyle.Render("Posts") + "\n" + mutedStyle.Render("No posts yet. Create your first post!")
	}
	return p.list.View()
}

func (p *postsPage) formView(s views.PostsState) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create New Post"))
	b.WriteString("\n")

	label := func(field int, text string) string {
		if p.focus == field {
			return selectedItemStyle.UnsetPaddingLeft().Render("▸ " + text)
		}
		return "  " + text
	}

	location := mutedStyle.Render("no locations, sync them first")
	if n := len(s.Locations); n > 0 {
		location = "◂ " + s.Locations[p.locIndex%n].Name + " ▸"
	}
	b.WriteString(label(postFieldLocation, "Location: ") + location + "\n")
	b.WriteString(label(postFieldType, "Type:     ") + "◂ " + string(postTypes[p.typeIdx]) + " ▸\n")
	b.WriteString("  " + FormatToggle("Generate with AI (ctrl+a)", p.useAI) + "\n\n")

	if p.useAI {
		b.WriteString(label(postFieldText, "Topic: ") + p.topic.View() + "\n")
	} else {
		b.WriteString(label(postFieldText, "Content") + "\n" + p.content.View() + "\n")
	}

	if p.formErr != "" {
		b.WriteString("\n" + errorStyle.Render(p.formErr) + "\n")
	}
	return activeBoxStyle.Render(b.String())
}

func (p *postsPage) help() string {
	if p.ctl.Snapshot().FormOpen {
		return helpLine("tab", "next field", "←/→", "choose", "ctrl+a", "toggle AI", "ctrl+s", "create", "esc", "cancel")
	}
	return helpLine("n", "new post", "u", "publish", "d", "delete", "/", "filter", "r", "refresh", "q", "quit")
}
