// Package tui is the interactive terminal interface. Each page wraps a
// pkg/views controller; session changes drive routing between the login
// screen and the protected pages.
package tui

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marshallshelly/gmbctl/pkg/resources"
	"github.com/marshallshelly/gmbctl/pkg/session"
	"github.com/marshallshelly/gmbctl/pkg/views"
	"go.uber.org/zap"
)

// Deps are the collaborators the UI drives.
type Deps struct {
	Session *session.Store
	API     *resources.API
	Logger  *zap.SugaredLogger
}

// Page identifies a screen.
type Page int

const (
	PageLoading Page = iota
	PageLogin
	PageDashboard
	PageLocations
	PagePosts
	PageReviews
)

var protectedPages = []Page{PageDashboard, PageLocations, PagePosts, PageReviews}

func (p Page) String() string {
	switch p {
	case PageDashboard:
		return "Dashboard"
	case PageLocations:
		return "Locations"
	case PagePosts:
		return "Posts"
	case PageReviews:
		return "Reviews"
	case PageLogin:
		return "Login"
	default:
		return "Loading"
	}
}

// page is one protected screen.
type page interface {
	activate(ctx context.Context) tea.Cmd
	deactivate()
	update(msg tea.Msg) tea.Cmd
	view(width, height int) string
	// capturing reports whether text input has focus, disabling global keys.
	capturing() bool
	help() string
}

// Messages
type sessionChangedMsg struct{}

type alertMsg struct {
	text string
}

// doneMsg reports the end of a controller call.
type doneMsg struct {
	page Page
	what string
	err  error
}

type confirmMsg struct {
	dialog ConfirmationDialog
}

// msgSink forwards messages from controller goroutines to the program.
type msgSink struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (s *msgSink) post(msg tea.Msg) {
	s.mu.Lock()
	send := s.send
	s.mu.Unlock()
	if send != nil {
		go send(msg)
	}
}

// Alert implements views.Notifier.
func (s *msgSink) Alert(text string) { s.post(alertMsg{text: text}) }

// Model is the root Bubbletea model.
type Model struct {
	deps    Deps
	ctx     context.Context
	sink    *msgSink
	current Page
	pages   map[Page]page
	login   *loginPage

	alerts  []string
	confirm *ConfirmationDialog
	logs    LogView
	spinner spinner.Model

	width  int
	height int
}

// NewModel builds the UI in the Loading state.
func NewModel(ctx context.Context, deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	sink := &msgSink{}
	opts := []views.Option{views.WithLogger(deps.Logger), views.WithNotifier(sink)}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = infoStyle

	api := deps.API
	return Model{
		deps:    deps,
		ctx:     ctx,
		sink:    sink,
		current: PageLoading,
		login:   newLoginPage(deps.Session, api.Auth),
		pages: map[Page]page{
			PageDashboard: newDashboardPage(views.NewDashboard(api.Locations, api.Posts, api.Reviews, opts...)),
			PageLocations: newLocationsPage(views.NewLocations(api.Locations, opts...)),
			PagePosts:     newPostsPage(views.NewPosts(api.Posts, api.Locations, opts...)),
			PageReviews:   newReviewsPage(views.NewReviews(api.Reviews, opts...)),
		},
		logs:    NewLogView(3),
		spinner: sp,
	}
}

// Current returns the visible page.
func (m Model) Current() Page { return m.current }

// Init restores the persisted session.
func (m Model) Init() tea.Cmd {
	store, auth := m.deps.Session, m.deps.API.Auth
	ctx := m.ctx
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			_ = store.Load(ctx, auth)
			return sessionChangedMsg{}
		},
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.forward(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case sessionChangedMsg:
		return m, m.route()

	case alertMsg:
		m.alerts = append(m.alerts, msg.text)
		return m, nil

	case confirmMsg:
		d := msg.dialog
		m.confirm = &d
		return m, nil

	case doneMsg:
		if msg.err != nil && !isQuiet(msg.err) {
			m.logs.AddLog(errorStyle.Render(msg.what + ": " + msg.err.Error()))
		}
		if p, ok := m.pages[msg.page]; ok {
			return m, p.update(msg)
		}
		return m, nil

	case loginDoneMsg:
		return m, m.login.update(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if len(m.alerts) > 0 {
			if msg.String() == "enter" || msg.String() == "esc" {
				m.alerts = m.alerts[1:]
			}
			return m, nil
		}
		if m.confirm != nil {
			cmd, done := m.confirm.Update(msg)
			if done {
				m.confirm = nil
			}
			return m, cmd
		}
		if m.current == PageLogin {
			return m, m.login.update(msg)
		}
		if p, ok := m.pages[m.current]; ok && !p.capturing() {
			if cmd, handled := m.globalKey(msg); handled {
				return m, cmd
			}
		}
	}

	return m, m.forward(msg)
}

// forward hands msg to the visible page.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	if m.current == PageLogin {
		return m.login.update(msg)
	}
	if p, ok := m.pages[m.current]; ok {
		return p.update(msg)
	}
	return nil
}

func (m *Model) globalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return m.quit(), true
	case "1", "2", "3", "4":
		return m.navigate(protectedPages[msg.String()[0]-'1']), true
	case "tab":
		return m.navigate(protectedPages[(m.indexOf(m.current)+1)%len(protectedPages)]), true
	case "shift+tab":
		n := len(protectedPages)
		return m.navigate(protectedPages[(m.indexOf(m.current)+n-1)%n]), true
	case "ctrl+x":
		store := m.deps.Session
		return func() tea.Msg {
			_ = store.Logout()
			return sessionChangedMsg{}
		}, true
	}
	return nil, false
}

func (m *Model) indexOf(p Page) int {
	for i, pp := range protectedPages {
		if pp == p {
			return i
		}
	}
	return 0
}

// route follows the session: Unknown shows the loader, Anonymous the login
// screen, and Authenticated leaves login for the dashboard.
func (m *Model) route() tea.Cmd {
	switch m.deps.Session.State() {
	case session.Unknown:
		m.leave()
		m.current = PageLoading
		return nil
	case session.Anonymous:
		if m.current != PageLogin {
			m.leave()
			m.current = PageLogin
			m.confirm = nil
			return m.login.reset()
		}
		return nil
	default:
		if m.current == PageLogin || m.current == PageLoading {
			return m.navigate(PageDashboard)
		}
		return nil
	}
}

// navigate deactivates the visible page and activates target.
func (m *Model) navigate(target Page) tea.Cmd {
	if target == m.current {
		return nil
	}
	m.leave()
	m.current = target
	p, ok := m.pages[target]
	if !ok {
		return nil
	}
	var cmds []tea.Cmd
	if m.width > 0 {
		cmds = append(cmds, p.update(tea.WindowSizeMsg{Width: m.width, Height: m.height}))
	}
	cmds = append(cmds, p.activate(m.ctx))
	return tea.Batch(cmds...)
}

func (m *Model) leave() {
	if p, ok := m.pages[m.current]; ok {
		p.deactivate()
	}
}

func (m *Model) quit() tea.Cmd {
	m.leave()
	return tea.Quit
}

// View renders the UI
func (m Model) View() string {
	var body string
	switch m.current {
	case PageLoading:
		body = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" "+mutedStyle.Render("Loading..."))
		return body
	case PageLogin:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.login.view(m.spinner.View()))
	}

	p := m.pages[m.current]
	var b strings.Builder
	b.WriteString(m.navBar())
	b.WriteString("\n\n")

	switch {
	case len(m.alerts) > 0:
		b.WriteString(lipgloss.Place(m.width, m.height-6, lipgloss.Center, lipgloss.Center, AlertDialog{Message: m.alerts[0]}.View()))
	case m.confirm != nil:
		b.WriteString(lipgloss.Place(m.width, m.height-6, lipgloss.Center, lipgloss.Center, m.confirm.View()))
	default:
		content := p.view(m.width, m.height-6)
		if busy, ok := p.(interface{ busy() string }); ok {
			if label := busy.busy(); label != "" {
				content = m.spinner.View() + " " + infoStyle.Render(label) + "\n" + content
			}
		}
		b.WriteString(content)
	}

	if logs := m.logs.View(); logs != "" {
		b.WriteString("\n")
		b.WriteString(logs)
	}
	b.WriteString("\n")
	b.WriteString(p.help())
	return b.String()
}

func (m Model) navBar() string {
	tabs := make([]string, 0, len(protectedPages))
	for i, p := range protectedPages {
		label := string(rune('1'+i)) + " " + p.String()
		if p == m.current {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	left := titleStyle.UnsetMarginBottom().Render("GMB Automation") + "  " + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	right := ""
	if snap := m.deps.Session.Snapshot(); snap.User != nil {
		right = subtitleStyle.Render(snap.User.DisplayName()) + "  " + FormatKey("ctrl+x", "logout")
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}

// isQuiet reports errors that need no activity line.
func isQuiet(err error) bool {
	return errors.Is(err, views.ErrStale) || errors.Is(err, context.Canceled)
}

// done wraps a controller call as a command.
func done(p Page, what string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{page: p, what: what, err: fn()}
	}
}

// Run starts the UI and blocks until it exits.
func Run(ctx context.Context, deps Deps) error {
	m := NewModel(ctx, deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	m.sink.mu.Lock()
	m.sink.send = p.Send
	m.sink.mu.Unlock()

	unsubscribe := deps.Session.Subscribe(func(session.Snapshot) {
		m.sink.post(sessionChangedMsg{})
	})
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
