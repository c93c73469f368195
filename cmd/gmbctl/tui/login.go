package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marshallshelly/gmbctl/pkg/apiclient"
	"github.com/marshallshelly/gmbctl/pkg/models"
	"github.com/marshallshelly/gmbctl/pkg/session"
)

// Registerer creates accounts.
type Registerer interface {
	session.Authenticator
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
}

type loginDoneMsg struct {
	registered bool
	err        error
}

const (
	fieldEmail = iota
	fieldPassword
	fieldName
)

// loginPage is the sign-in and sign-up form.
type loginPage struct {
	store    *session.Store
	auth     Registerer
	inputs   []textinput.Model
	focus    int
	register bool
	busy     bool
	err      string
	notice   string
}

func newLoginPage(store *session.Store, auth Registerer) *loginPage {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email     "

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password  "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	name := textinput.New()
	name.Placeholder = "optional"
	name.Prompt = "Full name "

	p := &loginPage{store: store, auth: auth, inputs: []textinput.Model{email, password, name}}
	p.setFocus(fieldEmail)
	return p
}

// reset clears the password and error and focuses the first field.
func (p *loginPage) reset() tea.Cmd {
	p.inputs[fieldPassword].SetValue("")
	p.err = ""
	p.busy = false
	return p.setFocus(fieldEmail)
}

func (p *loginPage) fields() int {
	if p.register {
		return 3
	}
	return 2
}

func (p *loginPage) setFocus(i int) tea.Cmd {
	p.focus = i
	var cmd tea.Cmd
	for j := range p.inputs {
		if j == i {
			cmd = p.inputs[j].Focus()
		} else {
			p.inputs[j].Blur()
		}
	}
	return cmd
}

func (p *loginPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginDoneMsg:
		p.busy = false
		if msg.err != nil {
			p.err = userMessage(msg.err)
			return nil
		}
		if msg.registered {
			p.register = false
			p.notice = "Account created. Sign in to continue."
			p.inputs[fieldPassword].SetValue("")
			return p.setFocus(fieldPassword)
		}
		return func() tea.Msg { return sessionChangedMsg{} }

	case tea.KeyMsg:
		if p.busy {
			return nil
		}
		switch msg.String() {
		case "tab", "down":
			return p.setFocus((p.focus + 1) % p.fields())
		case "shift+tab", "up":
			return p.setFocus((p.focus + p.fields() - 1) % p.fields())
		case "ctrl+r":
			p.register = !p.register
			p.err, p.notice = "", ""
			if p.focus >= p.fields() {
				return p.setFocus(fieldEmail)
			}
			return nil
		case "enter":
			if p.focus < p.fields()-1 {
				return p.setFocus(p.focus + 1)
			}
			return p.submit()
		case "esc":
			return tea.Quit
		}
	}

	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	return cmd
}

func (p *loginPage) submit() tea.Cmd {
	email := strings.TrimSpace(p.inputs[fieldEmail].Value())
	password := p.inputs[fieldPassword].Value()
	p.err, p.notice = "", ""

	store, auth := p.store, p.auth
	if p.register {
		req := models.RegisterRequest{
			Email:    email,
			Password: password,
			FullName: strings.TrimSpace(p.inputs[fieldName].Value()),
		}
		if err := models.Validate(req); err != nil {
			p.err = err.Error()
			return nil
		}
		p.busy = true
		return func() tea.Msg {
			_, err := auth.Register(context.Background(), req)
			return loginDoneMsg{registered: err == nil, err: err}
		}
	}

	if email == "" || password == "" {
		p.err = "Email and password are required"
		return nil
	}
	p.busy = true
	return func() tea.Msg {
		return loginDoneMsg{err: store.Login(context.Background(), auth, email, password)}
	}
}

// userMessage prefers the server's explanation over the request details.
func userMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return err.Error()
}

func (p *loginPage) view(spin string) string {
	var b strings.Builder

	title := "Sign in to GMB Automation"
	toggle := FormatKey("ctrl+r", "create an account")
	if p.register {
		title = "Create your account"
		toggle = FormatKey("ctrl+r", "back to sign in")
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	for i := 0; i < p.fields(); i++ {
		b.WriteString(p.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case p.busy:
		b.WriteString(spin + " " + infoStyle.Render("Please wait..."))
	case p.err != "":
		b.WriteString(errorStyle.Render(p.err))
	case p.notice != "":
		b.WriteString(successStyle.Render(p.notice))
	}
	b.WriteString("\n")
	b.WriteString(helpLine("tab", "next field", "enter", "submit", "esc", "quit"))
	b.WriteString("\n")
	b.WriteString(toggle)

	return boxStyle.Render(b.String())
}
