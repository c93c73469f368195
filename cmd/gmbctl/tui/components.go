package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmationDialog represents a yes/no confirmation dialog
type ConfirmationDialog struct {
	Title       string
	Message     string
	YesSelected bool
	OnConfirm   func() tea.Cmd
	OnCancel    func() tea.Cmd
}

// NewConfirmationDialog creates a new confirmation dialog
func NewConfirmationDialog(title, message string) ConfirmationDialog {
	return ConfirmationDialog{
		Title:       title,
		Message:     message,
		YesSelected: false,
	}
}

// Update handles a key and reports whether the dialog is finished.
func (d *ConfirmationDialog) Update(msg tea.Msg) (tea.Cmd, bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}
	switch key.String() {
	case "left", "h":
		d.YesSelected = true
	case "right", "l":
		d.YesSelected = false
	case "y":
		d.YesSelected = true
		return d.finish(), true
	case "n", "esc", "q":
		d.YesSelected = false
		return d.finish(), true
	case "enter":
		return d.finish(), true
	}
	return nil, false
}

func (d *ConfirmationDialog) finish() tea.Cmd {
	if d.YesSelected && d.OnConfirm != nil {
		return d.OnConfirm()
	}
	if !d.YesSelected && d.OnCancel != nil {
		return d.OnCancel()
	}
	return nil
}

// View renders the confirmation dialog
func (d ConfirmationDialog) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n")
	b.WriteString(d.Message)
	b.WriteString("\n\n")

	yesButton := inactiveButtonStyle.Render("Yes")
	noButton := inactiveButtonStyle.Render("No")

	if d.YesSelected {
		yesButton = activeButtonStyle.Render("Yes")
	} else {
		noButton = activeButtonStyle.Render("No")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yesButton, "  ", noButton))
	b.WriteString("\n")
	b.WriteString(helpLine("←/→", "choose", "enter", "confirm", "esc", "cancel"))

	return activeBoxStyle.Render(b.String())
}

// AlertDialog is a blocking message dismissed with enter.
type AlertDialog struct {
	Message string
}

// View renders the alert.
func (a AlertDialog) View() string {
	return activeBoxStyle.Render(a.Message + "\n" + helpLine("enter", "ok"))
}

// LogView keeps the most recent activity lines.
type LogView struct {
	Logs   []string
	MaxLen int
}

// NewLogView creates a new log view
func NewLogView(maxLen int) LogView {
	return LogView{
		Logs:   make([]string, 0),
		MaxLen: maxLen,
	}
}

// AddLog adds a timestamped entry
func (l *LogView) AddLog(entry string) {
	l.Logs = append(l.Logs, mutedStyle.Render(time.Now().Format("15:04:05"))+" "+entry)
	if len(l.Logs) > l.MaxLen {
		l.Logs = l.Logs[1:]
	}
}

// View renders the log view
func (l LogView) View() string {
	if len(l.Logs) == 0 {
		return ""
	}
	return strings.Join(l.Logs, "\n")
}

// listItem is one row of a page list.
type listItem struct {
	id    int64
	title string
	desc  string
}

func (i listItem) FilterValue() string { return i.title }
func (i listItem) Title() string       { return i.title }
func (i listItem) Description() string { return i.desc }

// itemDelegate renders a two-line list row.
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 2 }
func (d itemDelegate) Spacing() int                            { return 1 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(listItem)
	if !ok {
		return
	}

	var s string
	if index == m.Index() {
		s = selectedItemStyle.Render("▸ " + i.title + "\n  " + i.desc)
	} else {
		s = unselectedItemStyle.Render("  " + i.title + "\n  " + mutedStyle.Render(i.desc))
	}

	_, _ = fmt.Fprint(w, s)
}

func newList(title string) list.Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle
	return l
}

// selectedID returns the id of the highlighted row.
func selectedID(l list.Model) (int64, bool) {
	item, ok := l.SelectedItem().(listItem)
	if !ok {
		return 0, false
	}
	return item.id, true
}
