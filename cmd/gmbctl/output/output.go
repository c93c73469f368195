package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marshallshelly/gmbctl/pkg/models"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")
	colorStar    = lipgloss.Color("#FACC15")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	starStyle    = lipgloss.NewStyle().Foreground(colorStar)
)

// Out receives every message. Commands printing JSON point it at stderr so
// stdout stays machine-readable.
var Out io.Writer = os.Stdout

// Success prints a success message
func Success(format string, args ...any) {
	fmt.Fprint(Out, successStyle.Render("✓ "))
	fmt.Fprintf(Out, format+"\n", args...)
}

// Warning prints a warning message
func Warning(format string, args ...any) {
	fmt.Fprint(Out, warningStyle.Render("⚠ "))
	fmt.Fprintf(Out, format+"\n", args...)
}

// Error prints an error message
func Error(format string, args ...any) {
	fmt.Fprint(Out, errorStyle.Render("✗ "))
	fmt.Fprintf(Out, format+"\n", args...)
}

// Info prints an info message
func Info(format string, args ...any) {
	fmt.Fprint(Out, infoStyle.Render("ℹ "))
	fmt.Fprintf(Out, format+"\n", args...)
}

// Alert prints a message that needs the user's attention.
func Alert(message string) {
	fmt.Fprintln(Out, primaryStyle.Render("! ")+message)
}

// Muted prints a muted message
func Muted(format string, args ...any) {
	fmt.Fprintln(Out, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header
func Section(title string) {
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, primaryStyle.Render(title))
	fmt.Fprintln(Out, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
	fmt.Fprintln(Out)
}

// StatusIcon returns a colored icon for a post status.
func StatusIcon(status models.PostStatus) string {
	switch status {
	case models.PostStatusPublished:
		return successStyle.Render("✓")
	case models.PostStatusDraft:
		return warningStyle.Render("○")
	case models.PostStatusFailed:
		return errorStyle.Render("✗")
	case models.PostStatusScheduled:
		return infoStyle.Render("◉")
	default:
		return mutedStyle.Render("•")
	}
}

// Stars renders a rating as five stars.
func Stars(r models.Review) string {
	n := r.Stars()
	return starStyle.Render(strings.Repeat("★", n)) + mutedStyle.Render(strings.Repeat("☆", 5-n))
}

// OnOff renders a toggle.
func OnOff(enabled bool) string {
	if enabled {
		return successStyle.Render("on")
	}
	return mutedStyle.Render("off")
}
