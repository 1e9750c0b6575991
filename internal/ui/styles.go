// Package ui provides terminal styling for issuesync output.
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Adaptive colors work on both light and dark terminals.
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#E65100", Dark: "#FFB74D"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#64B5F6"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9E9E9E"}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	BoldStyle   = lipgloss.NewStyle().Bold(true)

	PriorityCriticalStyle = lipgloss.NewStyle().Foreground(ColorFail).Bold(true)
	PriorityHighStyle     = lipgloss.NewStyle().Foreground(ColorWarn)
	PriorityMediumStyle   = lipgloss.NewStyle().Foreground(ColorAccent)
)

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconInfo = "ℹ"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Init picks the color profile for out. Colors are disabled when out is
// not a terminal or NO_COLOR is set.
func Init(out *os.File) {
	if os.Getenv("NO_COLOR") != "" || !IsTerminal(out) {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(out).EnvColorProfile())
}

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderBold(s string) string   { return BoldStyle.Render(s) }

func RenderPassIcon() string { return PassStyle.Render(IconPass) }
func RenderWarnIcon() string { return WarnStyle.Render(IconWarn) }
func RenderFailIcon() string { return FailStyle.Render(IconFail) }
func RenderInfoIcon() string { return AccentStyle.Render(IconInfo) }

// RenderStatus colors a sync status: completed, partial or failed.
func RenderStatus(status string) string {
	switch status {
	case "completed":
		return PassStyle.Render(status)
	case "partial":
		return WarnStyle.Render(status)
	case "failed":
		return FailStyle.Render(status)
	default:
		return MutedStyle.Render(status)
	}
}

// StatusIcon returns the icon matching a sync status.
func StatusIcon(status string) string {
	switch status {
	case "completed":
		return RenderPassIcon()
	case "partial":
		return RenderWarnIcon()
	case "failed":
		return RenderFailIcon()
	default:
		return RenderInfoIcon()
	}
}

// RenderPriority colors a record priority. An empty priority renders as a
// muted dash.
func RenderPriority(priority string) string {
	switch strings.ToLower(priority) {
	case "critical":
		return PriorityCriticalStyle.Render(priority)
	case "high":
		return PriorityHighStyle.Render(priority)
	case "medium":
		return PriorityMediumStyle.Render(priority)
	case "":
		return MutedStyle.Render("-")
	default:
		return priority
	}
}
