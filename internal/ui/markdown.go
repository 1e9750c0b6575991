package ui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DefaultWrap is the word-wrap width used for rendered markdown.
const DefaultWrap = 100

// RenderMarkdown renders md for the terminal. Without a TTY it uses the
// plain notty style so piped output stays free of escape codes.
func RenderMarkdown(md string, width int, tty bool) (string, error) {
	if width <= 0 {
		width = DefaultWrap
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch {
	case !tty:
		opts = append(opts, glamour.WithStandardStyle(styles.NoTTYStyle), glamour.WithColorProfile(termenv.Ascii))
	case lipgloss.HasDarkBackground():
		opts = append(opts, glamour.WithStandardStyle(styles.DarkStyle))
	default:
		opts = append(opts, glamour.WithStandardStyle(styles.LightStyle))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
