package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var asciiLogo = []string{
	`█▄ █ █▀▀ █ █ █ █▀ █▀█ █▀▀ █▀▀ █  `,
	`█ ▀█ ██▄ ▀▄▀▄▀ ▄█ █▀▄ ██▄ ██▄ █▄▄`,
}

// headerHeight is the logo plus a blank line.
var headerHeight = len(asciiLogo) + 1

func renderHeader(width int, now time.Time) string {
	lines := make([]string, len(asciiLogo))
	for i, l := range asciiLogo {
		lines[i] = logoStyle.Render(l)
	}

	date := itemTimeStyle.Render(now.Format("Mon Jan 2"))
	gap := max(0, width-lipgloss.Width(lines[0])-lipgloss.Width(date)-1)
	lines[0] += fmt.Sprintf("%*s", gap, "") + date

	return strings.Join(lines, "\n") + "\n"
}
