package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func renderStatusBar(left, hints string, err error, width int) string {
	if err != nil {
		left = errorStyle.Render(truncateStr(err.Error(), max(10, width-lipgloss.Width(hints)-6)))
	}
	right := " " + hints + " "

	gap := max(0, width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	bar := left + fmt.Sprintf("%*s", gap, "") + right
	return statusBarStyle.Width(width).Render(bar)
}
