package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/newsreel/newsreel/internal/headline"
)

const (
	pinnedChipWidth = 28
	// title line + bordered strip
	pinnedStripHeight = 4
)

// renderPinnedStrip lays pinned items out horizontally, scrolled so the
// selected chip is visible. Callers hide the strip when pinned is empty.
func renderPinnedStrip(pinned []headline.Headline, cursor int, focused bool, width int) string {
	inner := max(10, width-4)

	chips := make([]string, len(pinned))
	for i, p := range pinned {
		style := chipStyle
		if focused && i == cursor {
			style = chipSelectedStyle
		}
		chips[i] = style.Render(truncateStr(p.Title, pinnedChipWidth))
	}

	// Drop chips from the left until the cursor chip fits.
	start := 0
	for start < cursor && lipgloss.Width(lipgloss.JoinHorizontal(lipgloss.Top, chips[start:cursor+1]...)) > inner {
		start++
	}

	var line string
	for _, c := range chips[start:] {
		candidate := lipgloss.JoinHorizontal(lipgloss.Top, line, c)
		if lipgloss.Width(candidate) > inner && line != "" {
			break
		}
		line = candidate
	}

	style := pinnedStripStyle
	if focused {
		style = pinnedStripActiveStyle
	}
	return subHeaderStyle.Render("Pinned News") + "\n" + style.Width(width-2).Render(line)
}
