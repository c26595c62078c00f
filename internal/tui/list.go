package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/newsreel/newsreel/internal/headline"
)

// Each row is a title line, a meta line and a blank separator.
const itemHeight = 3

type row struct {
	key    string
	item   headline.Headline
	pinned bool
}

// buildRows keys every headline by url and position and marks pinned ones.
func buildRows(items, pinned []headline.Headline) []row {
	rows := make([]row, len(items))
	for i, it := range items {
		rows[i] = row{
			key:    headline.RowKey(it, i),
			item:   it,
			pinned: headline.IsPinned(pinned, it),
		}
	}
	return rows
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// truncateStr cuts s to n terminal cells.
func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= n {
		return s
	}
	if n <= 3 {
		return runewidth.Truncate(s, n, "")
	}
	return runewidth.Truncate(s, n, "...")
}

func renderRow(r row, selected bool, width int) string {
	if width < 10 {
		width = 30
	}

	mark := "  "
	if r.pinned {
		mark = pinMarkStyle.Render("* ")
	}

	var title string
	if selected {
		title = itemSelectedStyle.Render("> " + truncateStr(r.item.Title, width-6))
	} else {
		title = itemTitleStyle.Render("  " + truncateStr(r.item.Title, width-6))
	}

	meta := "    " + itemSourceStyle.Render(r.item.Source)
	if rel := relativeTime(r.item.PublishedAt); rel != "" {
		meta += " " + itemTimeStyle.Render("· "+rel)
	}
	return mark + title + "\n" + meta
}

// visibleRows is how many rows fit in height lines.
func visibleRows(height int) int {
	return max(1, height/itemHeight)
}

// windowStart is the first row shown so the cursor stays on screen.
func windowStart(total, cursor, visible int) int {
	start := 0
	if cursor >= visible {
		start = cursor - visible + 1
	}
	if start+visible > total {
		start = max(0, total-visible)
	}
	return start
}

func renderList(rows []row, cursor int, focused bool, height, width int) string {
	if len(rows) == 0 {
		return centerLine("No headlines yet", width, height)
	}

	visible := visibleRows(height)
	start := windowStart(len(rows), cursor, visible)
	end := min(start+visible, len(rows))

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(renderRow(rows[i], focused && i == cursor, width))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// nearEnd reports whether fewer than threshold*visible rows remain after the
// cursor.
func nearEnd(total, cursor, visible int, threshold float64) bool {
	if total == 0 {
		return false
	}
	remaining := total - 1 - cursor
	return float64(remaining) < threshold*float64(visible)
}

func centerLine(s string, width, height int) string {
	pad := max(0, (width-runewidth.StringWidth(s))/2)
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}
