package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"mvdan.cc/xurls/v2"

	"github.com/newsreel/newsreel/internal/headline"
	"github.com/newsreel/newsreel/internal/nav"
	"github.com/newsreel/newsreel/internal/store"
)

var linkPattern = xurls.Strict()

// detailScreen is the NewsDetail route. It renders whatever item it was
// navigated with.
type detailScreen struct {
	item     headline.Headline
	pinned   []headline.Headline
	links    []string
	dispatch func(store.Action) tea.Cmd
	open     func(url string) tea.Cmd
	scroll   int
	err      error
}

func newDetailScreen(params nav.Params, pinned []headline.Headline, dispatch func(store.Action) tea.Cmd, open func(string) tea.Cmd) *detailScreen {
	item, _ := params["item"].(headline.Headline)
	return &detailScreen{
		item:     item,
		pinned:   pinned,
		links:    extractLinks(item),
		dispatch: dispatch,
		open:     open,
	}
}

// extractLinks returns URLs mentioned in the description other than the
// item's own URL, in order of appearance, without repeats.
func extractLinks(item headline.Headline) []string {
	seen := map[string]bool{item.URL: true}
	var out []string
	for _, l := range linkPattern.FindAllString(item.Description, -1) {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func (d *detailScreen) Init() tea.Cmd { return nil }

func (d *detailScreen) isPinned() bool {
	return headline.IsPinned(d.pinned, d.item)
}

func (d *detailScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		d.pinned = msg.state.News.Pinned
		return d, nil

	case dispatchDoneMsg:
		if msg.err != nil {
			d.err = msg.err
		}
		return d, nil

	case openErrMsg:
		d.err = msg.err
		return d, nil

	case tea.KeyMsg:
		d.err = nil
		switch msg.String() {
		case "esc", "backspace", "h", "left":
			return d, func() tea.Msg { return backMsg{} }
		case "q":
			return d, tea.Quit
		case "o", "enter":
			if d.item.URL != "" {
				return d, d.open(d.item.URL)
			}
		case "p", " ":
			if d.isPinned() {
				return d, d.dispatch(store.UnpinNewsItem(d.item))
			}
			return d, d.dispatch(store.PinNewsItem(d.item))
		case "j", "down":
			d.scroll++
		case "k", "up":
			if d.scroll > 0 {
				d.scroll--
			}
		}
	}
	return d, nil
}

func (d *detailScreen) View(width, height int) string {
	contentWidth := max(20, min(width-8, 100))

	title := d.item.Title
	if title == "" {
		title = "(untitled)"
	}
	if d.isPinned() {
		title = pinMarkStyle.Render("* ") + title
	}

	meta := d.item.Source
	if !d.item.PublishedAt.IsZero() {
		if meta != "" {
			meta += " · "
		}
		meta += d.item.PublishedAt.Local().Format("Jan 2, 2006 15:04")
	}

	desc := d.item.Description
	if desc == "" {
		desc = "(No description available)"
	}

	parts := []string{
		detailTitleStyle.Width(contentWidth).Render(title),
		detailSourceStyle.Render(meta),
		"",
		detailBodyStyle.Width(contentWidth).Render(desc),
		"",
		detailLinkStyle.Width(contentWidth).Render("Read more: " + d.item.URL),
	}
	if len(d.links) > 0 {
		parts = append(parts, "", itemTimeStyle.Render("Links mentioned:"))
		for _, l := range d.links {
			parts = append(parts, detailLinkStyle.Render("  "+truncateStr(l, contentWidth-2)))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	lines := strings.Split(content, "\n")
	if d.scroll > 0 {
		lines = lines[min(d.scroll, len(lines)-1):]
	}
	bodyHeight := max(3, height-6)
	if len(lines) > bodyHeight {
		lines = lines[:bodyHeight]
	}

	card := detailCardStyle.Render(strings.Join(lines, "\n"))
	body := lipgloss.Place(width, height-1, lipgloss.Center, lipgloss.Top, card)

	pinHint := "p pin"
	if d.isPinned() {
		pinHint = "p unpin"
	}
	return body + "\n" + renderStatusBar("NewsDetail", "o open  "+pinHint+"  esc back  q quit", d.err, width)
}
