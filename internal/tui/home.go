package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/newsreel/newsreel/internal/headline"
	"github.com/newsreel/newsreel/internal/nav"
	"github.com/newsreel/newsreel/internal/store"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPinned
)

// homeScreen shows the headline feed and the pinned strip. It owns the page
// cursor; headlines and pins come from store snapshots.
type homeScreen struct {
	dispatch  func(store.Action) tea.Cmd
	navigate  func(route string, params nav.Params) tea.Cmd
	threshold float64

	page      int
	headlines []headline.Headline
	pinned    []headline.Headline

	cursor    int
	pinCursor int
	focus     focusPane

	// sentEndFor is the headline count load-more last fired for while the
	// cursor sat inside the end threshold, -1 once the cursor leaves it.
	sentEndFor int
	// inflight counts page fetches dispatched but not yet finished.
	inflight int

	spinner spinner.Model
	width   int
	height  int
	err     error
	now     func() time.Time
}

func newHomeScreen(dispatch func(store.Action) tea.Cmd, navigate func(string, nav.Params) tea.Cmd, threshold float64) *homeScreen {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	return &homeScreen{
		dispatch:   dispatch,
		navigate:   navigate,
		threshold:  threshold,
		page:       1,
		sentEndFor: -1,
		spinner:    sp,
		now:        time.Now,
	}
}

// Init runs the mount effect for page 1.
func (h *homeScreen) Init() tea.Cmd {
	return h.pageEffect()
}

// pageEffect requests the current page and a reload of the pinned set. It
// runs on mount and on every page change.
func (h *homeScreen) pageEffect() tea.Cmd {
	h.inflight++
	return tea.Batch(
		h.dispatch(store.FetchAndStoreHeadlines(h.page)),
		h.dispatch(store.LoadPinnedNews()),
		h.spinner.Tick,
	)
}

// loadMore advances the page cursor. It does not check whether a fetch is
// already outstanding or whether the last page was empty.
func (h *homeScreen) loadMore() tea.Cmd {
	h.page++
	return h.pageEffect()
}

// togglePin unpins item if a pin with the same title exists, otherwise pins it.
func (h *homeScreen) togglePin(item headline.Headline) tea.Cmd {
	if headline.IsPinned(h.pinned, item) {
		return h.dispatch(store.UnpinNewsItem(item))
	}
	return h.dispatch(store.PinNewsItem(item))
}

func (h *homeScreen) press(item headline.Headline) tea.Cmd {
	return h.navigate(nav.RouteNewsDetail, nav.Params{"item": item})
}

func (h *homeScreen) listHeight() int {
	used := headerHeight + 1 + 1 + 1 // section title, footer, status bar
	if len(h.pinned) > 0 {
		used += pinnedStripHeight
	}
	return max(itemHeight, h.height-used)
}

// maybeLoadMore fires load-more when the cursor is inside the end threshold
// and it has not fired yet for the current list length.
func (h *homeScreen) maybeLoadMore() tea.Cmd {
	if !nearEnd(len(h.headlines), h.cursor, visibleRows(h.listHeight()), h.threshold) {
		h.sentEndFor = -1
		return nil
	}
	if h.sentEndFor == len(h.headlines) {
		return nil
	}
	h.sentEndFor = len(h.headlines)
	return h.loadMore()
}

func (h *homeScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width, h.height = msg.Width, msg.Height
		return h, h.maybeLoadMore()

	case stateMsg:
		h.headlines = msg.state.News.Headlines
		h.pinned = msg.state.News.Pinned
		if h.cursor >= len(h.headlines) {
			h.cursor = max(0, len(h.headlines)-1)
		}
		if h.pinCursor >= len(h.pinned) {
			h.pinCursor = max(0, len(h.pinned)-1)
		}
		if len(h.pinned) == 0 {
			h.focus = focusList
		}
		return h, h.maybeLoadMore()

	case dispatchDoneMsg:
		if _, ok := msg.action.(store.FetchHeadlinesAction); ok && h.inflight > 0 {
			h.inflight--
		}
		if msg.err != nil {
			h.err = msg.err
		}
		return h, nil

	case openErrMsg:
		h.err = msg.err
		return h, nil

	case spinner.TickMsg:
		if h.inflight > 0 {
			var cmd tea.Cmd
			h.spinner, cmd = h.spinner.Update(msg)
			return h, cmd
		}
		return h, nil

	case tea.KeyMsg:
		h.err = nil
		return h.handleKey(msg)
	}
	return h, nil
}

func (h *homeScreen) handleKey(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "q":
		return h, tea.Quit
	case "tab":
		if h.focus == focusList && len(h.pinned) > 0 {
			h.focus = focusPinned
		} else {
			h.focus = focusList
		}
		return h, nil
	}

	if h.focus == focusPinned {
		return h.handlePinnedKey(msg)
	}

	switch msg.String() {
	case "j", "down":
		if h.cursor < len(h.headlines)-1 {
			h.cursor++
		}
		return h, h.maybeLoadMore()
	case "k", "up":
		if h.cursor > 0 {
			h.cursor--
		}
		return h, h.maybeLoadMore()
	case "g", "home":
		h.cursor = 0
		return h, h.maybeLoadMore()
	case "G", "end":
		h.cursor = max(0, len(h.headlines)-1)
		return h, h.maybeLoadMore()
	case "p", " ":
		if item, ok := h.selected(); ok {
			return h, h.togglePin(item)
		}
	case "enter", "o":
		if item, ok := h.selected(); ok {
			return h, h.press(item)
		}
	}
	return h, nil
}

func (h *homeScreen) handlePinnedKey(msg tea.KeyMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "l", "right":
		if h.pinCursor < len(h.pinned)-1 {
			h.pinCursor++
		}
	case "h", "left":
		if h.pinCursor > 0 {
			h.pinCursor--
		}
	case "p", " ", "x":
		if h.pinCursor < len(h.pinned) {
			return h, h.togglePin(h.pinned[h.pinCursor])
		}
	case "enter", "o":
		if h.pinCursor < len(h.pinned) {
			return h, h.press(h.pinned[h.pinCursor])
		}
	}
	return h, nil
}

func (h *homeScreen) selected() (headline.Headline, bool) {
	if h.cursor < 0 || h.cursor >= len(h.headlines) {
		return headline.Headline{}, false
	}
	return h.headlines[h.cursor], true
}

// rows is the keyed list the screen renders.
func (h *homeScreen) rows() []row {
	return buildRows(h.headlines, h.pinned)
}

func (h *homeScreen) pinnedStripVisible() bool {
	return len(h.pinned) != 0
}

func (h *homeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(renderHeader(width, h.now()))

	if h.pinnedStripVisible() {
		b.WriteString(renderPinnedStrip(h.pinned, h.pinCursor, h.focus == focusPinned, width))
		b.WriteString("\n")
	}

	b.WriteString(subHeaderStyle.Render("Today's Headlines"))
	b.WriteString("\n")

	listH := h.listHeight()
	list := renderList(h.rows(), h.cursor, h.focus == focusList, listH, width-2)
	lines := strings.Split(list, "\n")
	for len(lines) < listH {
		lines = append(lines, "")
	}
	b.WriteString(strings.Join(lines[:listH], "\n"))
	b.WriteString("\n")

	// Footer: spinner while any page fetch is outstanding.
	if h.inflight > 0 {
		b.WriteString(" " + h.spinner.View() + itemTimeStyle.Render(fmt.Sprintf(" loading page %d", h.page)))
	}
	b.WriteString("\n")

	left := fmt.Sprintf("page %d · %d headlines · %d pinned", h.page, len(h.headlines), len(h.pinned))
	hints := "enter open  p pin  tab pinned  q quit"
	b.WriteString(renderStatusBar(left, hints, h.err, width))
	return b.String()
}
