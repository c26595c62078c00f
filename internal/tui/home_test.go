package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/newsreel/newsreel/internal/headline"
	"github.com/newsreel/newsreel/internal/nav"
	"github.com/newsreel/newsreel/internal/store"
)

type recorder struct {
	actions []store.Action
	routes  []nav.Route
}

func (r *recorder) dispatch(a store.Action) tea.Cmd {
	r.actions = append(r.actions, a)
	return nil
}

func (r *recorder) navigate(route string, params nav.Params) tea.Cmd {
	r.routes = append(r.routes, nav.Route{Name: route, Params: params})
	return nil
}

func (r *recorder) fetchedPages() []int {
	var pages []int
	for _, a := range r.actions {
		if f, ok := a.(store.FetchHeadlinesAction); ok {
			pages = append(pages, f.Page)
		}
	}
	return pages
}

func (r *recorder) count(typ string) int {
	n := 0
	for _, a := range r.actions {
		if a.Type() == typ {
			n++
		}
	}
	return n
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleHeadlines(n int) []headline.Headline {
	out := make([]headline.Headline, n)
	for i := range out {
		out[i] = headline.Headline{
			Title:       fmt.Sprintf("Story %d", i),
			URL:         fmt.Sprintf("https://news.example.com/%d", i),
			Source:      "Wire",
			PublishedAt: time.Now().Add(-time.Duration(i) * time.Minute),
		}
	}
	return out
}

func stateWith(headlines, pinned []headline.Headline) stateMsg {
	return stateMsg{state: store.State{News: store.NewsState{Headlines: headlines, Pinned: pinned}}}
}

// newTestHome mounts a home screen 30 lines tall. With no pinned strip
// the list shows 8 rows, so the 0.5 threshold is 4 rows from the end.
func newTestHome(t *testing.T) (*homeScreen, *recorder) {
	t.Helper()
	rec := &recorder{}
	h := newHomeScreen(rec.dispatch, rec.navigate, 0.5)
	h.Init()
	h.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return h, rec
}

func press(h *homeScreen, keys ...string) {
	for _, k := range keys {
		h.Update(key(k))
	}
}

func TestHomeMountFetchesFirstPageAndPins(t *testing.T) {
	h, rec := newTestHome(t)

	if got := rec.fetchedPages(); fmt.Sprint(got) != "[1]" {
		t.Errorf("expected a single fetch of page 1 on mount, got %v", got)
	}
	if n := rec.count(store.TypeLoadPinnedNews); n != 1 {
		t.Errorf("expected LOAD_PINNED_NEWS once on mount, got %d", n)
	}
	if h.inflight != 1 {
		t.Errorf("expected one fetch in flight, got %d", h.inflight)
	}
	if !strings.Contains(h.View(80, 30), "loading page 1") {
		t.Error("expected the footer to show the page being loaded")
	}
}

func TestHomeLoadMoreFiresOncePerCrossing(t *testing.T) {
	h, rec := newTestHome(t)
	h.Update(stateWith(sampleHeadlines(20), nil))

	press(h, strings.Split(strings.Repeat("j", 15), "")...)
	if got := rec.fetchedPages(); len(got) != 1 {
		t.Fatalf("expected no load-more before the threshold, got pages %v", got)
	}

	press(h, "j")
	if got := rec.fetchedPages(); fmt.Sprint(got) != "[1 2]" {
		t.Fatalf("expected page 2 when crossing the threshold, got %v", got)
	}
	if h.page != 2 {
		t.Errorf("expected page cursor 2, got %d", h.page)
	}
	if n := rec.count(store.TypeLoadPinnedNews); n != 2 {
		t.Errorf("expected pins reloaded with every page change, got %d", n)
	}

	// Staying inside the zone does not fire again.
	press(h, "j", "j", "G")
	if got := rec.fetchedPages(); len(got) != 2 {
		t.Errorf("expected no repeat while inside the threshold, got %v", got)
	}
}

func TestHomeLoadMoreHasNoInFlightGuard(t *testing.T) {
	h, rec := newTestHome(t)
	h.Update(stateWith(sampleHeadlines(20), nil))

	press(h, strings.Split(strings.Repeat("j", 16), "")...)
	// Leave the zone and come back before page 2 has arrived.
	press(h, "k", "j")

	if got := rec.fetchedPages(); fmt.Sprint(got) != "[1 2 3]" {
		t.Fatalf("expected a second load-more while page 2 is pending, got %v", got)
	}
	if h.inflight != 3 {
		t.Errorf("expected three overlapping fetches, got %d", h.inflight)
	}

	h.Update(dispatchDoneMsg{action: store.FetchAndStoreHeadlines(1)})
	h.Update(dispatchDoneMsg{action: store.LoadPinnedNews()})
	if h.inflight != 2 {
		t.Errorf("expected only fetch completions to count down, got %d", h.inflight)
	}
}

func TestHomeNewContentRearmsLoadMore(t *testing.T) {
	h, rec := newTestHome(t)
	h.Update(stateWith(sampleHeadlines(20), nil))
	press(h, "G")
	if got := rec.fetchedPages(); fmt.Sprint(got) != "[1 2]" {
		t.Fatalf("expected page 2, got %v", got)
	}

	// Page 2 arrives empty: same length, cursor still at the end.
	h.Update(stateWith(sampleHeadlines(20), nil))
	if got := rec.fetchedPages(); len(got) != 2 {
		t.Errorf("expected no load-more for unchanged content, got %v", got)
	}

	// Longer content with the cursor still near the end fires again.
	h.Update(stateWith(sampleHeadlines(22), nil))
	if got := rec.fetchedPages(); fmt.Sprint(got) != "[1 2 3]" {
		t.Errorf("expected page 3 after content grew, got %v", got)
	}
}

func TestHomeShortListLoadsMoreImmediately(t *testing.T) {
	h, rec := newTestHome(t)
	h.Update(stateWith(sampleHeadlines(2), nil))
	if got := rec.fetchedPages(); fmt.Sprint(got) != "[1 2]" {
		t.Errorf("expected a list shorter than the threshold to request page 2, got %v", got)
	}
}

func TestHomeTogglePinByTitle(t *testing.T) {
	h, rec := newTestHome(t)
	items := sampleHeadlines(3)
	h.Update(stateWith(items, nil))
	rec.actions = nil

	press(h, "j", "p")
	pin, ok := rec.actions[len(rec.actions)-1].(store.PinAction)
	if !ok || pin.Item.Title != "Story 1" {
		t.Fatalf("expected pin of Story 1, got %#v", rec.actions)
	}

	// A pinned entry with the same title but another URL counts as pinned.
	twin := headline.Headline{Title: "Story 1", URL: "https://mirror.example.com/1"}
	h.Update(stateWith(items, []headline.Headline{twin}))
	press(h, " ")
	unpin, ok := rec.actions[len(rec.actions)-1].(store.UnpinAction)
	if !ok || unpin.Item.URL != items[1].URL {
		t.Fatalf("expected unpin of the selected row, got %#v", rec.actions[len(rec.actions)-1])
	}
}

func TestHomePinnedStripVisibility(t *testing.T) {
	h, _ := newTestHome(t)
	items := sampleHeadlines(3)

	h.Update(stateWith(items, nil))
	if h.pinnedStripVisible() || strings.Contains(h.View(80, 30), "Pinned News") {
		t.Error("expected pinned strip hidden with no pins")
	}

	h.Update(stateWith(items, items[:1]))
	if !h.pinnedStripVisible() || !strings.Contains(h.View(80, 30), "Pinned News") {
		t.Error("expected pinned strip shown with one pin")
	}

	h.Update(stateWith(items, []headline.Headline{}))
	if h.pinnedStripVisible() {
		t.Error("expected pinned strip hidden again after the last unpin")
	}
}

func TestHomeRowsKeyedByURLAndIndex(t *testing.T) {
	h, _ := newTestHome(t)
	items := sampleHeadlines(4)
	items[3].URL = items[0].URL
	h.Update(stateWith(items, nil))

	rows := h.rows()
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	seen := map[string]bool{}
	for i, r := range rows {
		want := fmt.Sprintf("%s-%d", items[i].URL, i)
		if r.key != want {
			t.Errorf("row %d key = %q, want %q", i, r.key, want)
		}
		if seen[r.key] {
			t.Errorf("duplicate row key %q", r.key)
		}
		seen[r.key] = true
	}
}

func TestHomePressNavigatesToDetail(t *testing.T) {
	h, rec := newTestHome(t)
	items := sampleHeadlines(3)
	h.Update(stateWith(items, nil))

	press(h, "j", "enter")
	if len(rec.routes) != 1 {
		t.Fatalf("expected one navigation, got %d", len(rec.routes))
	}
	r := rec.routes[0]
	if r.Name != nav.RouteNewsDetail {
		t.Errorf("expected route %q, got %q", nav.RouteNewsDetail, r.Name)
	}
	if got, _ := r.Params["item"].(headline.Headline); got.URL != items[1].URL {
		t.Errorf("expected item param for the selected row, got %#v", r.Params)
	}
}

func TestHomePinnedFocus(t *testing.T) {
	h, rec := newTestHome(t)
	items := sampleHeadlines(3)
	h.Update(stateWith(items, items[:2]))
	rec.routes = nil

	press(h, "tab", "l", "enter")
	if len(rec.routes) != 1 || rec.routes[0].Params["item"].(headline.Headline).Title != "Story 1" {
		t.Fatalf("expected navigation to the second pinned item, got %#v", rec.routes)
	}

	press(h, "x")
	if u, ok := rec.actions[len(rec.actions)-1].(store.UnpinAction); !ok || u.Item.Title != "Story 1" {
		t.Errorf("expected unpin from the strip, got %#v", rec.actions[len(rec.actions)-1])
	}

	// Losing every pin returns focus to the list.
	h.Update(stateWith(items, nil))
	if h.focus != focusList {
		t.Error("expected focus back on the list once the strip is hidden")
	}
}

func TestHomeShowsDispatchError(t *testing.T) {
	h, _ := newTestHome(t)
	h.Update(dispatchDoneMsg{action: store.FetchAndStoreHeadlines(1), err: errors.New("feed down")})
	if !strings.Contains(h.View(100, 30), "feed down") {
		t.Error("expected error in the status bar")
	}
	if h.inflight != 0 {
		t.Errorf("expected failed fetch to count down, got %d", h.inflight)
	}

	press(h, "j")
	if h.err != nil {
		t.Error("expected a key press to clear the error")
	}
}
