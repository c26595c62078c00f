package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/newsreel/newsreel/internal/cache"
	"github.com/newsreel/newsreel/internal/headline"
	"github.com/newsreel/newsreel/internal/logging"
)

type pagedProvider struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (p *pagedProvider) FetchPage(_ context.Context, page int) ([]headline.Headline, error) {
	p.mu.Lock()
	p.calls = append(p.calls, page)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return []headline.Headline{
		{Title: fmt.Sprintf("p%d-a", page), URL: fmt.Sprintf("https://x.com/%d/a", page)},
		{Title: fmt.Sprintf("p%d-b", page), URL: fmt.Sprintf("https://x.com/%d/b", page)},
	}, nil
}

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open(context.Background(), filepath.Join(t.TempDir(), "store.db"), logging.Discard())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func titles(items []headline.Headline) []string {
	out := make([]string, len(items))
	for i, h := range items {
		out[i] = h.Title
	}
	return out
}

func TestReduceHeadlinesPaging(t *testing.T) {
	p1 := []headline.Headline{{Title: "a"}, {Title: "b"}}
	p2 := []headline.Headline{{Title: "c"}}

	s := Reduce(State{}, HeadlinesStoredAction{Page: 1, Items: p1})
	s = Reduce(s, HeadlinesStoredAction{Page: 2, Items: p2})
	if got := titles(s.News.Headlines); fmt.Sprint(got) != "[a b c]" {
		t.Errorf("expected appended pages, got %v", got)
	}
	if s.News.Page != 2 {
		t.Errorf("expected page 2, got %d", s.News.Page)
	}

	// Page 1 starts over.
	s = Reduce(s, HeadlinesStoredAction{Page: 1, Items: p2})
	if got := titles(s.News.Headlines); fmt.Sprint(got) != "[c]" {
		t.Errorf("expected page 1 to replace, got %v", got)
	}
}

func TestReduceSamePageTwiceDuplicates(t *testing.T) {
	p2 := []headline.Headline{{Title: "c", URL: "u"}}
	s := Reduce(State{}, HeadlinesStoredAction{Page: 1, Items: []headline.Headline{{Title: "a"}}})
	s = Reduce(s, HeadlinesStoredAction{Page: 2, Items: p2})
	s = Reduce(s, HeadlinesStoredAction{Page: 2, Items: p2})
	if len(s.News.Headlines) != 3 {
		t.Errorf("expected no de-duplication of re-fetched pages, got %d rows", len(s.News.Headlines))
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := Reduce(State{}, HeadlinesStoredAction{Page: 1, Items: []headline.Headline{{Title: "a"}}})
	before = Reduce(before, PinAction{Item: headline.Headline{Title: "a"}})

	after := Reduce(before, HeadlinesStoredAction{Page: 2, Items: []headline.Headline{{Title: "b"}}})
	after = Reduce(after, UnpinAction{Item: headline.Headline{Title: "a"}})

	if len(before.News.Headlines) != 1 || len(before.News.Pinned) != 1 {
		t.Errorf("input state changed: %+v", before.News)
	}
	if len(after.News.Headlines) != 2 || len(after.News.Pinned) != 0 {
		t.Errorf("unexpected output state: %+v", after.News)
	}
}

func TestReduceOutOfOrderPages(t *testing.T) {
	s := Reduce(State{}, HeadlinesStoredAction{Page: 1, Items: []headline.Headline{{Title: "a"}}})
	s = Reduce(s, HeadlinesStoredAction{Page: 3, Items: []headline.Headline{{Title: "c"}}})
	s = Reduce(s, HeadlinesStoredAction{Page: 2, Items: []headline.Headline{{Title: "b"}}})

	// Known defect: rows follow completion order, not page order.
	if got := titles(s.News.Headlines); fmt.Sprint(got) != "[a c b]" {
		t.Errorf("expected completion-order append, got %v", got)
	}
	if s.News.Page != 3 {
		t.Errorf("expected page to stay at 3, got %d", s.News.Page)
	}
}

func TestReducePinIdempotentOnTitle(t *testing.T) {
	item := headline.Headline{Title: "Rates rise", URL: "https://a.com/1"}
	s := Reduce(State{}, PinAction{Item: item})
	s = Reduce(s, PinAction{Item: item})
	if len(s.News.Pinned) != 1 {
		t.Fatalf("expected pinning twice to keep one entry, got %d", len(s.News.Pinned))
	}
}

func TestReducePinSameTitleDifferentURLCollapses(t *testing.T) {
	// Membership is by title, so a distinct story that happens to share a
	// title cannot be pinned alongside the first one.
	first := headline.Headline{Title: "Rates rise", URL: "https://a.com/1"}
	other := headline.Headline{Title: "Rates rise", URL: "https://b.com/elsewhere"}

	s := Reduce(State{}, PinAction{Item: first})
	s = Reduce(s, PinAction{Item: other})
	if len(s.News.Pinned) != 1 {
		t.Fatalf("expected same-title items to collapse, got %d pins", len(s.News.Pinned))
	}
	if s.News.Pinned[0].URL != first.URL {
		t.Errorf("expected first URL to win, got %q", s.News.Pinned[0].URL)
	}

	// Unpinning the other story removes the first one too.
	s = Reduce(s, UnpinAction{Item: other})
	if len(s.News.Pinned) != 0 {
		t.Errorf("expected unpin by title to remove the collapsed pin, got %d", len(s.News.Pinned))
	}
}

func TestReducePinnedLoadedReplaces(t *testing.T) {
	s := Reduce(State{}, PinAction{Item: headline.Headline{Title: "old"}})
	s = Reduce(s, PinnedLoadedAction{Items: []headline.Headline{{Title: "x"}, {Title: "y"}}})
	if got := titles(s.News.Pinned); fmt.Sprint(got) != "[x y]" {
		t.Errorf("expected loaded pins to replace state, got %v", got)
	}
}

func TestDispatchFetchStoresAndPersists(t *testing.T) {
	ctx := context.Background()
	c := testCache(t)
	s := New(&pagedProvider{}, c, logging.Discard())

	if err := s.Dispatch(ctx, FetchAndStoreHeadlines(1)); err != nil {
		t.Fatalf("dispatch page 1: %v", err)
	}
	if err := s.Dispatch(ctx, FetchAndStoreHeadlines(2)); err != nil {
		t.Fatalf("dispatch page 2: %v", err)
	}

	if got := titles(s.State().News.Headlines); fmt.Sprint(got) != "[p1-a p1-b p2-a p2-b]" {
		t.Errorf("unexpected headlines: %v", got)
	}
	stored, _ := c.Headlines(ctx, 2)
	if len(stored) != 2 {
		t.Errorf("expected page 2 persisted, got %d", len(stored))
	}
}

func TestDispatchFetchErrorLeavesState(t *testing.T) {
	boom := errors.New("boom")
	s := New(&pagedProvider{err: boom}, testCache(t), logging.Discard())

	err := s.Dispatch(context.Background(), FetchAndStoreHeadlines(1))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if len(s.State().News.Headlines) != 0 || s.State().News.Page != 0 {
		t.Errorf("state changed after failed fetch: %+v", s.State().News)
	}
}

func TestDispatchPinRoundTripsThroughStorage(t *testing.T) {
	ctx := context.Background()
	c := testCache(t)
	item := headline.Headline{Title: "Pin me", URL: "https://x.com/pin"}

	s := New(&pagedProvider{}, c, logging.Discard())
	if err := s.Dispatch(ctx, PinNewsItem(item)); err != nil {
		t.Fatalf("pin: %v", err)
	}

	// A fresh store (next launch) hydrates from storage.
	fresh := New(&pagedProvider{}, c, logging.Discard())
	if err := fresh.Dispatch(ctx, LoadPinnedNews()); err != nil {
		t.Fatalf("load pinned: %v", err)
	}
	if got := fresh.State().News.Pinned; len(got) != 1 || got[0].URL != item.URL {
		t.Fatalf("expected hydrated pin, got %+v", got)
	}

	if err := fresh.Dispatch(ctx, UnpinNewsItem(item)); err != nil {
		t.Fatalf("unpin: %v", err)
	}
	if len(fresh.State().News.Pinned) != 0 {
		t.Error("expected pin removed from state")
	}
	persisted, _ := c.Pinned(ctx)
	if len(persisted) != 0 {
		t.Error("expected pin removed from storage")
	}
}

func TestSubscribe(t *testing.T) {
	s := New(&pagedProvider{}, testCache(t), logging.Discard())

	var got []State
	unsubscribe := s.Subscribe(func(st State) { got = append(got, st) })

	s.Dispatch(context.Background(), PinNewsItem(headline.Headline{Title: "a"}))
	if len(got) != 1 || len(got[0].News.Pinned) != 1 {
		t.Fatalf("expected one notification with the new state, got %+v", got)
	}

	unsubscribe()
	s.Dispatch(context.Background(), PinNewsItem(headline.Headline{Title: "b"}))
	if len(got) != 1 {
		t.Errorf("expected no notification after unsubscribe, got %d", len(got))
	}
}

func TestConcurrentDispatchSerializes(t *testing.T) {
	s := New(&pagedProvider{}, testCache(t), logging.Discard())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Dispatch(ctx, PinNewsItem(headline.Headline{Title: fmt.Sprintf("t%d", i)}))
		}(i)
	}
	wg.Wait()

	if n := len(s.State().News.Pinned); n != 20 {
		t.Errorf("expected 20 pins after concurrent dispatch, got %d", n)
	}
}

// slowPinned is a Persistence whose Pinned call blocks after reading until
// release is closed.
type slowPinned struct {
	mu      sync.Mutex
	pinned  []headline.Headline
	read    chan struct{}
	release chan struct{}
}

func (p *slowPinned) SaveHeadlines(context.Context, int, []headline.Headline) error { return nil }

func (p *slowPinned) Pin(_ context.Context, h headline.Headline) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !headline.IsPinned(p.pinned, h) {
		p.pinned = append(p.pinned, h)
	}
	return nil
}

func (p *slowPinned) Unpin(_ context.Context, title string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.pinned)
	p.pinned = headline.WithoutTitle(p.pinned, title)
	return len(p.pinned) != n, nil
}

func (p *slowPinned) Pinned(context.Context) ([]headline.Headline, error) {
	p.mu.Lock()
	out := append([]headline.Headline(nil), p.pinned...)
	p.mu.Unlock()
	close(p.read)
	<-p.release
	return out, nil
}

func TestPinDuringPinnedLoadIsKept(t *testing.T) {
	persist := &slowPinned{read: make(chan struct{}), release: make(chan struct{})}
	s := New(&pagedProvider{}, persist, logging.Discard())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Dispatch(ctx, LoadPinnedNews())
	}()
	<-persist.read

	go func() {
		defer wg.Done()
		s.Dispatch(ctx, PinNewsItem(headline.Headline{Title: "X", URL: "https://x.com/x"}))
	}()
	// Give the pin a chance to run before the load finishes.
	time.Sleep(20 * time.Millisecond)
	close(persist.release)
	wg.Wait()

	if got := s.State().News.Pinned; len(got) != 1 || got[0].Title != "X" {
		t.Errorf("expected the pin to survive the concurrent load, got %+v", got)
	}
}

func TestUnpinDuringPinnedLoadIsKept(t *testing.T) {
	item := headline.Headline{Title: "X", URL: "https://x.com/x"}
	persist := &slowPinned{
		pinned:  []headline.Headline{item},
		read:    make(chan struct{}),
		release: make(chan struct{}),
	}
	s := New(&pagedProvider{}, persist, logging.Discard())
	ctx := context.Background()
	s.apply(PinAction{Item: item})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Dispatch(ctx, LoadPinnedNews())
	}()
	<-persist.read

	go func() {
		defer wg.Done()
		s.Dispatch(ctx, UnpinNewsItem(item))
	}()
	time.Sleep(20 * time.Millisecond)
	close(persist.release)
	wg.Wait()

	if got := s.State().News.Pinned; len(got) != 0 {
		t.Errorf("expected the unpin to survive the concurrent load, got %+v", got)
	}
}
