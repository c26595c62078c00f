// Package store holds the news state the screens subscribe to. Every change
// goes through Dispatch, which runs the action's side effects and then the
// reducer under a lock, so mutations are serialized.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/newsreel/newsreel/internal/feed"
	"github.com/newsreel/newsreel/internal/headline"
)

// Persistence is the storage the store writes through to.
type Persistence interface {
	SaveHeadlines(ctx context.Context, page int, items []headline.Headline) error
	Pin(ctx context.Context, h headline.Headline) error
	Unpin(ctx context.Context, title string) (bool, error)
	Pinned(ctx context.Context) ([]headline.Headline, error)
}

type Store struct {
	provider feed.Provider
	persist  Persistence
	log      *slog.Logger

	// pinMu serializes pinned-set side effects with their reduce, so a
	// load that read storage before a toggle cannot land after it.
	pinMu sync.Mutex

	mu      sync.Mutex
	state   State
	version uint64
	subs    map[int]func(State)
	nextSub int

	notifyMu  sync.Mutex
	delivered uint64
}

func New(provider feed.Provider, persist Persistence, log *slog.Logger) *Store {
	return &Store{
		provider: provider,
		persist:  persist,
		log:      log,
		subs:     make(map[int]func(State)),
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive every new state. fn runs on the
// dispatching goroutine and must not block for long.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Dispatch runs a's side effects, then reduces. A failed side effect leaves
// the state untouched and is returned.
func (s *Store) Dispatch(ctx context.Context, a Action) error {
	switch a := a.(type) {
	case FetchHeadlinesAction:
		items, err := s.provider.FetchPage(ctx, a.Page)
		if err != nil {
			return fmt.Errorf("fetching page %d: %w", a.Page, err)
		}
		if err := s.persist.SaveHeadlines(ctx, a.Page, items); err != nil {
			return fmt.Errorf("storing page %d: %w", a.Page, err)
		}
		s.log.DebugContext(ctx, "Stored headlines", "page", a.Page, "items", len(items))
		s.apply(HeadlinesStoredAction{Page: a.Page, Items: items})

	case PinAction:
		s.pinMu.Lock()
		defer s.pinMu.Unlock()
		if err := s.persist.Pin(ctx, a.Item); err != nil {
			return err
		}
		s.log.InfoContext(ctx, "Pinned headline", "title", a.Item.Title, "url", a.Item.URL)
		s.apply(a)

	case UnpinAction:
		s.pinMu.Lock()
		defer s.pinMu.Unlock()
		if _, err := s.persist.Unpin(ctx, a.Item.Title); err != nil {
			return err
		}
		s.log.InfoContext(ctx, "Unpinned headline", "title", a.Item.Title)
		s.apply(a)

	case LoadPinnedAction:
		s.pinMu.Lock()
		defer s.pinMu.Unlock()
		items, err := s.persist.Pinned(ctx)
		if err != nil {
			return fmt.Errorf("loading pinned: %w", err)
		}
		s.apply(PinnedLoadedAction{Items: items})

	default:
		s.apply(a)
	}
	return nil
}

func (s *Store) apply(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	s.version++
	st, v := s.state, s.version
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	// A newer state may already have gone out from a concurrent dispatch.
	if v <= s.delivered {
		return
	}
	s.delivered = v
	for _, fn := range subs {
		fn(st)
	}
}
