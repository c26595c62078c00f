package store

import (
	"slices"

	"github.com/newsreel/newsreel/internal/headline"
)

type NewsState struct {
	Headlines []headline.Headline
	Pinned    []headline.Headline
	// Page is the last page stored in Headlines, 0 before the first fetch.
	Page int
}

type State struct {
	News NewsState
}

// Reduce returns the state after applying a. It never modifies the slices of
// the input state. Side-effect actions (fetch, load) are ignored here; the
// store turns them into their result actions first.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case HeadlinesStoredAction:
		// Page 1 starts a fresh list, later pages extend it. Pages are not
		// de-duplicated: storing the same page twice appends it twice.
		// Overlapping fetches can complete out of order: later pages are
		// appended in completion order, but Page never moves back.
		if a.Page <= 1 {
			s.News.Headlines = slices.Clone(a.Items)
			s.News.Page = a.Page
		} else {
			s.News.Headlines = slices.Concat(s.News.Headlines, a.Items)
			s.News.Page = max(s.News.Page, a.Page)
		}

	case PinAction:
		if !headline.IsPinned(s.News.Pinned, a.Item) {
			s.News.Pinned = slices.Concat(s.News.Pinned, []headline.Headline{a.Item})
		}

	case UnpinAction:
		s.News.Pinned = headline.WithoutTitle(s.News.Pinned, a.Item.Title)

	case PinnedLoadedAction:
		s.News.Pinned = slices.Clone(a.Items)
	}
	return s
}
