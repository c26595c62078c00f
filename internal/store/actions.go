package store

import "github.com/newsreel/newsreel/internal/headline"

// Action types.
const (
	TypeFetchHeadlines   = "FETCH_HEADLINES"
	TypeHeadlinesStored  = "HEADLINES_STORED"
	TypePinNews          = "PIN_NEWS"
	TypeUnpinNews        = "UNPIN_NEWS"
	TypeLoadPinnedNews   = "LOAD_PINNED_NEWS"
	TypePinnedNewsLoaded = "PINNED_NEWS_LOADED"
)

type Action interface {
	Type() string
}

// FetchHeadlinesAction fetches one page from the provider, persists it and
// then stores it in state.news.headlines.
type FetchHeadlinesAction struct{ Page int }

// HeadlinesStoredAction carries a fetched page into the reducer.
type HeadlinesStoredAction struct {
	Page  int
	Items []headline.Headline
}

type PinAction struct{ Item headline.Headline }

type UnpinAction struct{ Item headline.Headline }

// LoadPinnedAction hydrates state.news.pinned from persistent storage.
type LoadPinnedAction struct{}

type PinnedLoadedAction struct{ Items []headline.Headline }

func (FetchHeadlinesAction) Type() string  { return TypeFetchHeadlines }
func (HeadlinesStoredAction) Type() string { return TypeHeadlinesStored }
func (PinAction) Type() string             { return TypePinNews }
func (UnpinAction) Type() string           { return TypeUnpinNews }
func (LoadPinnedAction) Type() string      { return TypeLoadPinnedNews }
func (PinnedLoadedAction) Type() string    { return TypePinnedNewsLoaded }

func FetchAndStoreHeadlines(page int) Action { return FetchHeadlinesAction{Page: page} }

func PinNewsItem(item headline.Headline) Action { return PinAction{Item: item} }

func UnpinNewsItem(item headline.Headline) Action { return UnpinAction{Item: item} }

func LoadPinnedNews() Action { return LoadPinnedAction{} }
