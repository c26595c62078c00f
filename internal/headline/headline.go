// Package headline holds the news item record shared by the feed, the store
// and the screens, plus the pinned-set membership rules.
package headline

import (
	"strconv"
	"time"
)

type Headline struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`
}

// RowKey identifies a list row. The domain does not guarantee unique URLs, so
// the position is part of the key.
func RowKey(h Headline, index int) string {
	return h.URL + "-" + strconv.Itoa(index)
}

// IsPinned reports whether an item with the same title is in pinned.
// Membership is by title, not URL: two headlines sharing a title are the
// same pin.
func IsPinned(pinned []Headline, h Headline) bool {
	return IndexByTitle(pinned, h.Title) >= 0
}

// IndexByTitle returns the position of the first item titled title, or -1.
func IndexByTitle(items []Headline, title string) int {
	for i, it := range items {
		if it.Title == title {
			return i
		}
	}
	return -1
}

// WithoutTitle returns items minus every entry titled title. The input slice
// is not modified.
func WithoutTitle(items []Headline, title string) []Headline {
	out := make([]Headline, 0, len(items))
	for _, it := range items {
		if it.Title != title {
			out = append(out, it)
		}
	}
	return out
}
