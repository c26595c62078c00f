package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/newsreel/newsreel/internal/config"
	"github.com/newsreel/newsreel/internal/headline"
)

// RSS merges the configured feeds newest first and pages through the merged
// list. Page 1 refetches every source; later pages slice the snapshot taken
// by the last page-1 fetch so paging stays stable while the feeds move.
type RSS struct {
	sources  []config.Source
	pageSize int
	log      *slog.Logger

	mu       sync.Mutex
	snapshot []headline.Headline
	fetched  bool
}

func NewRSS(sources []config.Source, pageSize int, log *slog.Logger) *RSS {
	return &RSS{
		sources:  sources,
		pageSize: pageSize,
		log:      log,
	}
}

func (r *RSS) FetchPage(ctx context.Context, page int) ([]headline.Headline, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page %d", page)
	}

	r.mu.Lock()
	snapshot, fetched := r.snapshot, r.fetched
	r.mu.Unlock()

	if page == 1 || !fetched {
		merged, err := r.fetchAll(ctx)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.snapshot, r.fetched = merged, true
		r.mu.Unlock()
		snapshot = merged
	}

	start := (page - 1) * r.pageSize
	if start >= len(snapshot) {
		return []headline.Headline{}, nil
	}
	end := min(start+r.pageSize, len(snapshot))
	out := make([]headline.Headline, end-start)
	copy(out, snapshot[start:end])
	return out, nil
}

func (r *RSS) fetchAll(ctx context.Context) ([]headline.Headline, error) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		merged []headline.Headline
		errs   []error
	)

	for _, src := range r.sources {
		wg.Add(1)
		go func(s config.Source) {
			defer wg.Done()
			items, err := r.fetchSource(ctx, s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			merged = append(merged, items...)
		}(src)
	}
	wg.Wait()

	for _, err := range errs {
		r.log.WarnContext(ctx, "Feed source failed", "error", err)
	}
	if len(errs) > 0 && len(errs) == len(r.sources) {
		return nil, fmt.Errorf("all sources failed: %w", errors.Join(errs...))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	r.log.DebugContext(ctx, "Fetched feeds", "sources", len(r.sources), "failed", len(errs), "items", len(merged))
	return merged, nil
}

func (r *RSS) fetchSource(ctx context.Context, source config.Source) ([]headline.Headline, error) {
	// gofeed parsers keep per-parse state, so each source gets its own.
	feed, err := gofeed.NewParser().ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := time.Now()
	out := make([]headline.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		desc := item.Description
		if desc == "" {
			desc = item.Content
		}

		var image string
		if item.Image != nil {
			image = item.Image.URL
		}

		out = append(out, headline.Headline{
			Title:       collapse(item.Title),
			URL:         item.Link,
			Source:      source.Name,
			Description: cleanDescription(desc),
			ImageURL:    image,
			PublishedAt: pub,
		})
	}
	return out, nil
}
