// Package feed retrieves pages of headlines from a configured provider.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/newsreel/newsreel/internal/config"
	"github.com/newsreel/newsreel/internal/headline"
)

// Provider returns one page of headlines. Pages start at 1; a page past the
// end of the feed is empty, not an error.
type Provider interface {
	FetchPage(ctx context.Context, page int) ([]headline.Headline, error)
}

// New builds the provider selected by cfg.Provider.
func New(cfg *config.Config, log *slog.Logger) (Provider, error) {
	client := &http.Client{Timeout: 20 * time.Second}

	switch cfg.Provider {
	case config.ProviderRSS:
		return NewRSS(cfg.EnabledSources(), cfg.GetPageSize(), log), nil
	case config.ProviderNewsAPI:
		return NewNewsAPI(cfg.NewsAPI, cfg.GetPageSize(), client, log), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
