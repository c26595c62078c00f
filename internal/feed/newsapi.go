package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/newsreel/newsreel/internal/config"
	"github.com/newsreel/newsreel/internal/headline"
)

// removedTitle marks articles NewsAPI has withdrawn; they carry no content.
const removedTitle = "[Removed]"

// NewsAPI pages through a top-headlines endpoint.
type NewsAPI struct {
	cfg      config.NewsAPIConfig
	pageSize int
	client   *http.Client
	log      *slog.Logger
}

func NewNewsAPI(cfg config.NewsAPIConfig, pageSize int, client *http.Client, log *slog.Logger) *NewsAPI {
	return &NewsAPI{cfg: cfg, pageSize: pageSize, client: client, log: log}
}

type newsAPIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		URLToImage  string    `json:"urlToImage"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

func (n *NewsAPI) FetchPage(ctx context.Context, page int) ([]headline.Headline, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page %d", page)
	}

	u, err := url.Parse(n.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	q := u.Query()
	if n.cfg.Country != "" {
		q.Set("country", n.cfg.Country)
	}
	if n.cfg.Category != "" {
		q.Set("category", n.cfg.Category)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(n.pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", n.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting page %d: %w", page, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading page %d: %w", page, err)
	}

	var result newsAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding page %d (HTTP %d): %w", page, resp.StatusCode, err)
	}

	if result.Status == "error" || resp.StatusCode != http.StatusOK {
		// Free plans cap how deep pagination can go; treat it as the end.
		if result.Code == "maximumResultsReached" {
			n.log.DebugContext(ctx, "NewsAPI pagination limit reached", "page", page)
			return []headline.Headline{}, nil
		}
		return nil, fmt.Errorf("newsapi error (HTTP %d, %s): %s", resp.StatusCode, result.Code, result.Message)
	}

	out := make([]headline.Headline, 0, len(result.Articles))
	for _, a := range result.Articles {
		if a.Title == "" || a.Title == removedTitle || a.URL == "" {
			continue
		}
		out = append(out, headline.Headline{
			Title:       a.Title,
			URL:         a.URL,
			Source:      a.Source.Name,
			Description: cleanDescription(a.Description),
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
		})
	}
	n.log.DebugContext(ctx, "Fetched NewsAPI page", "page", page, "items", len(out), "total", result.TotalResults)
	return out, nil
}
