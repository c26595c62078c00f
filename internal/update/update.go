// Package update looks up the latest published newsreel release.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const ReleasesURL = "https://api.github.com/repos/newsreel/newsreel/releases/latest"

const checkTimeout = 5 * time.Second

var ErrNoRelease = errors.New("no published release")

// Release compares the running build against the latest published tag.
type Release struct {
	Current string
	Latest  string
	URL     string
}

// Newer reports whether Latest is a higher dotted version than Current.
// Builds without a numeric version (dev) never report an update.
func (r Release) Newer() bool {
	cur, ok := parseVersion(r.Current)
	if !ok {
		return false
	}
	latest, ok := parseVersion(r.Latest)
	if !ok {
		return false
	}
	for i := range max(len(cur), len(latest)) {
		var a, b int
		if i < len(cur) {
			a = cur[i]
		}
		if i < len(latest) {
			b = latest[i]
		}
		if a != b {
			return b > a
		}
	}
	return false
}

func parseVersion(v string) ([]int, bool) {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return nil, false
	}
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

type Checker struct {
	client *http.Client
	url    string
	log    *slog.Logger
}

func NewChecker(client *http.Client, releasesURL string, log *slog.Logger) *Checker {
	return &Checker{client: client, url: releasesURL, log: log}
}

type ghRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Latest fetches the latest release and pairs it with current.
func (c *Checker) Latest(ctx context.Context, current string) (Release, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	rel := Release{Current: current}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return rel, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return rel, fmt.Errorf("requesting latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rel, fmt.Errorf("latest release: unexpected status %s", resp.Status)
	}

	var gh ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return rel, fmt.Errorf("decoding latest release: %w", err)
	}
	if gh.TagName == "" {
		return rel, ErrNoRelease
	}

	rel.Latest = strings.TrimPrefix(gh.TagName, "v")
	rel.URL = gh.HTMLURL
	c.log.DebugContext(ctx, "Checked latest release", "current", current, "latest", rel.Latest, "newer", rel.Newer())
	return rel, nil
}
