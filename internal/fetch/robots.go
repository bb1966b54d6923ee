package fetch

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsCache maintains a per-host cache of parsed robots.txt, treating a
// missing file or a >=400 status as allow-all (C4 step 2).
type RobotsCache struct {
	mu     sync.Mutex
	byHost map[string]*robotstxt.RobotsData
	client *http.Client
	ua     string
}

func NewRobotsCache(client *http.Client, userAgent string) *RobotsCache {
	return &RobotsCache{
		byHost: map[string]*robotstxt.RobotsData{},
		client: client,
		ua:     userAgent,
	}
}

// Allowed reports whether path on rawURL's host/scheme is allowed for the
// configured user agent.
func (c *RobotsCache) Allowed(rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}

	data, err := c.fetchFor(u)
	if err != nil {
		// Network failure fetching robots.txt: fail open, the same as a
		// missing file, so a transient DNS/robots outage never blocks a
		// crawl entirely.
		return true, nil //nolint:nilerr
	}
	return data.TestAgent(u.Path, c.ua), nil
}

func (c *RobotsCache) fetchFor(u *url.URL) (*robotstxt.RobotsData, error) {
	key := u.Scheme + "://" + u.Host

	c.mu.Lock()
	if data, ok := c.byHost[key]; ok {
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	robotsURL := key + "/robots.txt"
	req, err := http.NewRequest(http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.ua)

	client := c.client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var data *robotstxt.RobotsData
	if resp.StatusCode >= http.StatusBadRequest {
		data, err = robotstxt.FromStatusAndString(http.StatusOK, "")
	} else {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return nil, readErr
		}
		data, err = robotstxt.FromStatusAndString(resp.StatusCode, string(body))
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byHost[key] = data
	c.mu.Unlock()
	return data, nil
}
