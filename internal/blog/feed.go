// Package blog reads the external post feed shown on the blog page.
package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront-service/internal/util"

	"go.uber.org/zap"
)

const (
	postsPath          = "/wp-json/wp/v2/posts?per_page=10&_fields=title,link,date"
	unavailableMessage = "Blog feed unavailable."
)

// Post is one feed entry
type Post struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Date  string `json:"date"`
}

// Feed is what the blog page renders
type Feed struct {
	Posts       []Post `json:"posts"`
	Unavailable bool   `json:"unavailable,omitempty"`
	Message     string `json:"message,omitempty"`
}

type wpPost struct {
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Link string `json:"link"`
	Date string `json:"date"`
}

// Client fetches posts from a WordPress REST endpoint
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a feed client for baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  util.GetLogger(),
	}
}

// Latest returns the newest posts. Any failure degrades to a placeholder feed.
func (c *Client) Latest(ctx context.Context) Feed {
	ctx, span := util.StartSpan(ctx, "BlogClient.Latest")
	defer span.End()

	posts, err := c.fetch(ctx)
	if err != nil {
		util.BlogFetchFailed.Inc()
		c.logger.Warn("Blog feed fetch failed", zap.Error(err))
		return Feed{Posts: []Post{}, Unavailable: true, Message: unavailableMessage}
	}
	return Feed{Posts: posts}
}

func (c *Client) fetch(ctx context.Context) ([]Post, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("blog base url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+postsPath, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var raw []wpPost
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	posts := make([]Post, 0, len(raw))
	for _, p := range raw {
		title := p.Title.Rendered
		if title == "" {
			title = "Untitled"
		}
		posts = append(posts, Post{Title: title, Link: p.Link, Date: p.Date})
	}
	return posts, nil
}
