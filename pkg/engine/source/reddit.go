package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/DrSkyle/datasift/pkg/config"
	"github.com/DrSkyle/datasift/pkg/record"
)

// isoMillis matches the timestamp layout of the collected records.
const isoMillis = "2006-01-02T15:04:05.000Z"

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	Score       float64 `json:"score"`
	NumComments float64 `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Selftext    string  `json:"selftext"`
}

// RedditSource reads hot posts from public subreddits.
type RedditSource struct {
	cfg    config.SourceConfig
	client *httpClient
}

func NewRedditSource(cfg config.SourceConfig) *RedditSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultRedditURL
	}
	if len(cfg.Subreddits) == 0 {
		cfg.Subreddits = config.DefaultSubreddits()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = config.DefaultRedditLimit
	}
	return &RedditSource{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout, cfg.Interval, cfg.UserAgent),
	}
}

func (s *RedditSource) Info() Info {
	return Info{
		Name: "Reddit - r/" + s.cfg.Subreddits[0],
		Type: "Public Forum",
		URL:  config.DefaultRedditURL + "/r/" + s.cfg.Subreddits[0] + "/",
	}
}

// Fetch walks the subreddits in order. Any failed request fails the whole
// fetch.
func (s *RedditSource) Fetch(ctx context.Context) ([]record.Record, error) {
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	var out []record.Record

	for _, sub := range s.cfg.Subreddits {
		u := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", base, url.PathEscape(sub), s.cfg.Limit)
		slog.Debug("Fetching subreddit", "subreddit", sub)

		var listing redditListing
		if err := s.client.getJSON(ctx, u, &listing); err != nil {
			return nil, fmt.Errorf("r/%s: %w", sub, err)
		}

		for _, child := range listing.Data.Children {
			out = append(out, redditRecord(child.Data, sub))
		}
		slog.Debug("Collected posts", "subreddit", sub, "count", len(listing.Data.Children))
	}
	return out, nil
}

func redditRecord(p redditPost, sub string) record.Record {
	created := time.UnixMilli(int64(p.CreatedUTC * 1000)).UTC()
	return record.Record{
		"id":           p.ID,
		"source":       "Reddit",
		"subreddit":    p.Subreddit,
		"title":        p.Title,
		"author":       p.Author,
		"url":          config.DefaultRedditURL + p.Permalink,
		"score":        p.Score,
		"num_comments": p.NumComments,
		"created":      created.Format(isoMillis),
		"selftext":     truncate(p.Selftext, config.SelftextLimit),
		"type":         "forum_post",
		"tags":         []any{"security", "public_forum", sub},
	}
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (s *RedditSource) Samples() []record.Record {
	now := time.Now().UTC().Format(isoMillis)
	return []record.Record{
		{
			"id":           "sample1",
			"source":       "Reddit",
			"subreddit":    "security",
			"title":        "New critical vulnerability discovered in OpenSSL",
			"author":       "security_researcher",
			"url":          "https://www.reddit.com/r/security/sample1",
			"score":        245.0,
			"num_comments": 67.0,
			"created":      now,
			"selftext":     "A new critical vulnerability has been discovered...",
			"type":         "forum_post",
			"tags":         []any{"security", "public_forum", "security"},
		},
		{
			"id":           "sample2",
			"source":       "Reddit",
			"subreddit":    "netsec",
			"title":        "Best practices for securing cloud infrastructure",
			"author":       "cloud_expert",
			"url":          "https://www.reddit.com/r/netsec/sample2",
			"score":        189.0,
			"num_comments": 43.0,
			"created":      now,
			"selftext":     "Here are some best practices for cloud security...",
			"type":         "forum_post",
			"tags":         []any{"security", "public_forum", "netsec"},
		},
	}
}
