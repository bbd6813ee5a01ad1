// Package search wraps the DuckDuckGo instant-answer API. Results are trend
// signal for title planning, so a failed lookup degrades to a canned hint
// instead of failing the run.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.duckduckgo.com/"
	queryTimeout   = 10 * time.Second
	maxTopics      = 3
	maxSummaryLen  = 500
)

// Client queries the instant-answer endpoint.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewClient returns a client against the public endpoint.
func NewClient() *Client {
	return &Client{}
}

type instantAnswer struct {
	Abstract      string `json:"Abstract"`
	Answer        string `json:"Answer"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

// Query runs one search and returns a short textual summary. It never fails:
// any transport or decode problem yields a fallback sentence so the calling
// stage can keep going.
func (c *Client) Query(ctx context.Context, query string) string {
	summary, err := c.query(ctx, query)
	if err != nil {
		c.logger().Printf("[search] query %q failed: %v", query, err)
		return fallback(query)
	}
	return summary
}

func (c *Client) query(ctx context.Context, query string) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return "", err
	}
	return summarize(query, answer), nil
}

func summarize(query string, answer instantAnswer) string {
	var parts []string
	if answer.Abstract != "" {
		parts = append(parts, "Summary: "+answer.Abstract)
	}
	var topics []string
	for _, t := range answer.RelatedTopics {
		if t.Text == "" {
			continue
		}
		topics = append(topics, t.Text)
		if len(topics) == maxTopics {
			break
		}
	}
	if len(topics) > 0 {
		parts = append(parts, "Related: "+strings.Join(topics, "; "))
	}
	if answer.Answer != "" {
		parts = append(parts, "Answer: "+answer.Answer)
	}
	if len(parts) == 0 {
		return fallback(query)
	}
	summary := strings.Join(parts, " | ")
	if len(summary) > maxSummaryLen {
		summary = summary[:maxSummaryLen] + "..."
	}
	return summary
}

func fallback(query string) string {
	return fmt.Sprintf("No concrete results for %q; lean on widely known, general guidance for the topic.", query)
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}
